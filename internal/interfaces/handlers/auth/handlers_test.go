package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	authsvc "datahub-backend/internal/application/auth"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLogin struct {
	adviser *domain.Adviser
}

func (f *fakeLogin) Login(_ context.Context, email, password string) (*domain.Adviser, error) {
	if f.adviser == nil || !strings.EqualFold(f.adviser.Email, email) || password != "correct horse battery" {
		return nil, authsvc.ErrInvalidCredentials
	}
	return f.adviser, nil
}

func setup(t *testing.T) (*fiber.App, *redis.Client, *domain.Adviser) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	adviser := &domain.Adviser{
		ID:        uuid.New(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@trade.gov.uk",
		IsActive:  true,
		Role:      "adviser",
	}
	h := &Handlers{Service: &fakeLogin{adviser: adviser}, Rdb: rdb}

	app := fiber.New()
	app.Use(middleware.Session(rdb))
	app.Post("/auth/login", h.Login)
	app.Get("/whoami", h.WhoAmI)
	app.Delete("/auth/logout", h.Logout)
	return app, rdb, adviser
}

func login(t *testing.T, app *fiber.App, email, password string) (int, string) {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	for _, ck := range resp.Cookies() {
		if ck.Name == middleware.SessionCookieName {
			return resp.StatusCode, ck.Value
		}
	}
	return resp.StatusCode, ""
}

func TestLogin_MissingCredentials(t *testing.T) {
	app, _, _ := setup(t)
	status, cookie := login(t, app, "ada@trade.gov.uk", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, cookie)
}

func TestLogin_WrongPassword(t *testing.T) {
	app, _, _ := setup(t)
	status, cookie := login(t, app, "ada@trade.gov.uk", "nope")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Empty(t, cookie)
}

func TestLogin_WhoAmI_Logout(t *testing.T) {
	app, rdb, adviser := setup(t)

	status, cookie := login(t, app, "ada@trade.gov.uk", "correct horse battery")
	require.Equal(t, fiber.StatusOK, status)
	require.True(t, strings.HasPrefix(cookie, "s:"))
	sid := strings.TrimPrefix(cookie, "s:")

	members, err := rdb.SMembers(context.Background(), adviserSessionsPrefix+adviser.ID.String()).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{sid}, members)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
	assert.Equal(t, adviser.ID.String(), me["id"])
	assert.Equal(t, "Ada Lovelace", me["name"])

	req = httptest.NewRequest("DELETE", "/auth/logout", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	n, err := rdb.Exists(context.Background(), middleware.SessionRedisPrefix+sid).Result()
	require.NoError(t, err)
	assert.Zero(t, n)

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Cookie", middleware.SessionCookieName+"="+cookie)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
