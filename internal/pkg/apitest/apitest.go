// Package apitest drives Fiber handlers in tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"datahub-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// AsAdviser puts the adviser in the session for every request.
func AsAdviser(id uuid.UUID, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		middleware.SetSessionUser(c, middleware.SessionUser{
			AdviserID: id.String(),
			Name:      "Test Adviser",
			Email:     "test.adviser@trade.gov.uk",
			Role:      role,
		})
		return c.Next()
	}
}

// Response is a recorded reply.
type Response struct {
	Status int
	Body   []byte
	Header map[string]string
}

// Map decodes the body as a JSON object.
func (r Response) Map(t testing.TB) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &m), string(r.Body))
	return m
}

// Do sends a request. A non-nil body is sent as JSON; strings are sent verbatim.
func Do(t testing.TB, app *fiber.App, method, path string, body interface{}) Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		var b []byte
		switch v := body.(type) {
		case string:
			b = []byte(v)
		default:
			var err error
			b, err = json.Marshal(v)
			require.NoError(t, err)
		}
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	header := map[string]string{}
	for k := range resp.Header {
		header[k] = resp.Header.Get(k)
	}
	return Response{Status: resp.StatusCode, Body: b, Header: header}
}
