package auth

import (
	"context"
	"errors"

	authsvc "datahub-backend/internal/application/auth"
	"datahub-backend/internal/domain"
	"datahub-backend/internal/middleware"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const adviserSessionsPrefix = "adviser_sessions:"

// AdviserLogin checks adviser credentials.
type AdviserLogin interface {
	Login(ctx context.Context, email, password string) (*domain.Adviser, error)
}

// Handlers holds dependencies for auth endpoints.
type Handlers struct {
	Service AdviserLogin
	Rdb     *redis.Client
	Config  middleware.SessionConfig
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login POST /auth/login: authenticate, start a new session and set the cookie.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return response.Detail(c, fiber.StatusBadRequest, authsvc.ErrEmailPasswordRequired.Error())
	}

	adviser, err := h.Service.Login(c.UserContext(), req.Email, req.Password)
	switch {
	case errors.Is(err, authsvc.ErrEmailPasswordRequired):
		return response.Detail(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, authsvc.ErrInvalidCredentials), errors.Is(err, authsvc.ErrInactive):
		return response.Detail(c, fiber.StatusUnauthorized, err.Error())
	case err != nil:
		log.Error().Err(err).Msg("login failed")
		return response.Internal(c)
	}

	sessionID := middleware.RegenerateSessionID(c)
	var teamID *string
	if adviser.DITTeamID != nil {
		s := adviser.DITTeamID.String()
		teamID = &s
	}
	user := middleware.SessionUser{
		AdviserID: adviser.ID.String(),
		Name:      adviser.Name(),
		Email:     adviser.Email,
		Role:      adviser.Role,
		TeamID:    teamID,
	}
	middleware.SetSessionUser(c, user)

	if err := h.Rdb.SAdd(context.Background(), adviserSessionsPrefix+user.AdviserID, sessionID).Err(); err != nil {
		log.Error().Err(err).Msg("track adviser session")
		return response.Internal(c)
	}

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	return response.OK(c, authsvc.SessionUserShape{
		AdviserID: user.AdviserID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		TeamID:    user.TeamID,
	})
}

// WhoAmI GET /whoami returns the session adviser.
func (h *Handlers) WhoAmI(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		log.Debug().Bool("session_id_present", middleware.GetSessionID(c) != "").Msg("whoami: not authenticated")
		return response.Unauthorized(c)
	}
	return response.OK(c, user)
}

// Logout DELETE /auth/logout drops the session from Redis and clears the cookie.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	ctx := context.Background()

	if id, ok := middleware.CurrentAdviserID(c); ok && sessionID != "" {
		_ = h.Rdb.SRem(ctx, adviserSessionsPrefix+id.String(), sessionID).Err()
	}
	if sessionID != "" {
		_ = h.Rdb.Del(ctx, middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.OK(c, fiber.Map{"detail": "Logged out"})
}
