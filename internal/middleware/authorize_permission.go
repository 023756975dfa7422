package middleware

import (
	"datahub-backend/internal/pkg/constants"
	"datahub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// AuthorizePermission checks the session adviser's role against constants.PermissionRoles.
// Unconfigured permission -> 500; role not allowed -> 403.
func AuthorizePermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c)
		}
		role := CurrentRole(c)
		if role == "" {
			return response.Forbidden(c)
		}
		if roles, ok := constants.PermissionRoles[permission]; !ok || len(roles) == 0 {
			log.Error().Str("permission", permission).Msg("permission is not configured")
			return response.Internal(c)
		}
		if !constants.AllowedRole(permission, role) {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

// HasPermission reports whether the session adviser holds permission.
func HasPermission(c *fiber.Ctx, permission string) bool {
	return constants.AllowedRole(permission, CurrentRole(c))
}
