package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...policy.Role) fiber.Handler {
	allowed := make(map[policy.Role]struct{}, len(roles))
	for _, role := range roles {
		if parsed, err := policy.ParseRole(string(role)); err == nil {
			allowed[parsed] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		identity := IdentityFrom(c)
		if identity == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
		}
		if _, ok := allowed[identity.Role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
