package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

const identityLocal = "identity"

// SetIdentity binds the authenticated caller to the request.
func SetIdentity(c *fiber.Ctx, identity *policy.Identity) {
	if identity == nil {
		return
	}
	c.Locals(identityLocal, identity)
	c.Locals("user_id", identity.UserID)
	c.Locals("user_role", string(identity.Role))
}

// IdentityFrom returns the caller bound to the request, or nil.
func IdentityFrom(c *fiber.Ctx) *policy.Identity {
	identity, _ := c.Locals(identityLocal).(*policy.Identity)
	return identity
}

// RequireAuth rejects anonymous requests.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c) == nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "not authenticated")
		}
		return c.Next()
	}
}
