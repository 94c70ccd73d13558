package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/dcurran1637/Certificate-management/internal/feedtoken"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// FeedToken authenticates calendar clients that cannot send the session
// cookie. A signed ?token= grants a user-level identity for the person it was
// issued to, so it only ever unlocks that person's own feed. Requests that
// already carry a session identity are left untouched.
func FeedToken(signer *feedtoken.Signer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c) != nil || signer == nil {
			return c.Next()
		}

		raw := strings.TrimSpace(c.Query("token"))
		if raw == "" {
			return c.Next()
		}

		personID, err := signer.Parse(raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired calendar token")
		}

		SetIdentity(c, &policy.Identity{PersonID: personID, Role: policy.RoleUser})
		return c.Next()
	}
}
