package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/policy"
)

const (
	sessionUserID   = "user_id"
	sessionPersonID = "person_id"
	sessionRole     = "role"
	sessionEmail    = "email"
)

// Sessions keeps the signed-in identity in a server-side session referenced
// by an HTTP-only cookie.
type Sessions struct {
	store  *session.Store
	logger zerolog.Logger
}

// NewSessions wraps store.
func NewSessions(store *session.Store, logger zerolog.Logger) *Sessions {
	return &Sessions{
		store:  store,
		logger: logger.With().Str("component", "sessions").Logger(),
	}
}

// Load resolves the caller from the session cookie. Requests without a usable
// session continue anonymously.
func (s *Sessions) Load() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IdentityFrom(c) != nil {
			return c.Next()
		}

		sess, err := s.store.Get(c)
		if err != nil {
			s.logger.Warn().Err(err).Str("correlation_id", GetCorrelationID(c)).Msg("failed to load session")
			return c.Next()
		}
		if identity, ok := identityFromSession(sess); ok {
			SetIdentity(c, identity)
		}
		return c.Next()
	}
}

// Begin starts a fresh session for identity. The session id is regenerated so
// an id issued before sign-in cannot be reused.
func (s *Sessions) Begin(c *fiber.Ctx, identity policy.Identity) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}

	sess.Set(sessionUserID, identity.UserID)
	sess.Set(sessionPersonID, identity.PersonID)
	sess.Set(sessionRole, string(identity.Role))
	sess.Set(sessionEmail, identity.Email)
	if err := sess.Save(); err != nil {
		return err
	}

	SetIdentity(c, &identity)
	return nil
}

// End destroys the current session.
func (s *Sessions) End(c *fiber.Ctx) error {
	sess, err := s.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

func identityFromSession(sess *session.Session) (*policy.Identity, bool) {
	userID, _ := sess.Get(sessionUserID).(uint)
	if userID == 0 {
		return nil, false
	}
	personID, _ := sess.Get(sessionPersonID).(uint)
	rawRole, _ := sess.Get(sessionRole).(string)
	role, err := policy.ParseRole(rawRole)
	if err != nil {
		role = policy.RoleUser
	}
	email, _ := sess.Get(sessionEmail).(string)

	return &policy.Identity{
		UserID:   userID,
		PersonID: personID,
		Role:     role,
		Email:    email,
	}, true
}
