package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/policy"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// SessionManager starts and ends signed-in sessions.
type SessionManager interface {
	Begin(c *fiber.Ctx, identity policy.Identity) error
	End(c *fiber.Ctx) error
}

// AuthHandler exposes registration and session endpoints.
type AuthHandler struct {
	service  service.AuthService
	sessions SessionManager
	logger   zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, sessions SessionManager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth routes. limiter guards the credential endpoints.
func (h *AuthHandler) Register(router fiber.Router, limiter fiber.Handler) {
	if limiter == nil {
		limiter = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Post("/register", limiter, h.register)
	router.Post("/login", limiter, h.login)
	router.Post("/logout", h.logout)
	router.Get("/me", h.me)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	user, err := h.service.Register(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "account created", user)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	identity, user, err := h.service.Login(c.UserContext(), payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	if err := h.sessions.Begin(c, identity); err != nil {
		requestLogger(h.logger, c).Error().Err(err).Uint("user_id", identity.UserID).Msg("failed to start session")
		return utils.SendError(c, fiber.StatusInternalServerError, "login sync failed")
	}

	return utils.SendSuccess(c, "signed in", user)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	if err := h.sessions.End(c); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("failed to destroy session")
	}
	return utils.SendSuccess(c, "signed out", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	user, err := h.service.Me(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "current user", user)
}
