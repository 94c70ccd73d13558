package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// AdminActivityHandler exposes the audit trail.
type AdminActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewAdminActivityHandler constructs the handler.
func NewAdminActivityHandler(service service.ActivityService, logger zerolog.Logger) *AdminActivityHandler {
	return &AdminActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_activity_handler").Logger(),
	}
}

// Register attaches activity log routes to the router group.
func (h *AdminActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AdminActivityHandler) list(c *fiber.Ctx) error {
	var query dto.ActivityLogQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query")
	}

	page, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "activity logs", page)
}
