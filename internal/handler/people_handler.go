package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// PeopleHandler exposes staff listings, person summaries and the caller's own
// training view.
type PeopleHandler struct {
	service service.PeopleService
	logger  zerolog.Logger
}

// NewPeopleHandler constructs the handler.
func NewPeopleHandler(service service.PeopleService, logger zerolog.Logger) *PeopleHandler {
	return &PeopleHandler{
		service: service,
		logger:  logger.With().Str("component", "people_handler").Logger(),
	}
}

// Register attaches people endpoints to the API group.
func (h *PeopleHandler) Register(router fiber.Router) {
	router.Get("/people", h.list)
	router.Put("/people/:id/role", h.updateRole)
	router.Get("/person/:id/summary", h.summary)
	router.Get("/my", h.my)
}

func (h *PeopleHandler) list(c *fiber.Ctx) error {
	people, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "people retrieved", people)
}

func (h *PeopleHandler) updateRole(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	updated, err := h.service.UpdateRole(c.UserContext(), middleware.IdentityFrom(c), id, payload)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "role updated", updated)
}

func (h *PeopleHandler) summary(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	summary, err := h.service.Summary(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "person summary", summary)
}

func (h *PeopleHandler) my(c *fiber.Ctx) error {
	personID, err := parseQueryUint(c, "person_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "missing or invalid person_id")
	}

	training, err := h.service.MyTraining(c.UserContext(), middleware.IdentityFrom(c), personID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "my training", training)
}
