package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// RecordHandler wires internal training record routes.
type RecordHandler struct {
	service service.RecordService
	logger  zerolog.Logger
}

// NewRecordHandler constructs the handler.
func NewRecordHandler(service service.RecordService, logger zerolog.Logger) *RecordHandler {
	return &RecordHandler{
		service: service,
		logger:  logger.With().Str("component", "record_handler").Logger(),
	}
}

// Register attaches record endpoints to the API group.
func (h *RecordHandler) Register(router fiber.Router) {
	router.Get("/records", h.list)
	router.Get("/records/:id", h.get)
	router.Post("/records", h.create)
	router.Put("/records/:id", h.update)
	router.Delete("/records/:id", h.delete)
	router.Get("/expiring", h.expiring)
}

func (h *RecordHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), c.Query("q"), c.Query("status"))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "records retrieved", items)
}

func (h *RecordHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	record, err := h.service.Get(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "record retrieved", record)
}

func (h *RecordHandler) create(c *fiber.Ctx) error {
	var payload dto.RecordCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload, optionalFile(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "record created", record)
}

func (h *RecordHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.RecordUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	record, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload, optionalFile(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "record updated", record)
}

func (h *RecordHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "record deleted", fiber.Map{"training_record_id": id})
}

func (h *RecordHandler) expiring(c *fiber.Ctx) error {
	items, err := h.service.Expiring(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "expiring certificates", items)
}
