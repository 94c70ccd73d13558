package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// ThirdPartyHandler wires externally issued certification routes.
type ThirdPartyHandler struct {
	service service.ThirdPartyService
	logger  zerolog.Logger
}

// NewThirdPartyHandler constructs the handler.
func NewThirdPartyHandler(service service.ThirdPartyService, logger zerolog.Logger) *ThirdPartyHandler {
	return &ThirdPartyHandler{
		service: service,
		logger:  logger.With().Str("component", "third_party_handler").Logger(),
	}
}

// Register attaches third-party certification endpoints to the API group.
func (h *ThirdPartyHandler) Register(router fiber.Router) {
	router.Get("/thirdparty", h.list)
	router.Post("/thirdparty", h.create)
	router.Put("/thirdparty/:id", h.update)
	router.Delete("/thirdparty/:id", h.delete)
}

func (h *ThirdPartyHandler) list(c *fiber.Ctx) error {
	personID, err := parseQueryUint(c, "person_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "missing or invalid person_id")
	}

	certs, err := h.service.List(c.UserContext(), middleware.IdentityFrom(c), personID)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "certifications retrieved", certs)
}

func (h *ThirdPartyHandler) create(c *fiber.Ctx) error {
	var payload dto.ThirdPartyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	cert, err := h.service.Create(c.UserContext(), middleware.IdentityFrom(c), payload, optionalFile(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "certification created", cert)
}

func (h *ThirdPartyHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ThirdPartyUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	cert, err := h.service.Update(c.UserContext(), middleware.IdentityFrom(c), id, payload, optionalFile(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "certification updated", cert)
}

func (h *ThirdPartyHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), middleware.IdentityFrom(c), id); err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "certification deleted", fiber.Map{"cert_id": id})
}
