package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/dto"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

const reportFileName = "training-report.csv"

// ReportHandler exposes the dashboard stats and the expiry report.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches reporting endpoints to the API group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/stats", h.stats)
	router.Get("/reports", h.report)
	router.Get("/reports/export.csv", h.exportCSV)
}

func (h *ReportHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), middleware.IdentityFrom(c))
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "dashboard stats", stats)
}

func (h *ReportHandler) report(c *fiber.Ctx) error {
	query, err := reportQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rows, err := h.service.Report(c.UserContext(), middleware.IdentityFrom(c), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "report generated", rows)
}

func (h *ReportHandler) exportCSV(c *fiber.Ctx) error {
	query, err := reportQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload, err := h.service.ExportCSV(c.UserContext(), middleware.IdentityFrom(c), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendDocument(c, csvContentType, reportFileName, payload)
}

func reportQuery(c *fiber.Ctx) (dto.ReportQuery, error) {
	personID, err := parseQueryUint(c, "person_id")
	if err != nil {
		return dto.ReportQuery{}, err
	}
	return dto.ReportQuery{
		Type:     strings.TrimSpace(c.Query("type")),
		PersonID: personID,
	}, nil
}
