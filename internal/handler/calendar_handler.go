package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/service"
	"github.com/dcurran1637/Certificate-management/internal/utils"
)

// CalendarHandler serves iCalendar feeds and exports.
type CalendarHandler struct {
	service service.CalendarService
	baseURL string
	logger  zerolog.Logger
}

// NewCalendarHandler constructs the handler. baseURL prefixes subscription
// links; when empty the request's own scheme and host are used.
func NewCalendarHandler(service service.CalendarService, baseURL string, logger zerolog.Logger) *CalendarHandler {
	return &CalendarHandler{
		service: service,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:  logger.With().Str("component", "calendar_handler").Logger(),
	}
}

// RegisterFeed attaches the subscription feed, which also accepts a signed
// feed token in place of a session.
func (h *CalendarHandler) RegisterFeed(router fiber.Router, feedAuth fiber.Handler) {
	if feedAuth == nil {
		feedAuth = func(c *fiber.Ctx) error { return c.Next() }
	}
	router.Get("/person/:id/calendar.ics", feedAuth, middleware.RequireAuth(), h.feed)
}

// Register attaches the session-only calendar endpoints.
func (h *CalendarHandler) Register(router fiber.Router) {
	router.Get("/person/:id/calendar-link", h.link)
	router.Get("/person/:id/export.ics", h.export)
	router.Get("/thirdparty/:id/ics", h.certification)
}

func (h *CalendarHandler) feed(c *fiber.Ctx) error {
	return h.personCalendar(c, service.FeedSubscription)
}

func (h *CalendarHandler) export(c *fiber.Ctx) error {
	return h.personCalendar(c, service.FeedExport)
}

func (h *CalendarHandler) personCalendar(c *fiber.Ctx, kind service.FeedKind) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, err := h.service.PersonFeed(c.UserContext(), middleware.IdentityFrom(c), id, kind)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendDocument(c, calendarContentType, document.FileName, document.Body)
}

func (h *CalendarHandler) certification(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, err := h.service.Certification(c.UserContext(), middleware.IdentityFrom(c), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendDocument(c, calendarContentType, document.FileName, document.Body)
}

func (h *CalendarHandler) link(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	baseURL := h.baseURL
	if baseURL == "" {
		baseURL = c.BaseURL()
	}

	link, err := h.service.FeedLink(c.UserContext(), middleware.IdentityFrom(c), id, baseURL)
	if err != nil {
		return handleError(c, h.logger, err)
	}
	return utils.SendSuccess(c, "calendar link", link)
}
