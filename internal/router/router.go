package router

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/dcurran1637/Certificate-management/internal/config"
	"github.com/dcurran1637/Certificate-management/internal/handler"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/policy"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	CourseHandler     *handler.CourseHandler
	RecordHandler     *handler.RecordHandler
	ThirdPartyHandler *handler.ThirdPartyHandler
	PeopleHandler     *handler.PeopleHandler
	CalendarHandler   *handler.CalendarHandler
	ReportHandler     *handler.ReportHandler
	ActivityHandler   *handler.AdminActivityHandler
	SeedHandler       *handler.SeedHandler

	// SessionLoader resolves the caller for every /api request.
	SessionLoader fiber.Handler
	// FeedAuth lets calendar clients authenticate with a feed token.
	FeedAuth    fiber.Handler
	AuthLimiter fiber.Handler
	HealthPing  func(ctx context.Context) error
	// Metrics is mounted on /metrics when set.
	Metrics fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics)
	}

	sessionLoader := deps.SessionLoader
	if sessionLoader == nil {
		sessionLoader = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group("/api", sessionLoader, func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.HealthPing))

	// Public and token-authenticated routes come before the session guard.
	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.AuthLimiter)
	}
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
	if deps.CalendarHandler != nil {
		deps.CalendarHandler.RegisterFeed(api, deps.FeedAuth)
	}

	protected := api.Group("", middleware.RequireAuth())

	if deps.CourseHandler != nil {
		deps.CourseHandler.Register(protected)
	}
	if deps.RecordHandler != nil {
		deps.RecordHandler.Register(protected)
	}
	if deps.ThirdPartyHandler != nil {
		deps.ThirdPartyHandler.Register(protected)
	}
	if deps.PeopleHandler != nil {
		deps.PeopleHandler.Register(protected)
	}
	if deps.CalendarHandler != nil {
		deps.CalendarHandler.Register(protected)
	}
	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(protected)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.Register(protected.Group("/activity", middleware.RequireRole(policy.RoleAdmin)))
	}
}
