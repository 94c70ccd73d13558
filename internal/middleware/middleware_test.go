package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dcurran1637/Certificate-management/internal/feedtoken"
	"github.com/dcurran1637/Certificate-management/internal/middleware"
	"github.com/dcurran1637/Certificate-management/internal/policy"
)

func whoAmI(c *fiber.Ctx) error {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		return c.JSON(fiber.Map{"anonymous": true})
	}
	return c.JSON(identity)
}

func perform(t *testing.T, app *fiber.App, req *http.Request) *http.Response {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestSessionsBeginLoadEnd(t *testing.T) {
	sessions := middleware.NewSessions(session.New(), zerolog.Nop())

	app := fiber.New()
	app.Use(sessions.Load())
	app.Post("/login", func(c *fiber.Ctx) error {
		return sessions.Begin(c, policy.Identity{UserID: 7, PersonID: 42, Role: policy.RoleManager, Email: "m@example.com"})
	})
	app.Post("/logout", func(c *fiber.Ctx) error {
		return sessions.End(c)
	})
	app.Get("/me", middleware.RequireAuth(), whoAmI)

	resp := perform(t, app, httptest.NewRequest(http.MethodGet, "/me", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = perform(t, app, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	resp = perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var identity policy.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	require.Equal(t, policy.Identity{UserID: 7, PersonID: 42, Role: policy.RoleManager, Email: "m@example.com"}, identity)

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookies[0])
	resp = perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	resp = perform(t, app, req)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestFeedTokenGrantsOwnerIdentity(t *testing.T) {
	signer := feedtoken.NewSigner("secret", time.Hour)
	token, _, err := signer.Issue(42)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/feed", middleware.FeedToken(signer), middleware.RequireAuth(), whoAmI)

	resp := perform(t, app, httptest.NewRequest(http.MethodGet, "/feed?token="+token, nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var identity policy.Identity
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&identity))
	require.Equal(t, uint(42), identity.PersonID)
	require.Equal(t, policy.RoleUser, identity.Role)

	resp = perform(t, app, httptest.NewRequest(http.MethodGet, "/feed?token=garbage", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = perform(t, app, httptest.NewRequest(http.MethodGet, "/feed", nil))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterSetsCommonHeaders(t *testing.T) {
	app := fiber.New()
	middleware.Register(app, middleware.Config{})
	app.Get("/api/ping", func(c *fiber.Ctx) error { return c.SendString("pong") })
	app.Get("/uploads/file.pdf", func(c *fiber.Ctx) error { return c.SendString("file") })

	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	resp := perform(t, app, req)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get(fiber.HeaderCacheControl))
	require.Equal(t, "abc-123", resp.Header.Get("X-Correlation-ID"))

	resp = perform(t, app, httptest.NewRequest(http.MethodGet, "/uploads/file.pdf", nil))
	require.Empty(t, resp.Header.Get(fiber.HeaderCacheControl))
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))
}

func TestRateLimitRejectsBurst(t *testing.T) {
	app := fiber.New()
	app.Post("/login", middleware.RateLimit("auth", 2, time.Minute, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for i := 0; i < 2; i++ {
		resp := perform(t, app, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	}

	resp := perform(t, app, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "too many requests")
}
