package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "dealview/api/v1"
	"dealview/internal/config"
	"dealview/internal/http"
)

// publicCORSConfig is the permissive CORS setup shared by the public
// tracking endpoints: the viewer page embeds the tracker on arbitrary
// customer domains.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// MountAppRoutes mounts all application routes using cartridge's route API
func MountAppRoutes(srv *cartridge.Server) {
	cfg := config.GetConfig()

	// Rate limiting only applies in production; in development and test it
	// would interfere with seeding and test traffic.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70/min per IP handles legitimate viewer traffic while capping abuse
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Analytics reads are heavier than event writes, so they get a lower cap
	analyticsRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(30),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Public tracking config: CORS runs first so rejected requests still
	// carry CORS headers.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:       true,
		WriteConcurrency: false,
		CustomMiddleware: []fiber.Handler{publicRateLimiter},
		CORSConfig:       publicCORSConfig,
	}

	// Analytics reads are same-origin dashboard calls; no CORS needed.
	analyticsAPIConfig := &cartridge.RouteConfig{
		CustomMiddleware:   []fiber.Handler{analyticsRateLimiter},
		EnableSecFetchSite: cartridge.Bool(false),
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC TRACKING API ===
	srv.Post("/x/api/v1/track", v1.TrackEventPublicAPIHandler, publicAPIConfig)
	srv.Options("/x/api/v1/track", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === ANALYTICS API ===
	srv.Get("/x/api/v1/proposals/:id/analytics", v1.GetProposalAnalyticsHandler, analyticsAPIConfig)
	srv.Get("/x/api/v1/workspaces/:id/analytics", v1.GetWorkspaceAnalyticsHandler, analyticsAPIConfig)
}
