package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-contact-relay/internal/config"
	"github.com/noah-isme/gema-contact-relay/internal/handler"
	"github.com/noah-isme/gema-contact-relay/internal/health"
	"github.com/noah-isme/gema-contact-relay/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ContactHandler *handler.ContactHandler
	HealthState    *health.State
	// DisableMetrics hides the Prometheus scrape route.
	DisableMetrics bool
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/health", handler.HealthCheck(deps.HealthState))

	if !deps.DisableMetrics {
		app.Get("/metrics", observability.MetricsHandler())
	}

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/test", handler.APITest())

	if deps.ContactHandler != nil {
		deps.ContactHandler.Register(api.Group("/contact"))
	}
}
