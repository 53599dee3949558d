package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// NotificationPath is where drive push channels deliver.
const NotificationPath = "/api/drive-activity/notification"

// NewApp wires the routes onto a fiber app.
func NewApp(handlers *Handlers) *fiber.App {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	app.Post(NotificationPath, handlers.Notification)

	w := app.Group("/workflows")
	w.Get("/resume", handlers.Resume)
	w.Post("/resume", handlers.Resume)
	w.Get("/:id/resume", handlers.Resume)
	w.Post("/:id/resume", handlers.Resume)

	return app
}
