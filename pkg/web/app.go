package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

// NewApp builds the fiber application with every route mounted.
func NewApp(handlers *APIHandlers) *fiber.App {
	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	app.Get("/node-types", handlers.GetNodeTypes)

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/publish", handlers.PublishWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)
	w.Get("/:id/executions", handlers.GetExecutions)

	app.Post("/webhooks/:id", handlers.Webhook)

	app.Get("/executions/:id", handlers.GetExecution)

	cr := app.Group("/credentials")
	cr.Get("/", handlers.GetCredentials)
	cr.Post("/", handlers.CreateCredential)
	cr.Get("/:id", handlers.GetCredential)
	cr.Delete("/:id", handlers.DeleteCredential)

	return app
}
