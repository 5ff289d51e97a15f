package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"invoiceflow/internal/http/middleware"
	"invoiceflow/internal/service"
)

const healthTimeout = 2 * time.Second

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// /requests, /preview and /uploads sit behind bearer authentication.
func RegisterRoutes(app *fiber.App, db *sql.DB, invoices service.InvoiceService, auth service.AuthService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/register", Register(auth))
	app.Post("/login", Login(auth))

	requireAuth := middleware.Auth(auth)

	requests := app.Group("/requests", requireAuth)
	requests.Post("/", SubmitRequest(invoices))
	requests.Get("/", ListRequests(invoices))
	requests.Post("/approve/:id", ApproveRequest(invoices))
	requests.Get("/:id", GetRequest(invoices))

	app.Get("/preview/:filename", requireAuth, PreviewArtifact(invoices))
	app.Get("/uploads/:filename", requireAuth, DownloadArtifact(invoices))
}

// HealthCheck reports healthy only when the database answers a ping.
// @Summary  Readiness check
// @Tags     health
// @Produce  json
// @Success  200 {object} map[string]string
// @Failure  503 {object} errorPayload
// @Router   /health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
