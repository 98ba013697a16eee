package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-reports/internal/api/http/handlers"
	"github.com/spec-kit/civic-reports/internal/auth"
	"github.com/spec-kit/civic-reports/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	userGroup := app.Group("/user")
	userGroup.Post("/signup", cfg.Users.Signup)
	userGroup.Post("/signin", cfg.Users.Signin)

	citizen := app.Group("/citizen", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	citizen.Post("/submit/:userId", cfg.Reports.Submit)
	citizen.Get("/getForms", cfg.Reports.List)
	citizen.Get("/userForms/:userId", auth.RequireSelfOrRole("userId", domain.RoleCouncil), cfg.Reports.ListForUser)

	council := auth.RequireRole(domain.RoleCouncil)
	citizen.Put("/editForm/:id", council, cfg.Reports.UpdateStatus)
	citizen.Delete("/deleteForm/:id", council, cfg.Reports.Delete)
	citizen.Get("/forms/:id/history", council, cfg.Reports.History)
}
