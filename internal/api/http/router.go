package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Leads          *handlers.LeadsHandler
	Rules          *handlers.RulesHandler
	Routing        *handlers.RoutingHandler
	Teams          *handlers.TeamsHandler
	Users          *handlers.UsersHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	api := app.Group("/api", cfg.AuthMiddleware.Handle)

	leads := api.Group("/leads")
	leads.Post("", cfg.Leads.CreateLead)
	leads.Get("", cfg.Leads.ListLeads)
	leads.Get("/:id", cfg.Leads.GetLead)
	leads.Patch("/:id/stage", cfg.Leads.UpdateStage)
	leads.Patch("/:id/status", cfg.Leads.UpdateStatus)
	leads.Post("/:id/assign", auth.RequireAdmin(), cfg.Leads.AssignLead)
	leads.Post("/:id/notes", cfg.Leads.AddNote)
	leads.Get("/:id/activities", cfg.Leads.ListActivities)

	rules := api.Group("/rules", auth.RequireAdmin())
	rules.Post("", cfg.Rules.CreateRule)
	rules.Get("", cfg.Rules.ListRules)
	rules.Get("/:id", cfg.Rules.GetRule)
	rules.Patch("/:id", cfg.Rules.UpdateRule)
	rules.Delete("/:id", cfg.Rules.DeleteRule)

	api.Post("/routing/run", auth.RequireAdmin(), cfg.Routing.RunRouting)

	teams := api.Group("/teams", auth.RequireAdmin())
	teams.Post("", cfg.Teams.CreateTeam)
	teams.Get("", cfg.Teams.ListTeams)
	teams.Get("/:id", cfg.Teams.GetTeam)
	teams.Patch("/:id", cfg.Teams.UpdateTeam)

	users := api.Group("/users", auth.RequireAdmin())
	users.Post("", cfg.Users.CreateUser)
	users.Get("", cfg.Users.ListUsers)
	users.Get("/:id", cfg.Users.GetUser)
	users.Patch("/:id", cfg.Users.UpdateUser)
}
