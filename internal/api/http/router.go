package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Protocols      *handlers.ProtocolsHandler
	AdminClients   *handlers.AdminClientsHandler
	AdminDevices   *handlers.AdminDevicesHandler
	AdminProtocols *handlers.AdminProtocolsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	// Ticket workflow used by technicians.
	protocols := app.Group("/protocols", cfg.AuthMiddleware.Handle)
	protocols.Get("/new", cfg.Protocols.NewForm)
	protocols.Post("/", cfg.Protocols.Create)
	protocols.Get("/:id", cfg.Protocols.Detail)

	// Management console over all record kinds.
	adminGroup := app.Group("/admin", cfg.AuthMiddleware.Handle)
	adminGroup.Get("/site", cfg.AdminProtocols.Site)

	clients := adminGroup.Group("/clients")
	clients.Get("/", cfg.AdminClients.List)
	clients.Post("/", cfg.AdminClients.Create)
	clients.Get("/:id", cfg.AdminClients.Get)
	clients.Put("/:id", cfg.AdminClients.Update)
	clients.Delete("/:id", cfg.AdminClients.Delete)

	devices := adminGroup.Group("/devices")
	devices.Get("/", cfg.AdminDevices.List)
	devices.Post("/", cfg.AdminDevices.Create)
	devices.Get("/:id", cfg.AdminDevices.Get)
	devices.Put("/:id", cfg.AdminDevices.Update)
	devices.Delete("/:id", cfg.AdminDevices.Delete)

	adminProtocols := adminGroup.Group("/protocols")
	adminProtocols.Get("/form-schema", cfg.AdminProtocols.FormSchema)
	adminProtocols.Get("/", cfg.AdminProtocols.List)
	adminProtocols.Post("/", cfg.AdminProtocols.Create)
	adminProtocols.Get("/:id", cfg.AdminProtocols.Get)
	adminProtocols.Put("/:id", cfg.AdminProtocols.Update)
	adminProtocols.Delete("/:id", cfg.AdminProtocols.Delete)
	adminProtocols.Get("/:id/updates", cfg.AdminProtocols.ListUpdates)
	adminProtocols.Post("/:id/updates", cfg.AdminProtocols.AppendUpdate)
}
