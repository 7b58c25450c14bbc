package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/tradein-service/internal/api/http/handlers"
	"github.com/spec-kit/tradein-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	TradeIns       *handlers.TradeInHandler
	Admin          *handlers.AdminTradeInHandler
	AuthMiddleware *auth.AuthMiddleware
	Registry       *prometheus.Registry
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	owner := app.Group("/trade-in", cfg.AuthMiddleware.Handle, auth.RequireUser())
	owner.Post("/", cfg.TradeIns.Create)
	owner.Get("/my", cfg.TradeIns.ListMine)
	owner.Get("/:id", cfg.TradeIns.Get)
	owner.Put("/:id/upload-images", cfg.TradeIns.UploadImages)
	owner.Put("/:id/bank-details", cfg.TradeIns.UpdateBankDetails)
	owner.Put("/:id/cancel", cfg.TradeIns.Cancel)

	admin := app.Group("/admin/trade-in", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Get("/", cfg.Admin.List)
	admin.Get("/:id", cfg.Admin.Get)
	admin.Put("/:id/status", cfg.Admin.UpdateStatus)
	admin.Put("/:id/inspection", cfg.Admin.RecordInspection)
	admin.Get("/:id/history", cfg.Admin.History)
	admin.Get("/:id/images", cfg.Admin.Images)
}
