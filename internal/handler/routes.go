package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hf-dev-proxy/internal/config"
	"hf-dev-proxy/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Anything
// not matched here falls through to the static file responder rooted at the
// configured directory.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	// The bare prefix forms are registered explicitly so a missing model
	// segment gets a 400 instead of falling through to static serving.
	e.POST("/api/hf", proxy.Handle)
	e.POST("/api/hf/", proxy.Handle)
	e.POST("/api/hf/:model", proxy.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.Static("/", cfg.Static.Root)
}
