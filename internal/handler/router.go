package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dharmasatrya/flightwatch/internal/alerts"
	"github.com/dharmasatrya/flightwatch/internal/monitor"
)

type Routes struct {
	Search         *SearchHandler
	Monitoring     *MonitoringHandler
	Alerts         *AlertsHandler
	Profiles       *ProfileHandler
	Sustainability *SustainabilityHandler
	Health         *HealthHandler
	// Gatherer backs /metrics. Nil leaves the route out.
	Gatherer prometheus.Gatherer
	// APIMiddleware wraps /api/v1 only, leaving /health and /metrics open.
	APIMiddleware []echo.MiddlewareFunc
}

func Register(e *echo.Echo, r Routes) {
	api := e.Group("/api/v1", r.APIMiddleware...)
	api.POST("/flights/search", r.Search.Search)
	api.GET("/airports", r.Search.Airports)
	api.POST("/price-monitoring", r.Monitoring.Handle)
	api.GET("/alerts", r.Alerts.List)
	api.GET("/alerts/stream", r.Alerts.Stream)
	api.GET("/users/:id/profile", r.Profiles.Get)
	api.PUT("/users/:id/profile", r.Profiles.Put)
	api.DELETE("/users/:id/profile", r.Profiles.Delete)
	api.POST("/sustainability/carbon", r.Sustainability.Carbon)

	e.GET("/health", r.Health.Health)
	if r.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{})))
	}
}

type HealthHandler struct {
	searcher Searcher
	monitor  *monitor.Monitor
	hub      *alerts.Hub
}

func NewHealthHandler(searcher Searcher, m *monitor.Monitor, hub *alerts.Hub) *HealthHandler {
	return &HealthHandler{searcher: searcher, monitor: m, hub: hub}
}

func (h *HealthHandler) Health(c echo.Context) error {
	body := map[string]interface{}{
		"status":    "ok",
		"providers": h.searcher.Providers(),
	}
	if h.monitor != nil {
		body["active_monitors"] = len(h.monitor.ListActive())
	}
	if h.hub != nil {
		body["stream_clients"] = h.hub.ClientCount()
	}
	return c.JSON(http.StatusOK, body)
}
