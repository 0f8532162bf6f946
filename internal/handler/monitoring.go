package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/monitor"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
)

const (
	ActionStart         = "start"
	ActionStop          = "stop"
	ActionCurrentPrice  = "current_price"
	ActionTrendAnalysis = "trend_analysis"
	ActionListActive    = "list_active"
)

type MonitoringRequest struct {
	Action       string                     `json:"action"`
	SearchParams *models.FlightSearchParams `json:"search_params,omitempty"`
	TargetPrice  float64                    `json:"target_price,omitempty"`
	UserID       string                     `json:"user_id,omitempty"`
	MonitorID    string                     `json:"monitor_id,omitempty"`
}

type MonitoringHandler struct {
	monitor *monitor.Monitor
	onAlert monitor.AlertFunc
	log     logger.Logger
}

// NewMonitoringHandler wires the monitor control actions. onAlert receives
// every alert raised by sessions started through this handler.
func NewMonitoringHandler(m *monitor.Monitor, onAlert monitor.AlertFunc, log logger.Logger) *MonitoringHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &MonitoringHandler{monitor: m, onAlert: onAlert, log: log}
}

func (h *MonitoringHandler) Handle(c echo.Context) error {
	var req MonitoringRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	switch req.Action {
	case ActionStart:
		return h.start(c, req)
	case ActionStop:
		if req.MonitorID == "" {
			return badRequest(c, "monitor_id is required")
		}
		h.monitor.StopMonitoring(req.MonitorID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"monitor_id": req.MonitorID,
			"status":     "stopped",
		})
	case ActionCurrentPrice:
		return h.currentPrice(c, req)
	case ActionTrendAnalysis:
		if req.MonitorID == "" {
			return badRequest(c, "monitor_id is required")
		}
		trend := h.monitor.GetPriceTrend(req.MonitorID)
		return c.JSON(http.StatusOK, map[string]interface{}{
			"monitor_id":        req.MonitorID,
			"trend":             trend.Trend,
			"change_percentage": trend.ChangePercentage,
			"prediction":        trend.Prediction,
			"history":           h.monitor.History(req.MonitorID),
		})
	case ActionListActive:
		return c.JSON(http.StatusOK, map[string]interface{}{
			"active_monitors": h.monitor.ListActive(),
		})
	default:
		return badRequest(c, "unknown action "+req.Action)
	}
}

func (h *MonitoringHandler) start(c echo.Context, req MonitoringRequest) error {
	if req.SearchParams == nil {
		return badRequest(c, "search_params is required")
	}
	if req.TargetPrice <= 0 {
		return badRequest(c, "target_price must be positive")
	}
	if req.UserID == "" {
		return badRequest(c, "user_id is required")
	}

	id, err := h.monitor.StartMonitoring(*req.SearchParams, req.TargetPrice, req.UserID, h.onAlert)
	if err != nil {
		var verr models.ValidationError
		if errors.As(err, &verr) {
			return validationError(c, err)
		}
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "monitor_unavailable",
			Message: err.Error(),
			Code:    http.StatusServiceUnavailable,
		})
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"monitor_id": id,
		"status":     "active",
	})
}

// currentPrice answers null when no provider has a price.
func (h *MonitoringHandler) currentPrice(c echo.Context, req MonitoringRequest) error {
	if req.SearchParams == nil {
		return badRequest(c, "search_params is required")
	}
	params := *req.SearchParams
	if err := params.Validate(); err != nil {
		return validationError(c, err)
	}

	var current *float64
	price, err := h.monitor.GetCurrentPrice(c.Request().Context(), params)
	switch {
	case err == nil:
		current = &price
	case errors.Is(err, monitor.ErrNoDataAvailable):
	default:
		h.log.Warn("current price lookup failed", "origin", params.Origin, "destination", params.Destination, "error", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"monitor_id":    monitor.MonitorID(params),
		"current_price": current,
	})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: msg,
		Code:    http.StatusBadRequest,
	})
}
