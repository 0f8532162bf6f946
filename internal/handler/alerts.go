package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/alerts"
	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/models"
)

type AlertsHandler struct {
	store alerts.Store
	hub   *alerts.Hub
	clock clock.Clock
}

// NewAlertsHandler serves stored alerts and the live feed. Either
// collaborator may be nil; its route then answers 503.
func NewAlertsHandler(store alerts.Store, hub *alerts.Hub, clk clock.Clock) *AlertsHandler {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &AlertsHandler{store: store, hub: hub, clock: clk}
}

func (h *AlertsHandler) List(c echo.Context) error {
	if h.store == nil {
		return unavailable(c, "alert store is not configured")
	}
	userID := c.QueryParam("userId")
	if userID == "" {
		return badRequest(c, "userId is required")
	}

	list, err := h.store.ListByUser(c.Request().Context(), userID, h.clock.Now())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "alert_store_error",
			Message: err.Error(),
			Code:    http.StatusInternalServerError,
		})
	}
	if list == nil {
		list = []models.PriceAlert{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"alerts":  list,
	})
}

func (h *AlertsHandler) Stream(c echo.Context) error {
	if h.hub == nil {
		return unavailable(c, "alert stream is disabled")
	}
	h.hub.HandleWebSocket(c.Response(), c.Request())
	return nil
}

func unavailable(c echo.Context, msg string) error {
	return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
		Error:   "unavailable",
		Message: msg,
		Code:    http.StatusServiceUnavailable,
	})
}
