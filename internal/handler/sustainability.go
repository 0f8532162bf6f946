package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/refdata"
)

type SustainabilityHandler struct {
	clock clock.Clock
}

func NewSustainabilityHandler(clk clock.Clock) *SustainabilityHandler {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &SustainabilityHandler{clock: clk}
}

type CarbonResponse struct {
	Success              bool                   `json:"success"`
	CarbonData           refdata.CarbonEstimate `json:"carbon_data"`
	CalculationTimestamp time.Time              `json:"calculation_timestamp"`
}

func (h *SustainabilityHandler) Carbon(c echo.Context) error {
	var in refdata.CarbonInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "Failed to parse request body: "+err.Error())
	}

	est, err := refdata.EstimateCarbon(in)
	if err != nil {
		return badRequest(c, "Missing required fields: "+err.Error())
	}
	return c.JSON(http.StatusOK, CarbonResponse{
		Success:              true,
		CarbonData:           est,
		CalculationTimestamp: h.clock.Now().UTC(),
	})
}
