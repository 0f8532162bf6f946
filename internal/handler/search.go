package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/filter"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
)

// Searcher is the part of the orchestrator the HTTP layer uses.
type Searcher interface {
	Search(ctx context.Context, params models.FlightSearchParams) (*aggregator.Result, error)
	Cached(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, bool)
	SearchAirports(ctx context.Context, query string) []models.Airport
	Providers() []string
}

const storeProvider = "store"

type SearchHandler struct {
	searcher Searcher
	log      logger.Logger
}

func NewSearchHandler(searcher Searcher, log logger.Logger) *SearchHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &SearchHandler{
		searcher: searcher,
		log:      log,
	}
}

func (h *SearchHandler) Search(c echo.Context) error {
	startTime := time.Now()
	ctx := c.Request().Context()

	var req models.FlightSearchParams
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
	}

	if err := req.Validate(); err != nil {
		return validationError(c, err)
	}

	result, err := h.searcher.Search(ctx, req)
	if err != nil {
		var agg *aggregator.AggregateProviderFailure
		if !errors.As(err, &agg) {
			return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "search_error",
				Message: "Failed to search flights: " + err.Error(),
				Code:    http.StatusInternalServerError,
			})
		}

		queried := len(agg.Failures)
		if result != nil {
			queried = result.ProvidersQueried
		}

		if flights, ok := h.searcher.Cached(ctx, req); ok && len(flights) > 0 {
			h.log.Warn("serving stored flights after provider failure",
				"origin", req.Origin, "destination", req.Destination, "error", err)
			filtered := filter.Apply(flights, req)
			return c.JSON(http.StatusOK, models.SearchResponse{
				SearchCriteria: req,
				Metadata: models.SearchMetadata{
					TotalResults:     len(filtered),
					Provider:         storeProvider,
					ProvidersQueried: queried,
					ProvidersFailed:  len(agg.Failures),
					FailedProviders:  failedProviders(agg.Failures),
					SearchTimeMs:     time.Since(startTime).Milliseconds(),
				},
				Flights: filtered,
			})
		}

		status, code := http.StatusBadGateway, "providers_degraded"
		if agg.Misconfigured() {
			status, code = http.StatusServiceUnavailable, "providers_misconfigured"
		}
		return c.JSON(status, models.ErrorResponse{
			Error:   code,
			Message: "Failed to search flights: " + strings.Join(failedProviders(agg.Failures), ", ") + " unavailable",
			Code:    status,
			Causes:  agg.Messages(),
		})
	}

	return c.JSON(http.StatusOK, models.SearchResponse{
		SearchCriteria: req,
		Metadata: models.SearchMetadata{
			TotalResults:     len(result.Flights),
			Provider:         result.Provider,
			ProvidersQueried: result.ProvidersQueried,
			ProvidersFailed:  len(result.Failures),
			FailedProviders:  failedProviders(result.Failures),
			SearchTimeMs:     time.Since(startTime).Milliseconds(),
		},
		Flights: result.Flights,
	})
}

func (h *SearchHandler) Airports(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if len(query) < 2 {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "q must be at least 2 characters",
			Code:    http.StatusBadRequest,
		})
	}

	airports := h.searcher.SearchAirports(c.Request().Context(), query)
	if airports == nil {
		airports = []models.Airport{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"airports": airports,
	})
}

func validationError(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

func failedProviders(failures []aggregator.ProviderFailure) []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		if !seen[f.Provider] {
			seen[f.Provider] = true
			names = append(names, f.Provider)
		}
	}
	return names
}
