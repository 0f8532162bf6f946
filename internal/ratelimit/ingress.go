package ratelimit

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

type IngressConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

func DefaultIngressConfig() IngressConfig {
	return IngressConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
	}
}

// Ingress throttles inbound API calls per client IP with a token bucket.
// It is independent of the provider windows above.
func Ingress(cfg IngressConfig) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RequestsPerSecond),
		Burst:     cfg.BurstSize,
		ExpiresIn: 3 * time.Minute,
	})

	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error:   "rate_limited",
				Message: "too many requests",
				Code:    http.StatusTooManyRequests,
			})
		},
	})
}
