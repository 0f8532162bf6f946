package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

// Provider is one upstream flight-offer source. Each variant owns its
// response cache, rate limiter and token state.
type Provider interface {
	Name() string
	EnsureAccessToken(ctx context.Context) (string, error)
	SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error)
}

// AirportSearcher is implemented by providers that expose an airport lookup.
type AirportSearcher interface {
	SearchAirports(ctx context.Context, query string) ([]models.Airport, error)
}

var (
	ErrAuthentication    = errors.New("authentication failed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrTimeout           = errors.New("request timed out")
	ErrUpstream          = errors.New("upstream error")
)

type ProviderError struct {
	Provider   string
	Kind       error
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func NewProviderError(provider string, kind, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     kind,
		Err:      err,
	}
}
