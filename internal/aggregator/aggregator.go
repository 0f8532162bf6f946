package aggregator

import (
	"context"
	"errors"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/filter"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/refdata"
	"github.com/dharmasatrya/flightwatch/internal/store"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
	"github.com/dharmasatrya/flightwatch/pkg/metrics"
)

type Config struct {
	// MaxRetries re-asks the same provider after a timeout or upstream
	// error before moving on. Zero means straight to the next provider.
	MaxRetries   int             `yaml:"max_retries"`
	RetryDelays  []time.Duration `yaml:"retry_delays"`
	StoreTimeout time.Duration   `yaml:"store_timeout"`
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:   0,
		RetryDelays:  []time.Duration{100 * time.Millisecond, 200 * time.Millisecond},
		StoreTimeout: 2 * time.Second,
	}
}

type Deps struct {
	Store   store.FlightStore
	Clock   clock.Clock
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// Orchestrator asks providers in priority order and answers with the first
// non-empty result set.
type Orchestrator struct {
	providers []providers.Provider
	config    Config
	store     store.FlightStore
	clock     clock.Clock
	log       logger.Logger
	metrics   *metrics.Metrics
}

type Result struct {
	Flights          []models.Flight
	Provider         string
	ProvidersQueried int
	Failures         []ProviderFailure
}

func NewOrchestrator(providerList []providers.Provider, config Config, deps Deps) *Orchestrator {
	if deps.Store == nil {
		deps.Store = store.NewNoopStore()
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if config.StoreTimeout <= 0 {
		config.StoreTimeout = DefaultConfig().StoreTimeout
	}
	return &Orchestrator{
		providers: providerList,
		config:    config,
		store:     deps.Store,
		clock:     deps.Clock,
		log:       deps.Logger,
		metrics:   deps.Metrics,
	}
}

func (o *Orchestrator) Providers() []string {
	names := make([]string, len(o.providers))
	for i, p := range o.providers {
		names[i] = p.Name()
	}
	return names
}

func (o *Orchestrator) Search(ctx context.Context, params models.FlightSearchParams) (*Result, error) {
	result := &Result{}

	for _, p := range o.providers {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, ProviderFailure{Provider: p.Name(), Err: err})
			continue
		}
		result.ProvidersQueried++

		flights, err := o.searchWithRetry(ctx, p, params)
		if err == nil && len(flights) == 0 {
			err = ErrEmptyResult
		}
		if err == nil {
			flights = filter.Apply(Enrich(flights), params)
			if len(flights) == 0 {
				err = errNoneMatched
			}
		}
		if err != nil {
			o.log.Warn("provider search failed",
				"provider", p.Name(),
				"origin", params.Origin,
				"destination", params.Destination,
				"departure_date", params.DepartureDate,
				"error", err,
			)
			result.Failures = append(result.Failures, ProviderFailure{Provider: p.Name(), Err: err})
			continue
		}

		o.metrics.SearchAnswered(p.Name())
		result.Provider = p.Name()
		result.Flights = flights
		o.persist(ctx, params, result.Flights)
		return result, nil
	}

	return result, &AggregateProviderFailure{Failures: result.Failures}
}

// SearchFlights is Search without the bookkeeping.
func (o *Orchestrator) SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error) {
	res, err := o.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return res.Flights, nil
}

// Cached returns the last persisted answer for params, if the store has one.
func (o *Orchestrator) Cached(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, bool) {
	ctx, cancel := context.WithTimeout(ctx, o.config.StoreTimeout)
	defer cancel()

	flights, ok, err := o.store.GetFlights(ctx, store.SearchKey(params))
	if err != nil {
		o.log.Warn("flight store read failed", "error", err)
		return nil, false
	}
	return flights, ok
}

func (o *Orchestrator) persist(ctx context.Context, params models.FlightSearchParams, flights []models.Flight) {
	ctx, cancel := context.WithTimeout(ctx, o.config.StoreTimeout)
	defer cancel()

	if err := o.store.SaveFlights(ctx, store.SearchKey(params), flights); err != nil {
		o.log.Warn("flight store write failed", "origin", params.Origin, "destination", params.Destination, "error", err)
	}
}

func (o *Orchestrator) searchWithRetry(ctx context.Context, provider providers.Provider, params models.FlightSearchParams) ([]models.Flight, error) {
	var lastErr error

	for attempt := 0; attempt <= o.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if !retryable(lastErr) {
				break
			}
			delay := time.Duration(0)
			if n := len(o.config.RetryDelays); n > 0 {
				delay = o.config.RetryDelays[min(attempt-1, n-1)]
			}

			select {
			case <-o.clock.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		flights, err := provider.SearchFlights(ctx, params)
		if err == nil {
			return flights, nil
		}

		lastErr = err
		if attempt < o.config.MaxRetries {
			o.log.Debug("provider attempt failed", "provider", provider.Name(), "attempt", attempt+1, "error", err)
		}
	}

	return nil, lastErr
}

func retryable(err error) bool {
	return errors.Is(err, providers.ErrTimeout) || errors.Is(err, providers.ErrUpstream)
}

// SearchAirports asks the first provider with an airport lookup and falls
// back to the built-in reference table when it fails or finds nothing.
func (o *Orchestrator) SearchAirports(ctx context.Context, query string) []models.Airport {
	for _, p := range o.providers {
		searcher, ok := p.(providers.AirportSearcher)
		if !ok {
			continue
		}
		airports, err := searcher.SearchAirports(ctx, query)
		if err != nil {
			o.log.Warn("airport search failed", "provider", p.Name(), "query", query, "error", err)
			break
		}
		if len(airports) > 0 {
			return airports
		}
		break
	}
	return refdata.SearchAirports(query)
}
