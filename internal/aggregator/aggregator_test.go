package aggregator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/store"
)

type stubProvider struct {
	name    string
	flights []models.Flight
	err     error
	calls   atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) EnsureAccessToken(ctx context.Context) (string, error) { return "t", nil }

func (s *stubProvider) SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error) {
	s.calls.Add(1)
	return s.flights, s.err
}

type stubAirports struct {
	stubProvider
	airports []models.Airport
	err      error
}

func (s *stubAirports) SearchAirports(ctx context.Context, query string) ([]models.Airport, error) {
	return s.airports, s.err
}

func direct(id string, total, perPax float64, badge string) models.Flight {
	return models.Flight{
		ID:                  id,
		Segments:            []models.Segment{{Airline: models.Airline{Code: "KL"}}},
		Price:               models.Price{Total: total},
		CarbonFootprint:     models.CarbonFootprint{PerPassenger: perPax},
		SustainabilityBadge: badge,
	}
}

var params = models.FlightSearchParams{
	Origin:        "JFK",
	Destination:   "LAX",
	DepartureDate: "2025-07-15",
	Adults:        1,
	SortBy:        "price",
}

func TestFallbackToSecondary(t *testing.T) {
	primary := &stubProvider{name: "primary", err: providers.NewProviderError("primary", providers.ErrUpstream, errors.New("boom"))}
	secondary := &stubProvider{name: "secondary", flights: []models.Flight{
		direct("b", 410, 350, ""),
		direct("a", 320, 150, "eco_champion"),
	}}

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	res, err := o.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	if len(res.Flights) != 2 {
		t.Fatalf("len(Flights) = %d, want 2", len(res.Flights))
	}
	if res.Provider != "secondary" {
		t.Errorf("Provider = %q", res.Provider)
	}
	if len(res.Failures) != 1 || res.Failures[0].Provider != "primary" {
		t.Errorf("Failures = %+v, want exactly one primary failure", res.Failures)
	}
	if res.Flights[0].ID != "a" {
		t.Errorf("first flight = %s, want cheapest", res.Flights[0].ID)
	}
}

func TestEmptyPrimaryCountsAsFailure(t *testing.T) {
	primary := &stubProvider{name: "primary"}
	secondary := &stubProvider{name: "secondary", flights: []models.Flight{direct("a", 320, 150, "")}}

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	res, err := o.Search(context.Background(), params)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, ErrEmptyResult) {
		t.Errorf("Failures = %+v", res.Failures)
	}
}

func TestFilteredOutPrimaryFallsBack(t *testing.T) {
	primary := &stubProvider{name: "primary", flights: []models.Flight{
		direct("p1", 900, 150, ""),
		direct("p2", 950, 150, ""),
	}}
	secondary := &stubProvider{name: "secondary", flights: []models.Flight{direct("s1", 300, 150, "")}}

	maxPrice := 500.0
	capped := params
	capped.MaxPrice = &maxPrice

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	res, err := o.Search(context.Background(), capped)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if secondary.calls.Load() != 1 {
		t.Fatalf("secondary calls = %d, want 1", secondary.calls.Load())
	}
	if res.Provider != "secondary" || len(res.Flights) != 1 || res.Flights[0].ID != "s1" {
		t.Errorf("Search() = provider %q flights %+v", res.Provider, res.Flights)
	}
	if len(res.Failures) != 1 || !errors.Is(res.Failures[0].Err, ErrEmptyResult) {
		t.Errorf("Failures = %+v, want one empty-result failure for primary", res.Failures)
	}
}

func TestAllFilteredOutIsAggregateFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", flights: []models.Flight{direct("p1", 900, 150, "")}}
	secondary := &stubProvider{name: "secondary", flights: []models.Flight{direct("s1", 800, 150, "")}}

	maxPrice := 500.0
	capped := params
	capped.MaxPrice = &maxPrice

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	_, err := o.Search(context.Background(), capped)

	var agg *AggregateProviderFailure
	if !errors.As(err, &agg) {
		t.Fatalf("Search() error = %v, want AggregateProviderFailure", err)
	}
	if len(agg.Failures) != 2 || !strings.Contains(err.Error(), "no flights matched filters") {
		t.Errorf("error = %v", err)
	}
}

func TestPrimarySuccessSkipsSecondary(t *testing.T) {
	primary := &stubProvider{name: "primary", flights: []models.Flight{direct("a", 320, 150, "")}}
	secondary := &stubProvider{name: "secondary", flights: []models.Flight{direct("b", 300, 150, "")}}

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	if _, err := o.Search(context.Background(), params); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if secondary.calls.Load() != 0 {
		t.Error("secondary queried after primary answered")
	}
}

func TestAggregateFailure(t *testing.T) {
	primary := &stubProvider{name: "primary", err: providers.NewProviderError("primary", providers.ErrTimeout, errors.New("primary too slow"))}
	secondary := &stubProvider{name: "secondary", err: providers.NewProviderError("secondary", providers.ErrUpstream, errors.New("secondary returned 503"))}

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	_, err := o.Search(context.Background(), params)

	var agg *AggregateProviderFailure
	if !errors.As(err, &agg) {
		t.Fatalf("err = %v, want AggregateProviderFailure", err)
	}
	if !strings.Contains(err.Error(), "primary too slow") || !strings.Contains(err.Error(), "secondary returned 503") {
		t.Errorf("message lacks causes: %v", err)
	}
	if !errors.Is(err, providers.ErrTimeout) || !errors.Is(err, providers.ErrUpstream) {
		t.Error("causes not reachable through errors.Is")
	}
	if agg.Misconfigured() {
		t.Error("transient failures reported as misconfiguration")
	}
}

func TestAggregateFailureMisconfigured(t *testing.T) {
	primary := &stubProvider{name: "primary", err: providers.NewProviderError("primary", providers.ErrAuthentication, nil)}
	secondary := &stubProvider{name: "secondary"}

	o := NewOrchestrator([]providers.Provider{primary, secondary}, DefaultConfig(), Deps{})
	_, err := o.Search(context.Background(), params)

	var agg *AggregateProviderFailure
	if !errors.As(err, &agg) || !agg.Misconfigured() {
		t.Fatalf("err = %v, want misconfigured aggregate", err)
	}
}

func TestRetryOnlyTransient(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	cfg.RetryDelays = []time.Duration{0}

	flaky := &stubProvider{name: "flaky", err: providers.NewProviderError("flaky", providers.ErrUpstream, nil)}
	o := NewOrchestrator([]providers.Provider{flaky}, cfg, Deps{})
	o.Search(context.Background(), params)
	if got := flaky.calls.Load(); got != 3 {
		t.Errorf("upstream failure attempts = %d, want 3", got)
	}

	denied := &stubProvider{name: "denied", err: providers.NewProviderError("denied", providers.ErrRateLimitExceeded, nil)}
	o = NewOrchestrator([]providers.Provider{denied}, cfg, Deps{})
	o.Search(context.Background(), params)
	if got := denied.calls.Load(); got != 1 {
		t.Errorf("rate-limited attempts = %d, want 1", got)
	}
}

func TestSearchPersistsToStore(t *testing.T) {
	mem := store.NewMemoryStore(time.Hour)
	primary := &stubProvider{name: "primary", flights: []models.Flight{direct("a", 320, 150, "")}}

	o := NewOrchestrator([]providers.Provider{primary}, DefaultConfig(), Deps{Store: mem})
	if _, err := o.Search(context.Background(), params); err != nil {
		t.Fatalf("Search() error = %v", err)
	}

	cached, ok := o.Cached(context.Background(), params)
	if !ok || len(cached) != 1 || cached[0].ID != "a" {
		t.Errorf("Cached() = %+v, %v", cached, ok)
	}
}

func TestEnrich(t *testing.T) {
	in := []models.Flight{
		direct("eco", 300, 150, "eco_champion"),
		{ID: "conn", Segments: make([]models.Segment, 2), CarbonFootprint: models.CarbonFootprint{PerPassenger: 420}},
	}
	out := Enrich(in)

	want := []string{BadgeLowCarbon, BadgeDirectFlight, BadgeEcoCertified}
	if len(out[0].SustainabilityBadges) != 3 {
		t.Fatalf("badges = %v, want %v", out[0].SustainabilityBadges, want)
	}
	for i, b := range want {
		if out[0].SustainabilityBadges[i] != b {
			t.Errorf("badge %d = %q, want %q", i, out[0].SustainabilityBadges[i], b)
		}
	}
	if out[0].Recommendation != "Highly recommended for eco-conscious travelers" {
		t.Errorf("recommendation = %q", out[0].Recommendation)
	}
	if len(out[1].SustainabilityBadges) != 0 || out[1].Recommendation != "Good value flight option" {
		t.Errorf("connecting flight enriched as %+v", out[1])
	}
	if in[0].SustainabilityBadges != nil {
		t.Error("Enrich mutated its input")
	}
}

func TestSearchAirportsFallsBack(t *testing.T) {
	p := &stubAirports{stubProvider: stubProvider{name: "primary"}, err: errors.New("down")}
	o := NewOrchestrator([]providers.Provider{p}, DefaultConfig(), Deps{})

	got := o.SearchAirports(context.Background(), "heathrow")
	if len(got) != 1 || got[0].Code != "LHR" {
		t.Errorf("SearchAirports() = %+v, want LHR from reference data", got)
	}

	p.err = nil
	p.airports = []models.Airport{{Code: "XXX"}}
	got = o.SearchAirports(context.Background(), "heathrow")
	if len(got) != 1 || got[0].Code != "XXX" {
		t.Errorf("SearchAirports() = %+v, want provider result", got)
	}
}
