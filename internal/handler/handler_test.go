package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/alerts"
	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/internal/monitor"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/store"
	"github.com/dharmasatrya/flightwatch/pkg/metrics"
)

type stubProvider struct {
	name string

	mu      sync.Mutex
	flights []models.Flight
	err     error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) EnsureAccessToken(ctx context.Context) (string, error) { return "t", nil }

func (s *stubProvider) SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flights, s.err
}

func (s *stubProvider) set(flights []models.Flight, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights, s.err = flights, err
}

func flight(id string, total float64) models.Flight {
	return models.Flight{
		ID:       id,
		Segments: []models.Segment{{Airline: models.Airline{Code: "DL"}}},
		Price:    models.Price{Total: total, Currency: "USD"},
	}
}

type testServer struct {
	e          *echo.Echo
	primary    *stubProvider
	secondary  *stubProvider
	monitor    *monitor.Monitor
	alertStore *alerts.SQLiteStore
	profiles   *store.MemoryStore
	clock      *clock.VirtualClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	clk := clock.NewVirtualClock(time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC))
	primary := &stubProvider{name: "amadeus"}
	secondary := &stubProvider{name: "skyscanner"}
	mem := store.NewMemoryStore(time.Hour)

	orch := aggregator.NewOrchestrator([]providers.Provider{primary, secondary}, aggregator.DefaultConfig(), aggregator.Deps{
		Store: mem,
		Clock: clk,
	})
	monCfg := monitor.DefaultConfig()
	monCfg.Interval = time.Hour
	mon := monitor.New(orch, monCfg, monitor.Deps{Clock: clk})
	t.Cleanup(mon.Close)

	alertStore, err := alerts.NewSQLiteStore(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { alertStore.Close() })

	fanout := alerts.NewFanout(time.Second, nil, alertStore)
	reg := prometheus.NewRegistry()
	metrics.NewMetrics("flightwatch", reg).SetActiveMonitors(0)

	e := echo.New()
	Register(e, Routes{
		Search:         NewSearchHandler(orch, nil),
		Monitoring:     NewMonitoringHandler(mon, fanout.Handle, nil),
		Alerts:         NewAlertsHandler(alertStore, nil, clk),
		Profiles:       NewProfileHandler(mem, nil),
		Sustainability: NewSustainabilityHandler(clk),
		Health:         NewHealthHandler(orch, mon, nil),
		Gatherer:       reg,
	})

	return &testServer{
		e:          e,
		primary:    primary,
		secondary:  secondary,
		monitor:    mon,
		alertStore: alertStore,
		profiles:   mem,
		clock:      clk,
	}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

const searchBody = `{"origin":"jfk","destination":"LAX","departure_date":"2025-07-15","adults":1,"sort_by":"price"}`

func TestSearchAnswersFromPrimary(t *testing.T) {
	s := newTestServer(t)
	s.primary.set([]models.Flight{flight("b", 410), flight("a", 320)}, nil)

	rec := s.do(http.MethodPost, "/api/v1/flights/search", searchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[models.SearchResponse](t, rec)
	if resp.Metadata.Provider != "amadeus" || resp.Metadata.TotalResults != 2 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if resp.Flights[0].ID != "a" {
		t.Errorf("first flight = %s, want cheapest", resp.Flights[0].ID)
	}
	if resp.SearchCriteria.Origin != "JFK" {
		t.Errorf("origin not normalised: %q", resp.SearchCriteria.Origin)
	}
}

func TestSearchValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/flights/search", `{"origin":"JFK","destination":"JFK","departure_date":"2025-07-15"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[models.ErrorResponse](t, rec)
	if resp.Error != "validation_error" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestSearchFailureStatus(t *testing.T) {
	tests := []struct {
		name     string
		kind     error
		wantCode int
		wantErr  string
	}{
		{"degraded", providers.ErrUpstream, http.StatusBadGateway, "providers_degraded"},
		{"misconfigured", providers.ErrAuthentication, http.StatusServiceUnavailable, "providers_misconfigured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.primary.set(nil, providers.NewProviderError("amadeus", tt.kind, errors.New("primary down")))
			s.secondary.set(nil, providers.NewProviderError("skyscanner", providers.ErrTimeout, errors.New("secondary slow")))

			rec := s.do(http.MethodPost, "/api/v1/flights/search", searchBody)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			resp := decode[models.ErrorResponse](t, rec)
			if resp.Error != tt.wantErr || len(resp.Causes) != 2 {
				t.Errorf("response = %+v", resp)
			}
		})
	}
}

func TestSearchFallsBackToStore(t *testing.T) {
	s := newTestServer(t)
	s.secondary.set([]models.Flight{flight("a", 320)}, nil)

	if rec := s.do(http.MethodPost, "/api/v1/flights/search", searchBody); rec.Code != http.StatusOK {
		t.Fatalf("warm-up status = %d", rec.Code)
	}

	s.secondary.set(nil, providers.NewProviderError("skyscanner", providers.ErrUpstream, errors.New("503")))
	rec := s.do(http.MethodPost, "/api/v1/flights/search", searchBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[models.SearchResponse](t, rec)
	if resp.Metadata.Provider != storeProvider || resp.Metadata.ProvidersFailed != 2 {
		t.Errorf("metadata = %+v", resp.Metadata)
	}
	if len(resp.Flights) != 1 || resp.Flights[0].ID != "a" {
		t.Errorf("flights = %+v", resp.Flights)
	}
}

func TestAirports(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/airports?q=heathrow", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[struct {
		Airports []models.Airport `json:"airports"`
	}](t, rec)
	if len(resp.Airports) == 0 || resp.Airports[0].Code != "LHR" {
		t.Errorf("airports = %+v", resp.Airports)
	}

	if rec := s.do(http.MethodGet, "/api/v1/airports?q=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("short query status = %d, want 400", rec.Code)
	}
}

const startBody = `{"action":"start","target_price":300,"user_id":"u1",
	"search_params":{"origin":"JFK","destination":"LAX","departure_date":"2025-07-15"}}`

func TestMonitoringLifecycle(t *testing.T) {
	s := newTestServer(t)
	s.primary.set([]models.Flight{flight("a", 299)}, nil)

	rec := s.do(http.MethodPost, "/api/v1/price-monitoring", startBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d, body %s", rec.Code, rec.Body.String())
	}
	started := decode[map[string]string](t, rec)
	id := started["monitor_id"]
	if id != "JFK_LAX_2025-07-15_economy" {
		t.Fatalf("monitor_id = %q", id)
	}

	// The immediate check is below target, so a threshold alert is stored.
	rec = s.do(http.MethodGet, "/api/v1/alerts?userId=u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("alerts status = %d", rec.Code)
	}
	listed := decode[struct {
		Alerts []models.PriceAlert `json:"alerts"`
	}](t, rec)
	if len(listed.Alerts) != 1 || listed.Alerts[0].AlertType != models.AlertThreshold {
		t.Fatalf("alerts = %+v", listed.Alerts)
	}

	rec = s.do(http.MethodPost, "/api/v1/price-monitoring", `{"action":"list_active"}`)
	active := decode[map[string][]string](t, rec)
	if len(active["active_monitors"]) != 1 {
		t.Errorf("active = %v", active)
	}

	rec = s.do(http.MethodPost, "/api/v1/price-monitoring", `{"action":"trend_analysis","monitor_id":"`+id+`"}`)
	trend := decode[map[string]interface{}](t, rec)
	if trend["trend"] != monitor.TrendStable || trend["prediction"] != monitor.PredictMonitor {
		t.Errorf("trend = %v", trend)
	}

	rec = s.do(http.MethodPost, "/api/v1/price-monitoring", `{"action":"stop","monitor_id":"`+id+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rec.Code)
	}
	if got := s.monitor.ListActive(); len(got) != 0 {
		t.Errorf("active after stop = %v", got)
	}
}

func TestMonitoringCurrentPrice(t *testing.T) {
	s := newTestServer(t)
	body := `{"action":"current_price","search_params":{"origin":"JFK","destination":"LAX","departure_date":"2025-07-15"}}`

	s.primary.set([]models.Flight{flight("a", 450), flight("b", 380)}, nil)
	rec := s.do(http.MethodPost, "/api/v1/price-monitoring", body)
	got := decode[map[string]interface{}](t, rec)
	if got["current_price"] != 380.0 {
		t.Errorf("current_price = %v, want 380", got["current_price"])
	}

	s.primary.set(nil, providers.NewProviderError("amadeus", providers.ErrUpstream, errors.New("down")))
	rec = s.do(http.MethodPost, "/api/v1/price-monitoring", body)
	got = decode[map[string]interface{}](t, rec)
	if v, ok := got["current_price"]; !ok || v != nil {
		t.Errorf("current_price = %v, want null", v)
	}
}

func TestMonitoringRejects(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"action":"pause"}`},
		{"start without params", `{"action":"start","target_price":300,"user_id":"u1"}`},
		{"start without user", `{"action":"start","target_price":300,"search_params":{"origin":"JFK","destination":"LAX","departure_date":"2025-07-15"}}`},
		{"start with bad params", `{"action":"start","target_price":300,"user_id":"u1","search_params":{"origin":"JFK","destination":"LAX"}}`},
		{"stop without id", `{"action":"stop"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(http.MethodPost, "/api/v1/price-monitoring", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestAlertsRequireUser(t *testing.T) {
	s := newTestServer(t)
	if rec := s.do(http.MethodGet, "/api/v1/alerts", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec := s.do(http.MethodGet, "/api/v1/alerts/stream", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("stream status = %d, want 503 when disabled", rec.Code)
	}
}

func TestProfiles(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/v1/users/u1/profile", "")
	def := decode[models.UserProfile](t, rec)
	if def.ID != "u1" || def.Preferences.CabinClassPreference != models.CabinEconomy {
		t.Errorf("default profile = %+v", def)
	}

	rec = s.do(http.MethodPut, "/api/v1/users/u1/profile", `{"id":"ignored","preferences":{"cabin_class_preference":"business"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("put status = %d", rec.Code)
	}

	rec = s.do(http.MethodGet, "/api/v1/users/u1/profile", "")
	got := decode[models.UserProfile](t, rec)
	if got.ID != "u1" || got.Preferences.CabinClassPreference != "business" {
		t.Errorf("stored profile = %+v", got)
	}

	if rec := s.do(http.MethodDelete, "/api/v1/users/u1/profile", ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec := s.do(http.MethodDelete, "/api/v1/users/u1/profile", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCarbonCalculator(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/v1/sustainability/carbon", `{"distance_km":1000,"aircraft_type":"Boeing 787-9","passengers":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[CarbonResponse](t, rec)
	if !resp.Success || resp.CarbonData.TotalEmissionsKg != 180 || resp.CarbonData.SustainabilityRating != "A" {
		t.Errorf("carbon = %+v", resp.CarbonData)
	}
	if !resp.CalculationTimestamp.Equal(s.clock.Now()) {
		t.Errorf("timestamp = %v, want %v", resp.CalculationTimestamp, s.clock.Now())
	}

	rec = s.do(http.MethodPost, "/api/v1/sustainability/carbon", `{"distance_km":1000,"aircraft_type":"320"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing passengers status = %d, want 400", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "")
	health := decode[map[string]interface{}](t, rec)
	if health["status"] != "ok" {
		t.Errorf("health = %v", health)
	}
	if provs, _ := health["providers"].([]interface{}); len(provs) != 2 {
		t.Errorf("providers = %v", health["providers"])
	}

	rec = s.do(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "flightwatch_active_monitors") {
		t.Errorf("metrics status = %d", rec.Code)
	}
}
