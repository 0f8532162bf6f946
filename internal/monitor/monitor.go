// Package monitor polls flight prices for registered routes, keeps a short
// price history per route and raises alerts when a price crosses the
// caller's target or moves sharply.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
	"github.com/dharmasatrya/flightwatch/pkg/metrics"
)

var (
	ErrNoDataAvailable = errors.New("no price data available")
	ErrClosed          = errors.New("monitor closed")
)

// FlightSearcher is the search path a monitor polls.
type FlightSearcher interface {
	SearchFlights(ctx context.Context, params models.FlightSearchParams) ([]models.Flight, error)
}

// AlertFunc receives alerts synchronously from the tick that raised them
// and is expected to return promptly.
type AlertFunc func(models.PriceAlert)

type Config struct {
	Interval           time.Duration `yaml:"interval"`
	HistorySize        int           `yaml:"history_size"`
	TrendWindow        int           `yaml:"trend_window"`
	TrendThresholdPct  float64       `yaml:"trend_threshold_pct"`
	BuyNowThresholdPct float64       `yaml:"buy_now_threshold_pct"`
	DropThreshold      float64       `yaml:"drop_threshold"`
	RiseThreshold      float64       `yaml:"rise_threshold"`
	AlertTTL           time.Duration `yaml:"alert_ttl"`
	// CheckTimeout bounds one price check. Zero leaves it to the providers.
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

func DefaultConfig() Config {
	return Config{
		Interval:           30 * time.Minute,
		HistorySize:        48,
		TrendWindow:        5,
		TrendThresholdPct:  5,
		BuyNowThresholdPct: 10,
		DropThreshold:      50,
		RiseThreshold:      100,
		AlertTTL:           7 * 24 * time.Hour,
		CheckTimeout:       2 * time.Minute,
	}
}

type Deps struct {
	Clock   clock.Clock
	Logger  logger.Logger
	Metrics *metrics.Metrics
}

type session struct {
	id        string
	params    models.FlightSearchParams
	target    float64
	userID    string
	onAlert   AlertFunc
	createdAt time.Time
	cancel    context.CancelFunc

	mu      sync.Mutex
	history *priceHistory
	stopped bool
}

func (s *session) stop() {
	s.cancel()
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}

type Monitor struct {
	searcher FlightSearcher
	cfg      Config
	clock    clock.Clock
	log      logger.Logger
	metrics  *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu guards sessions and closed. wg.Add happens under it so Close
	// never waits while a new loop is being registered.
	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

func New(searcher FlightSearcher, cfg Config, deps Deps) *Monitor {
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = def.HistorySize
	}
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = def.TrendWindow
	}
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = def.AlertTTL
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewRealClock()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		searcher: searcher,
		cfg:      cfg,
		clock:    deps.Clock,
		log:      deps.Logger,
		metrics:  deps.Metrics,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*session),
	}
}

// MonitorID names the session for a route, date and cabin.
func MonitorID(p models.FlightSearchParams) string {
	return fmt.Sprintf("%s_%s_%s_%s", p.Origin, p.Destination, p.DepartureDate, models.NormalizeCabin(p.CabinClass))
}

// StartMonitoring registers a session, replacing any existing one for the
// same id, runs one check straight away and then polls every Interval.
func (m *Monitor) StartMonitoring(params models.FlightSearchParams, targetPrice float64, userID string, onAlert AlertFunc) (string, error) {
	if err := params.Validate(); err != nil {
		return "", err
	}

	id := MonitorID(params)
	ctx, cancel := context.WithCancel(m.ctx)
	s := &session{
		id:        id,
		params:    params,
		target:    targetPrice,
		userID:    userID,
		onAlert:   onAlert,
		createdAt: m.clock.Now(),
		cancel:    cancel,
		history:   newPriceHistory(m.cfg.HistorySize),
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return "", ErrClosed
	}
	old := m.sessions[id]
	m.sessions[id] = s
	active := len(m.sessions)
	m.mu.Unlock()

	if old != nil {
		old.stop()
		m.log.Info("monitor replaced", "monitor_id", id)
	}
	m.metrics.SetActiveMonitors(active)
	m.log.Info("monitor started", "monitor_id", id, "user_id", userID, "target_price", targetPrice)

	m.checkPriceChanges(ctx, s)

	m.mu.Lock()
	if m.closed || ctx.Err() != nil {
		m.mu.Unlock()
		return id, nil
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go m.run(ctx, s)
	return id, nil
}

func (m *Monitor) run(ctx context.Context, s *session) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(m.cfg.Interval):
		}
		if ctx.Err() != nil {
			return
		}
		m.checkPriceChanges(ctx, s)
	}
}

// StopMonitoring cancels the session and drops its history. Once it
// returns no new tick starts for id. Unknown ids are ignored.
func (m *Monitor) StopMonitoring(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	active := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.stop()
	m.metrics.SetActiveMonitors(active)
	m.log.Info("monitor stopped", "monitor_id", id)
}

func (m *Monitor) ListActive() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetCurrentPrice is the lowest total across one fresh search.
func (m *Monitor) GetCurrentPrice(ctx context.Context, params models.FlightSearchParams) (float64, error) {
	if m.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.CheckTimeout)
		defer cancel()
	}

	flights, err := m.searcher.SearchFlights(ctx, params)
	if err != nil {
		return 0, err
	}
	if len(flights) == 0 {
		return 0, ErrNoDataAvailable
	}

	lowest := math.Inf(1)
	for _, f := range flights {
		lowest = math.Min(lowest, f.Price.Total)
	}
	return lowest, nil
}

func (m *Monitor) GetPriceTrend(id string) Trend {
	s := m.session(id)
	if s == nil {
		return defaultTrend()
	}

	s.mu.Lock()
	window := s.history.Last(m.cfg.TrendWindow)
	s.mu.Unlock()

	return computeTrend(window, m.cfg)
}

// History returns the recorded prices for id, oldest first.
func (m *Monitor) History(id string) []float64 {
	s := m.session(id)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Last(s.history.Len())
}

func (m *Monitor) session(id string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id]
}

// Close stops every session and waits for their loops to exit.
func (m *Monitor) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.stop()
	}
	m.cancel()
	m.wg.Wait()
	m.metrics.SetActiveMonitors(0)
}

func (m *Monitor) checkPriceChanges(ctx context.Context, s *session) {
	price, err := m.GetCurrentPrice(ctx, s.params)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrNoDataAvailable) {
			outcome = "no_data"
		}
		m.metrics.Tick(outcome)
		m.log.Warn("price check skipped", "monitor_id", s.id, "error", err)
		return
	}

	now := m.clock.Now()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		m.metrics.Tick("discarded")
		return
	}
	s.history.Push(price)
	change := price - s.history.Previous()
	kind, fire := alertType(price, change, s.target, m.cfg)
	var alert models.PriceAlert
	if fire {
		alert = newAlert(s, kind, price, change, now, m.cfg.AlertTTL)
	}
	s.mu.Unlock()

	m.metrics.Tick("ok")
	m.log.Info("price observed", "monitor_id", s.id, "price", price, "change", change)

	if !fire {
		return
	}
	m.metrics.Alert(string(kind))
	m.log.Info("price alert", "monitor_id", s.id, "alert_id", alert.ID, "alert_type", kind)
	if s.onAlert != nil {
		s.onAlert(alert)
	}
}
