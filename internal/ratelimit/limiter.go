// Package ratelimit enforces per-provider request ceilings over sliding
// one-minute and one-hour windows.
package ratelimit

import (
	"sync"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/clock"
)

const (
	DefaultRequestsPerMinute = 100
	DefaultRequestsPerHour   = 5000
)

type Config struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	RequestsPerHour   int `yaml:"requests_per_hour"`
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: DefaultRequestsPerMinute,
		RequestsPerHour:   DefaultRequestsPerHour,
	}
}

// Limiter records the time of every admitted request. A request is admitted
// only while both windows are below their ceilings; a denied request is not
// recorded.
type Limiter struct {
	mu       sync.Mutex
	requests []time.Time
	rpm      int
	rph      int
	clock    clock.Clock
}

func New(cfg Config, clk clock.Clock) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.RequestsPerHour <= 0 {
		cfg.RequestsPerHour = DefaultRequestsPerHour
	}
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Limiter{
		rpm:   cfg.RequestsPerMinute,
		rph:   cfg.RequestsPerHour,
		clock: clk,
	}
}

// TryAcquire checks and records in one step.
func (l *Limiter) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	hourAgo := now.Add(-time.Hour)
	minuteAgo := now.Add(-time.Minute)

	kept := l.requests[:0]
	for _, t := range l.requests {
		if t.After(hourAgo) {
			kept = append(kept, t)
		}
	}
	l.requests = kept

	lastMinute := 0
	for _, t := range l.requests {
		if t.After(minuteAgo) {
			lastMinute++
		}
	}

	if lastMinute >= l.rpm || len(l.requests) >= l.rph {
		return false
	}

	l.requests = append(l.requests, now)
	return true
}

// Registry hands out one Limiter per provider name.
type Registry struct {
	limiters map[string]*Limiter
	mu       sync.RWMutex
	defaults Config
	clock    clock.Clock
}

func NewRegistry(defaults Config, clk clock.Clock) *Registry {
	return &Registry{
		limiters: make(map[string]*Limiter),
		defaults: defaults,
		clock:    clk,
	}
}

func (r *Registry) Get(provider string) *Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[provider]
	r.mu.RUnlock()

	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, exists = r.limiters[provider]; exists {
		return limiter
	}

	limiter = New(r.defaults, r.clock)
	r.limiters[provider] = limiter
	return limiter
}

// Set overrides the ceilings for one provider, resetting its history.
func (r *Registry) Set(provider string, cfg Config) *Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter := New(cfg, r.clock)
	r.limiters[provider] = limiter
	return limiter
}
