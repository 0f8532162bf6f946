package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	ProviderRequests  *prometheus.CounterVec
	ProviderLatency   *prometheus.HistogramVec
	CacheLookups      *prometheus.CounterVec
	RateLimitDenials  *prometheus.CounterVec
	MonitorTicks      *prometheus.CounterVec
	AlertsTriggered   *prometheus.CounterVec
	ActiveMonitors    prometheus.Gauge
	SearchesCompleted *prometheus.CounterVec
}

// NewMetrics registers the metric set against reg. Pass prometheus.DefaultRegisterer
// in production and a fresh prometheus.NewRegistry() in tests.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ProviderRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Upstream provider search attempts by outcome",
		}, []string{"provider", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "Time spent on upstream network calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "response_cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"provider", "result"}),
		RateLimitDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_denials_total",
			Help:      "Requests denied by the local provider budget",
		}, []string{"provider"}),
		MonitorTicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_ticks_total",
			Help:      "Price monitor checks by outcome",
		}, []string{"outcome"}),
		AlertsTriggered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_alerts_total",
			Help:      "Price alerts raised by type",
		}, []string{"type"}),
		ActiveMonitors: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_monitors",
			Help:      "Monitor sessions currently scheduled",
		}),
		SearchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Aggregated searches by answering provider",
		}, []string{"provider"}),
	}
}

func (m *Metrics) ObserveProvider(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	if elapsed > 0 {
		m.ProviderLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	}
}

func (m *Metrics) ObserveCache(provider string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) RateLimited(provider string) {
	if m == nil {
		return
	}
	m.RateLimitDenials.WithLabelValues(provider).Inc()
}

func (m *Metrics) Tick(outcome string) {
	if m == nil {
		return
	}
	m.MonitorTicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Alert(alertType string) {
	if m == nil {
		return
	}
	m.AlertsTriggered.WithLabelValues(alertType).Inc()
}

func (m *Metrics) SetActiveMonitors(n int) {
	if m == nil {
		return
	}
	m.ActiveMonitors.Set(float64(n))
}

func (m *Metrics) SearchAnswered(provider string) {
	if m == nil {
		return
	}
	m.SearchesCompleted.WithLabelValues(provider).Inc()
}
