package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dharmasatrya/flightwatch/internal/aggregator"
	"github.com/dharmasatrya/flightwatch/internal/alerts"
	"github.com/dharmasatrya/flightwatch/internal/cache"
	"github.com/dharmasatrya/flightwatch/internal/clock"
	"github.com/dharmasatrya/flightwatch/internal/config"
	"github.com/dharmasatrya/flightwatch/internal/monitor"
	"github.com/dharmasatrya/flightwatch/internal/providers"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
	"github.com/dharmasatrya/flightwatch/internal/store"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
	"github.com/dharmasatrya/flightwatch/pkg/metrics"
)

const metricsNamespace = "flightwatch"

// app owns every long-lived component. Nothing is package-level.
type app struct {
	cfg      config.Config
	log      *logger.ZapLogger
	clock    clock.Clock
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	store        store.Store
	orchestrator *aggregator.Orchestrator
	monitor      *monitor.Monitor

	alertStore alerts.Store
	hub        *alerts.Hub
	fanout     *alerts.Fanout
}

func loadApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApp(ctx, cfg)
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{
		cfg:      cfg,
		log:      logger.NewLogger(cfg.Log.Level),
		clock:    clock.NewRealClock(),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.NewMetrics(metricsNamespace, a.registry)

	a.store = a.openStore(ctx)

	providerList := a.buildProviders()
	a.log.Info("initialized flight providers", "count", len(providerList))

	a.orchestrator = aggregator.NewOrchestrator(providerList, cfg.Aggregator, aggregator.Deps{
		Store:   a.store,
		Clock:   a.clock,
		Logger:  a.log.With("component", "orchestrator"),
		Metrics: a.metrics,
	})

	a.monitor = monitor.New(a.orchestrator, cfg.Monitor, monitor.Deps{
		Clock:   a.clock,
		Logger:  a.log.With("component", "monitor"),
		Metrics: a.metrics,
	})

	if err := a.openAlerts(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// buildProviders gives each provider its own response cache and limiter,
// in priority order.
func (a *app) buildProviders() []providers.Provider {
	limits := ratelimit.NewRegistry(a.cfg.RateLimit, a.clock)

	opts := func(name string) providers.Options {
		return providers.Options{
			Cache:   cache.New[[]byte](a.cfg.Cache.TTL, a.cfg.Cache.MaxSize, a.clock),
			Limiter: limits.Get(name),
			Clock:   a.clock,
			Logger:  a.log.With("provider", name),
			Metrics: a.metrics,
			Timeout: a.cfg.Providers.Timeout,
		}
	}

	return []providers.Provider{
		providers.NewAmadeus(a.cfg.Providers.Amadeus, opts(providers.AmadeusName)),
		providers.NewSkyscanner(a.cfg.Providers.Skyscanner, opts(providers.SkyscannerName)),
	}
}

// openStore never fails: an unreachable backend degrades to no store.
func (a *app) openStore(ctx context.Context) store.Store {
	sc := a.cfg.Store
	switch sc.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(sc.TTL)
	case config.BackendRedis:
		s, err := store.NewRedisStore(sc.Redis)
		if err != nil {
			a.log.Warn("redis store unavailable, continuing without one", "error", err)
			return store.NewNoopStore()
		}
		a.log.Info("redis store enabled", "host", sc.Redis.Host, "port", sc.Redis.Port, "ttl", sc.Redis.TTL)
		return s
	case config.BackendMongo:
		s, err := store.NewMongoStore(ctx, sc.Mongo)
		if err != nil {
			a.log.Warn("mongo store unavailable, continuing without one", "error", err)
			return store.NewNoopStore()
		}
		a.log.Info("mongo store enabled", "database", sc.Mongo.Database)
		return s
	default:
		return store.NewNoopStore()
	}
}

func (a *app) openAlerts() error {
	ac := a.cfg.Alerts
	sinks := []alerts.Sink{alerts.NewLogSink(a.log.With("component", "alerts"))}

	switch {
	case ac.PostgresDSN != "":
		s, err := alerts.NewPostgresStore(ac.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres alert store: %w", err)
		}
		a.alertStore = s
	case ac.SQLitePath != "":
		s, err := alerts.NewSQLiteStore(ac.SQLitePath)
		if err != nil {
			return fmt.Errorf("open sqlite alert store: %w", err)
		}
		a.alertStore = s
	}
	if a.alertStore != nil {
		sinks = append(sinks, a.alertStore)
	}

	if ac.Stream {
		a.hub = alerts.NewHub(a.log.With("component", "alert_stream"))
		sinks = append(sinks, a.hub)
	}

	a.fanout = alerts.NewFanout(ac.DeliveryTimeout, a.log, sinks...)
	return nil
}

func (a *app) Close() {
	if a.monitor != nil {
		a.monitor.Close()
	}
	if a.hub != nil {
		a.hub.Close()
	}
	if a.alertStore != nil {
		if err := a.alertStore.Close(); err != nil {
			a.log.Error("alert store close error", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Error("store close error", "error", err)
		}
	}
	a.log.Sync()
}
