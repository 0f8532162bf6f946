// Package alerts delivers and keeps price alerts raised by the monitor.
package alerts

import (
	"context"
	"time"

	"github.com/dharmasatrya/flightwatch/internal/models"
	"github.com/dharmasatrya/flightwatch/pkg/logger"
)

// Sink receives an alert. Implementations must honour ctx.
type Sink interface {
	Deliver(ctx context.Context, alert models.PriceAlert) error
}

// Store is a durable Sink that can list what it kept.
type Store interface {
	Sink
	// ListByUser returns the user's alerts that have not expired at now,
	// newest first.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]models.PriceAlert, error)
	Close() error
}

type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Deliver(ctx context.Context, alert models.PriceAlert) error {
	s.log.Info("price alert raised",
		"alert_id", alert.ID,
		"monitor_id", alert.MonitorID,
		"user_id", alert.UserID,
		"alert_type", alert.AlertType,
		"current_price", alert.CurrentPrice,
		"target_price", alert.TargetPrice,
		"price_change", alert.PriceChange,
	)
	return nil
}

const DefaultDeliveryTimeout = 5 * time.Second

// Fanout hands each alert to every sink in turn, each under its own
// timeout. A failing sink is logged and does not stop the others.
type Fanout struct {
	sinks   []Sink
	timeout time.Duration
	log     logger.Logger
}

func NewFanout(timeout time.Duration, log logger.Logger, sinks ...Sink) *Fanout {
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Fanout{sinks: sinks, timeout: timeout, log: log}
}

// Handle has the shape of monitor.AlertFunc.
func (f *Fanout) Handle(alert models.PriceAlert) {
	f.Deliver(context.Background(), alert)
}

func (f *Fanout) Deliver(ctx context.Context, alert models.PriceAlert) error {
	var firstErr error
	for _, s := range f.sinks {
		dctx, cancel := context.WithTimeout(ctx, f.timeout)
		err := s.Deliver(dctx, alert)
		cancel()
		if err != nil {
			f.log.Error("alert delivery failed", "alert_id", alert.ID, "sink", sinkName(s), "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func sinkName(s Sink) string {
	switch s.(type) {
	case *SQLiteStore:
		return "sqlite"
	case *PostgresStore:
		return "postgres"
	case *Hub:
		return "websocket"
	case *LogSink:
		return "log"
	default:
		return "custom"
	}
}
