package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/models"
)

func newWatchCmd(configPath *string) *cobra.Command {
	var (
		params     models.FlightSearchParams
		returnDate string
		maxPrice   float64
		target     float64
		userID     string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor one route in the foreground and print alerts until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if target <= 0 {
				return errors.New("--target must be positive")
			}
			if err := finishParams(&params, returnDate, maxPrice); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			var mu sync.Mutex
			enc := json.NewEncoder(os.Stdout)
			onAlert := func(alert models.PriceAlert) {
				a.fanout.Handle(alert)
				mu.Lock()
				defer mu.Unlock()
				_ = enc.Encode(alert)
			}

			id, err := a.monitor.StartMonitoring(params, target, userID, onAlert)
			if err != nil {
				return err
			}
			a.log.Info("watching route", "monitor_id", id, "interval", a.cfg.Monitor.Interval)

			<-ctx.Done()
			trend := a.monitor.GetPriceTrend(id)
			a.monitor.StopMonitoring(id)
			a.log.Info("watch finished", "monitor_id", id, "trend", trend.Trend)
			return nil
		},
	}

	searchFlags(cmd, &params, &returnDate, &maxPrice)
	cmd.Flags().Float64Var(&target, "target", 0, "alert when the lowest price reaches this total")
	cmd.Flags().StringVar(&userID, "user", "cli", "user id recorded on alerts")
	return cmd
}
