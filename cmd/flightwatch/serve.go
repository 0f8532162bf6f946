package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/dharmasatrya/flightwatch/internal/handler"
	"github.com/dharmasatrya/flightwatch/internal/ratelimit"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			return a.serve(ctx)
		},
	}
}

func (a *app) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	httpLog := a.log.With("component", "http")
	handler.Register(e, handler.Routes{
		Search:         handler.NewSearchHandler(a.orchestrator, httpLog),
		Monitoring:     handler.NewMonitoringHandler(a.monitor, a.fanout.Handle, httpLog),
		Alerts:         handler.NewAlertsHandler(a.alertStore, a.hub, a.clock),
		Profiles:       handler.NewProfileHandler(a.store, httpLog),
		Sustainability: handler.NewSustainabilityHandler(a.clock),
		Health:         handler.NewHealthHandler(a.orchestrator, a.monitor, a.hub),
		Gatherer:       a.registry,
		APIMiddleware:  []echo.MiddlewareFunc{ratelimit.Ingress(a.cfg.Server.Ingress)},
	})
	return e
}

func (a *app) serve(ctx context.Context) error {
	e := a.newEcho()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting flightwatch server", "port", a.cfg.Server.Port)
		if err := e.Start(":" + a.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		a.log.Error("HTTP server shutdown error", "error", err)
		return err
	}
	return nil
}
