package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/smartcatan/go/internal/gateway"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
	"github.com/mcdev12/smartcatan/go/internal/termview"
)

const shutdownTimeout = 10 * time.Second

// runGateway serves the board to browsers until ctx is cancelled.
func runGateway(ctx context.Context, cfg Config, services *Services) error {
	clock := clockwork.NewRealClock()

	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), clock)
	syncer := synchronizer.New(services.Device, cm, cfg.Sync,
		synchronizer.WithClock(clock),
		synchronizer.WithObservers(services.Observers...),
	)

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.Port = cfg.Gateway.Port
	gatewayConfig.AllowedOrigins = cfg.Gateway.AllowedOrigins
	gatewayConfig.HealthThreshold = cfg.Gateway.HealthThreshold

	service := gateway.NewService(gatewayConfig, cm, syncer, services.History(), clock, services.Probes...)
	server := service.Server()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return service.Start(gctx)
	})

	g.Go(func() error {
		if err := syncer.Start(gctx); err != nil {
			return fmt.Errorf("failed to start synchronizer: %w", err)
		}
		<-gctx.Done()
		syncer.Stop()
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Str("device", cfg.Device.URL).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("HTTP server shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// runTerminal draws the board in the terminal until the user quits or ctx
// is cancelled.
func runTerminal(ctx context.Context, cfg Config, services *Services) error {
	view := termview.NewView()
	syncer := synchronizer.New(services.Device, view, cfg.Sync,
		synchronizer.WithObservers(services.Observers...),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := syncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start synchronizer: %w", err)
	}
	defer syncer.Stop()

	terminal := termview.NewTerminal(view, syncer, syncer, services.Device, termview.DefaultConfig())
	return terminal.Run(ctx)
}
