package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// run returns before exiting so its deferred cleanups always happen
	if err := run(getEnv("SMARTCATAN_CONFIG", "config.yaml")); err != nil {
		log.Error().Err(err).Msg("smartcatan stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("smartcatan shutdown complete")
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := setupLogging(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up services: %w", err)
	}
	defer services.Close()

	log.Info().
		Str("view", cfg.View).
		Str("device", cfg.Device.URL).
		Dur("poll_interval", cfg.Sync.PollInterval).
		Int("observers", len(services.Observers)).
		Msg("starting smartcatan")

	if cfg.View == ViewTerminal {
		return runTerminal(ctx, cfg, services)
	}
	return runGateway(ctx, cfg, services)
}
