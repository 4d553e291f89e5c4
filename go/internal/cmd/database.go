package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/store"
)

// setupStore opens the history store. It returns nil when history is
// disabled.
func setupStore(ctx context.Context, cfg store.Config) (*store.Store, error) {
	if cfg.Driver == store.DriverNone {
		log.Info().Msg("history store disabled")
		return nil, nil
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	event := log.Info().Str("driver", cfg.Driver).Int("retention", cfg.Retention)
	if cfg.Driver == store.DriverPostgres {
		event = event.Str("host", cfg.Postgres.Host).Str("database", cfg.Postgres.Database)
	} else {
		event = event.Str("path", cfg.SQLitePath)
	}
	event.Msg("Connected to history store")
	return st, nil
}
