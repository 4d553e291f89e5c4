package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/clients/board_client"
	"github.com/mcdev12/smartcatan/go/internal/events"
	"github.com/mcdev12/smartcatan/go/internal/gateway"
	"github.com/mcdev12/smartcatan/go/internal/notify"
	"github.com/mcdev12/smartcatan/go/internal/store"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

type Services struct {
	Device    *board_client.BoardClient
	Store     *store.Store
	Publisher *events.JetStreamPublisher
	Observers []synchronizer.SnapshotObserver
	Probes    []gateway.Probe
}

func setupServices(ctx context.Context, cfg Config) (*Services, error) {
	// Device client → optional sinks → snapshot observers

	s := &Services{
		Device: board_client.NewBoardClient(cfg.Device.URL, cfg.Device.Timeout),
	}

	st, err := setupStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if st != nil {
		s.Store = st
		s.Observers = append(s.Observers, st)
		s.Probes = append(s.Probes, st)
	}

	if cfg.Events.URL != "" {
		publisher, err := events.NewJetStreamPublisher(ctx, cfg.Events)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create event publisher: %w", err)
		}
		log.Info().Str("nats_url", cfg.Events.URL).Str("stream", cfg.Events.StreamName).Msg("publishing board events")
		s.Publisher = publisher
		s.Observers = append(s.Observers, events.NewEmitter(publisher))
		s.Probes = append(s.Probes, publisher)
	}

	if cfg.HomeAssistant.Enabled() {
		log.Info().Str("url", cfg.HomeAssistant.URL).Msg("home assistant webhook enabled")
		s.Observers = append(s.Observers, notify.NewHomeAssistant(cfg.HomeAssistant))
	}

	return s, nil
}

// History returns the store as a history provider, or nil without one.
func (s *Services) History() gateway.HistoryProvider {
	if s.Store == nil {
		return nil
	}
	return s.Store
}

func (s *Services) Close() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close event publisher")
		}
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close history store")
		}
	}
}
