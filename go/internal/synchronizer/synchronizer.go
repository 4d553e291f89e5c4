// Package synchronizer keeps a local copy of the board device's state.
//
// The device is the only authority. A poll task reads the full snapshot once
// per interval and user actions are forwarded to the device as they happen.
// Every response that carries state replaces the local snapshot as a whole
// and triggers exactly one render pass; nothing is ever changed optimistically.
// Failed requests are logged and dropped, and the previous snapshot stays in
// place. Responses racing each other resolve as last writer wins, so the local
// copy may lag or lead the device by at most one poll interval.
package synchronizer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

// Device is the board's request surface.
type Device interface {
	GetBoard(ctx context.Context) (board.Snapshot, error)
	SetClassic(ctx context.Context) (board.Snapshot, error)
	SetExtension(ctx context.Context) (board.Snapshot, error)
	StartGame(ctx context.Context) (board.Snapshot, error)
	EndGame(ctx context.Context) (board.Snapshot, error)
	SelectNumber(ctx context.Context, value int) (int, error)
	RollDice(ctx context.Context) (int, error)
	SetRuleFlag(ctx context.Context, flag board.RuleFlag, on bool) error
}

// View receives one Update per adopted snapshot, in generation order.
// Render is called with the synchronizer's lock held and must not call back
// into the synchronizer.
type View interface {
	Render(Update)
}

// SnapshotObserver is told about adopted snapshots after they are rendered.
// Errors are logged and have no effect on the synchronizer.
type SnapshotObserver interface {
	Observe(ctx context.Context, change Change) error
}

// Update is everything a view needs to draw one state.
type Update struct {
	Generation  uint64
	Snapshot    board.Snapshot
	Frame       board.Frame
	Affordances board.Affordances
}

// Source names what produced a snapshot.
type Source string

const (
	SourcePoll      Source = "poll"
	SourceClassic   Source = "classic"
	SourceExtension Source = "extension"
	SourceStart     Source = "start"
	SourceEnd       Source = "end"
	SourceSelect    Source = "select"
	SourceRoll      Source = "roll"
)

// Change describes one snapshot replacement.
type Change struct {
	Generation uint64
	Source     Source
	Previous   *board.Snapshot
	Current    board.Snapshot
	At         time.Time
}

// SelectedValueChanged reports whether the change moved the selected value.
func (c Change) SelectedValueChanged() bool {
	if c.Previous == nil {
		return c.Current.Session.SelectedValue != 0
	}
	return c.Previous.Session.SelectedValue != c.Current.Session.SelectedValue
}

// SessionChanged reports whether the change started or ended a session.
func (c Change) SessionChanged() bool {
	if c.Previous == nil {
		return c.Current.Session.Active
	}
	return c.Previous.Session.Active != c.Current.Session.Active
}

// Config holds the synchronizer's tunables.
type Config struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	ObserverTimeout time.Duration `yaml:"observer_timeout"`
}

func DefaultConfig() Config {
	return Config{
		PollInterval:    time.Second,
		ObserverTimeout: 5 * time.Second,
	}
}

type Option func(*Synchronizer)

// WithClock replaces the real clock, typically with a clockwork.FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Synchronizer) { s.clock = clock }
}

// WithObservers registers snapshot observers, called in order.
func WithObservers(observers ...SnapshotObserver) Option {
	return func(s *Synchronizer) { s.observers = append(s.observers, observers...) }
}

type Synchronizer struct {
	device    Device
	view      View
	observers []SnapshotObserver
	config    Config
	clock     clockwork.Clock

	mu         sync.Mutex
	current    *board.Snapshot
	generation uint64
	status     Status

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	done        chan struct{}
}

func New(device Device, view View, config Config, opts ...Option) *Synchronizer {
	defaults := DefaultConfig()
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.ObserverTimeout <= 0 {
		config.ObserverTimeout = defaults.ObserverTimeout
	}

	s := &Synchronizer{
		device: device,
		view:   view,
		config: config,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the poll task. It polls immediately and then once per
// interval until ctx is cancelled or Stop is called.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.done != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	log.Info().Dur("interval", s.config.PollInterval).Msg("starting board synchronizer")
	go s.run(ctx, s.done)
	return nil
}

// Stop cancels the poll task and waits for it to exit. Safe to call more
// than once; a stopped synchronizer may be started again.
func (s *Synchronizer) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Synchronizer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := s.clock.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	s.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("board synchronizer stopped")
			return
		case <-ticker.Chan():
			s.poll(ctx)
		}
	}
}

func (s *Synchronizer) poll(ctx context.Context) {
	if err := s.PollOnce(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Int("consecutive_failures", s.Status().ConsecutiveFailures).Msg("board poll failed")
	}
}

// PollOnce reads the device snapshot and adopts it.
func (s *Synchronizer) PollOnce(ctx context.Context) error {
	snapshot, err := s.device.GetBoard(ctx)
	s.recordPoll(err)
	if err != nil {
		return err
	}
	s.adopt(ctx, SourcePoll, snapshot)
	return nil
}

// Snapshot returns a copy of the current snapshot, if any.
func (s *Synchronizer) Snapshot() (board.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return board.Snapshot{}, false
	}
	return s.current.Clone(), true
}

// Current returns the latest update as the view last saw it.
func (s *Synchronizer) Current() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Update{}, false
	}
	return buildUpdate(s.generation, *s.current), true
}

// adopt installs snapshot as the new state.
func (s *Synchronizer) adopt(ctx context.Context, source Source, snapshot board.Snapshot) {
	_ = s.replace(ctx, source, func(*board.Snapshot) (board.Snapshot, error) {
		return snapshot, nil
	})
}

// replace derives the next snapshot from the current one, swaps it in and
// renders it under the lock, then notifies observers.
func (s *Synchronizer) replace(ctx context.Context, source Source, derive func(current *board.Snapshot) (board.Snapshot, error)) error {
	s.mu.Lock()
	previous := s.current
	next, err := derive(previous)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next = next.Clone()
	s.current = &next
	s.generation++
	generation := s.generation
	s.status.Generation = generation
	if s.view != nil {
		s.view.Render(buildUpdate(generation, next))
	}
	s.mu.Unlock()

	log.Debug().
		Str("source", string(source)).
		Uint64("generation", generation).
		Int("selected", next.Session.SelectedValue).
		Bool("active", next.Session.Active).
		Msg("adopted board snapshot")

	if len(s.observers) == 0 {
		return nil
	}
	change := Change{
		Generation: generation,
		Source:     source,
		Current:    next.Clone(),
		At:         s.clock.Now(),
	}
	if previous != nil {
		prev := previous.Clone()
		change.Previous = &prev
	}
	s.notify(ctx, change)
	return nil
}

func (s *Synchronizer) notify(ctx context.Context, change Change) {
	for _, observer := range s.observers {
		observeCtx, cancel := context.WithTimeout(ctx, s.config.ObserverTimeout)
		err := observer.Observe(observeCtx, change)
		cancel()
		if err != nil {
			log.Error().
				Err(err).
				Uint64("generation", change.Generation).
				Str("source", string(change.Source)).
				Msg("snapshot observer failed")
		}
	}
}

func buildUpdate(generation uint64, snapshot board.Snapshot) Update {
	return Update{
		Generation:  generation,
		Snapshot:    snapshot.Clone(),
		Frame:       board.Render(snapshot.Board, snapshot.Session.SelectedValue),
		Affordances: board.DeriveAffordances(snapshot.Session),
	}
}
