package synchronizer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

// SetMode asks the device to regenerate the board at the given size. A
// response describing the other size is stale and is discarded.
func (s *Synchronizer) SetMode(ctx context.Context, mode board.SizeMode) error {
	var (
		snapshot board.Snapshot
		source   Source
		err      error
	)
	switch mode {
	case board.SizeStandard:
		source = SourceClassic
		snapshot, err = s.device.SetClassic(ctx)
	case board.SizeExtended:
		source = SourceExtension
		snapshot, err = s.device.SetExtension(ctx)
	default:
		return fmt.Errorf("%w: %d", board.ErrInvalidMode, mode)
	}
	if err != nil {
		return s.abandon(source, err)
	}

	if snapshot.Board.Mode != mode {
		log.Warn().
			Str("requested", mode.String()).
			Str("received", snapshot.Board.Mode.String()).
			Msg("discarding stale mode response")
		return ErrModeMismatch
	}

	s.adopt(ctx, source, snapshot)
	return nil
}

// StartGame begins a session on the device.
func (s *Synchronizer) StartGame(ctx context.Context) error {
	snapshot, err := s.device.StartGame(ctx)
	if err != nil {
		return s.abandon(SourceStart, err)
	}
	s.adopt(ctx, SourceStart, snapshot)
	return nil
}

// EndGame ends the device's session.
func (s *Synchronizer) EndGame(ctx context.Context) error {
	snapshot, err := s.device.EndGame(ctx)
	if err != nil {
		return s.abandon(SourceEnd, err)
	}
	s.adopt(ctx, SourceEnd, snapshot)
	return nil
}

// SelectNumber picks a number manually. The device answers with the value it
// selected, which replaces only the session's selected value.
func (s *Synchronizer) SelectNumber(ctx context.Context, value int) error {
	if value < board.MinValue || value > board.MaxValue {
		return fmt.Errorf("%w: got %d", ErrInvalidValue, value)
	}
	selected, err := s.device.SelectNumber(ctx, value)
	if err != nil {
		return s.abandon(SourceSelect, err)
	}
	return s.adoptSelected(ctx, SourceSelect, selected)
}

// RollDice lets the device roll and adopts the result.
func (s *Synchronizer) RollDice(ctx context.Context) error {
	selected, err := s.device.RollDice(ctx)
	if err != nil {
		return s.abandon(SourceRoll, err)
	}
	return s.adoptSelected(ctx, SourceRoll, selected)
}

// SetRuleFlag proposes a rule toggle to the device. Local state is left
// alone; the next poll reports the device's decision.
func (s *Synchronizer) SetRuleFlag(ctx context.Context, flag board.RuleFlag, on bool) error {
	if _, err := board.ParseRuleFlag(string(flag)); err != nil {
		return fmt.Errorf("%w: %q", err, flag)
	}
	if err := s.device.SetRuleFlag(ctx, flag, on); err != nil {
		log.Warn().Err(err).Str("flag", string(flag)).Bool("on", on).Msg("rule flag request failed")
		return err
	}
	log.Debug().Str("flag", string(flag)).Bool("on", on).Msg("rule flag sent")
	return nil
}

func (s *Synchronizer) adoptSelected(ctx context.Context, source Source, selected int) error {
	err := s.replace(ctx, source, func(current *board.Snapshot) (board.Snapshot, error) {
		if current == nil {
			return board.Snapshot{}, ErrNoSnapshot
		}
		return current.WithSelectedValue(selected), nil
	})
	if err != nil {
		log.Warn().Err(err).Str("source", string(source)).Int("selected", selected).Msg("dropping selected number")
	}
	return err
}

func (s *Synchronizer) abandon(source Source, err error) error {
	log.Warn().Err(err).Str("source", string(source)).Msg("board action failed")
	return err
}
