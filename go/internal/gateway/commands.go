package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

// ErrInvalidCommand is returned for commands that never reach the device
var ErrInvalidCommand = errors.New("invalid command")

// Actions is the set of device actions the gateway can trigger
type Actions interface {
	SetMode(ctx context.Context, mode board.SizeMode) error
	StartGame(ctx context.Context) error
	EndGame(ctx context.Context) error
	SelectNumber(ctx context.Context, value int) error
	RollDice(ctx context.Context) error
	SetRuleFlag(ctx context.Context, flag board.RuleFlag, on bool) error
}

// Action names a user action
type Action string

const (
	ActionMode   Action = "mode"
	ActionStart  Action = "start"
	ActionEnd    Action = "end"
	ActionSelect Action = "select"
	ActionRoll   Action = "roll"
	ActionRule   Action = "rule"
)

// Command is a user action as sent by a client, over HTTP or the socket
type Command struct {
	Action Action `json:"action"`
	Size   string `json:"size,omitempty"`
	Value  int    `json:"value,omitempty"`
	Flag   string `json:"flag,omitempty"`
	On     bool   `json:"on,omitempty"`
}

// Dispatch validates the command and forwards it to actions. Validation
// failures wrap ErrInvalidCommand; anything else came from the device.
func (c Command) Dispatch(ctx context.Context, actions Actions) error {
	switch c.Action {
	case ActionMode:
		mode, err := board.ParseSizeMode(c.Size)
		if err != nil {
			return fmt.Errorf("%w: size %q", ErrInvalidCommand, c.Size)
		}
		return actions.SetMode(ctx, mode)
	case ActionStart:
		return actions.StartGame(ctx)
	case ActionEnd:
		return actions.EndGame(ctx)
	case ActionSelect:
		if c.Value < board.MinValue || c.Value > board.MaxValue {
			return fmt.Errorf("%w: value %d out of range", ErrInvalidCommand, c.Value)
		}
		return actions.SelectNumber(ctx, c.Value)
	case ActionRoll:
		return actions.RollDice(ctx)
	case ActionRule:
		flag, err := board.ParseRuleFlag(c.Flag)
		if err != nil {
			return fmt.Errorf("%w: flag %q", ErrInvalidCommand, c.Flag)
		}
		return actions.SetRuleFlag(ctx, flag, c.On)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidCommand, c.Action)
	}
}
