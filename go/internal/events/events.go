// Package events turns adopted board snapshots into domain events and
// publishes them to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

type EventType string

const (
	EventTypeNumberSelected EventType = "number_selected"
	EventTypeSessionStarted EventType = "session_started"
	EventTypeSessionEnded   EventType = "session_ended"
	EventTypeBoardGenerated EventType = "board_generated"
)

// Event is one domain event derived from a snapshot change
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Type       EventType       `json:"type"`
	Generation uint64          `json:"generation"`
	Source     string          `json:"source"`
	Payload    json.RawMessage `json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
}

type NumberSelectedPayload struct {
	Value  int  `json:"value"`
	Robber bool `json:"robber"`
}

type SessionPayload struct {
	Mode string `json:"mode"`
}

type BoardGeneratedPayload struct {
	Mode      string           `json:"mode"`
	Resources []board.Resource `json:"resources"`
	Numbers   []int            `json:"numbers"`
}

// BuildEvents derives the events carried by a change. Most polls carry none.
func BuildEvents(change synchronizer.Change) ([]Event, error) {
	cur := change.Current
	var out []Event

	add := func(t EventType, payload any) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", t, err)
		}
		out = append(out, Event{
			ID:         uuid.New(),
			Type:       t,
			Generation: change.Generation,
			Source:     string(change.Source),
			Payload:    data,
			CreatedAt:  change.At.UTC(),
		})
		return nil
	}

	if boardChanged(change.Previous, cur) {
		err := add(EventTypeBoardGenerated, BoardGeneratedPayload{
			Mode:      cur.Board.Mode.String(),
			Resources: cur.Board.Resources,
			Numbers:   cur.Board.Numbers,
		})
		if err != nil {
			return nil, err
		}
	}

	if change.SessionChanged() {
		t := EventTypeSessionEnded
		if cur.Session.Active {
			t = EventTypeSessionStarted
		}
		if err := add(t, SessionPayload{Mode: cur.Board.Mode.String()}); err != nil {
			return nil, err
		}
	}

	if change.SelectedValueChanged() && cur.Session.SelectedValue != 0 {
		v := cur.Session.SelectedValue
		if err := add(EventTypeNumberSelected, NumberSelectedPayload{Value: v, Robber: v == board.RobberValue}); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func boardChanged(prev *board.Snapshot, cur board.Snapshot) bool {
	if prev == nil {
		return true
	}
	if prev.Board.Mode != cur.Board.Mode {
		return true
	}
	return !slices.Equal(prev.Board.Numbers, cur.Board.Numbers) || !slices.Equal(prev.Board.Resources, cur.Board.Resources)
}

// Publisher delivers events to a bus
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter is a snapshot observer that publishes derived events
type Emitter struct {
	publisher Publisher
}

func NewEmitter(publisher Publisher) *Emitter {
	return &Emitter{publisher: publisher}
}

func (e *Emitter) Observe(ctx context.Context, change synchronizer.Change) error {
	evts, err := BuildEvents(change)
	if err != nil {
		return err
	}
	for _, evt := range evts {
		if err := e.publisher.Publish(ctx, evt); err != nil {
			return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
		}
		log.Debug().
			Str("event_id", evt.ID.String()).
			Str("event_type", string(evt.Type)).
			Uint64("generation", evt.Generation).
			Msg("board event emitted")
	}
	return nil
}
