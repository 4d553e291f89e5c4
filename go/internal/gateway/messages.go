package gateway

import (
	"time"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

// MessageType identifies messages pushed to browser clients
type MessageType string

const (
	MessageTypeBoard MessageType = "board"
	MessageTypeError MessageType = "error"
)

// BoardMessage carries one rendered board state
type BoardMessage struct {
	Type        MessageType       `json:"type"`
	Generation  uint64            `json:"generation"`
	Frame       board.Frame       `json:"frame"`
	Affordances board.Affordances `json:"affordances"`
	Session     board.Session     `json:"session"`
	Timestamp   time.Time         `json:"timestamp"`
}

// ErrorMessage reports a rejected client command back to its sender
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Action  Action      `json:"action,omitempty"`
	Message string      `json:"message"`
}

func newBoardMessage(u synchronizer.Update, now time.Time) BoardMessage {
	return BoardMessage{
		Type:        MessageTypeBoard,
		Generation:  u.Generation,
		Frame:       u.Frame,
		Affordances: u.Affordances,
		Session:     u.Snapshot.Session,
		Timestamp:   now,
	}
}
