package termview

import (
	"sync"

	"github.com/mcdev12/smartcatan/go/internal/synchronizer"
)

// View keeps the latest update for the terminal loop. Render only stores and
// signals, so it is safe to call with the synchronizer's lock held.
type View struct {
	mu     sync.Mutex
	latest *synchronizer.Update
	status string
	redraw chan struct{}
}

func NewView() *View {
	return &View{redraw: make(chan struct{}, 1)}
}

// Render implements synchronizer.View.
func (v *View) Render(u synchronizer.Update) {
	v.mu.Lock()
	v.latest = &u
	v.mu.Unlock()
	v.signal()
}

// SetStatus replaces the status line.
func (v *View) SetStatus(status string) {
	v.mu.Lock()
	v.status = status
	v.mu.Unlock()
	v.signal()
}

// Redraw fires whenever the screen content changed.
func (v *View) Redraw() <-chan struct{} {
	return v.redraw
}

// Lines lays out the current state.
func (v *View) Lines() []Line {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.latest == nil {
		lines := []Line{textLine("waiting for the board...")}
		if v.status != "" {
			lines = append(lines, textLine(v.status))
		}
		return lines
	}
	return Layout(v.latest.Frame, v.latest.Affordances, v.status)
}

// Current returns the latest update, if any.
func (v *View) Current() (synchronizer.Update, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.latest == nil {
		return synchronizer.Update{}, false
	}
	return *v.latest, true
}

func (v *View) signal() {
	select {
	case v.redraw <- struct{}{}:
	default:
	}
}
