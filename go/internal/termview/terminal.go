package termview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/gateway"
)

// Refresher forces an immediate poll.
type Refresher interface {
	PollOnce(ctx context.Context) error
}

// NumberReader reads the device's current number without touching the board.
type NumberReader interface {
	GetNumber(ctx context.Context) (int, error)
}

type Config struct {
	CommandTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{CommandTimeout: 10 * time.Second}
}

// Terminal runs the keyboard loop and paints the view.
type Terminal struct {
	view      *View
	actions   gateway.Actions
	refresher Refresher
	numbers   NumberReader
	config    Config

	pending sync.WaitGroup
}

func NewTerminal(view *View, actions gateway.Actions, refresher Refresher, numbers NumberReader, config Config) *Terminal {
	return &Terminal{
		view:      view,
		actions:   actions,
		refresher: refresher,
		numbers:   numbers,
		config:    config,
	}
}

// Run takes over the terminal until ctx is done or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("failed to initialize terminal: %w", err)
	}

	events := make(chan termbox.Event)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go pollEvents(events, done, stopped)

	defer func() {
		close(done)
		termbox.Interrupt()
		<-stopped
		t.pending.Wait()
		termbox.Close()
	}()

	t.paint()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.view.Redraw():
			t.paint()
		case ev := <-events:
			switch ev.Type {
			case termbox.EventError:
				return fmt.Errorf("terminal event error: %w", ev.Err)
			case termbox.EventResize:
				t.paint()
			case termbox.EventKey:
				if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC || Key(ev.Ch) == KeyQuit {
					return nil
				}
				if ev.Ch != 0 {
					t.handleKey(ctx, Key(ev.Ch))
				}
			}
		}
	}
}

// pollEvents only returns on interrupt; events arriving after done are
// dropped so a pending Interrupt is always received.
func pollEvents(events chan<- termbox.Event, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	for {
		ev := termbox.PollEvent()
		if ev.Type == termbox.EventInterrupt {
			return
		}
		select {
		case events <- ev:
		case <-done:
		}
	}
}

func (t *Terminal) handleKey(ctx context.Context, k Key) {
	if k == KeyRefresh {
		t.async(ctx, t.refresh)
		return
	}

	current, ok := t.view.Current()
	if !ok {
		return
	}
	cmd, ok := CommandFor(k, current.Affordances)
	if !ok {
		return
	}
	t.async(ctx, func(ctx context.Context) {
		t.view.SetStatus(fmt.Sprintf("%s...", cmd.Action))
		if err := cmd.Dispatch(ctx, t.actions); err != nil {
			log.Warn().Err(err).Str("action", string(cmd.Action)).Msg("Terminal action failed")
			t.view.SetStatus(fmt.Sprintf("%s failed: %v", cmd.Action, err))
			return
		}
		t.view.SetStatus("")
	})
}

func (t *Terminal) refresh(ctx context.Context) {
	if err := t.refresher.PollOnce(ctx); err != nil {
		t.view.SetStatus(fmt.Sprintf("refresh failed: %v", err))
		return
	}
	n, err := t.numbers.GetNumber(ctx)
	if err != nil {
		t.view.SetStatus(fmt.Sprintf("refreshed, number unavailable: %v", err))
		return
	}
	t.view.SetStatus(fmt.Sprintf("refreshed, device number %d", n))
}

func (t *Terminal) async(ctx context.Context, fn func(ctx context.Context)) {
	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, t.config.CommandTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (t *Terminal) paint() {
	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		log.Debug().Err(err).Msg("Failed to clear terminal")
		return
	}
	for y, line := range t.view.Lines() {
		x := line.Indent
		for _, span := range line.Spans {
			fg, bg := spanStyle(span)
			for _, r := range span.Text {
				termbox.SetCell(x, y, r, fg, bg)
				x += runewidth.RuneWidth(r)
			}
		}
	}
	if err := termbox.Flush(); err != nil {
		log.Debug().Err(err).Msg("Failed to flush terminal")
	}
}

var resourceColors = map[board.Resource]termbox.Attribute{
	board.ResourceSheep:  termbox.ColorGreen | termbox.AttrBold,
	board.ResourceWood:   termbox.ColorGreen,
	board.ResourceWheat:  termbox.ColorYellow,
	board.ResourceBrick:  termbox.ColorRed,
	board.ResourceOre:    termbox.ColorWhite,
	board.ResourceDesert: termbox.ColorMagenta,
}

func spanStyle(s Span) (fg, bg termbox.Attribute) {
	fg, bg = termbox.ColorDefault, termbox.ColorDefault
	if s.Kind == SpanTile {
		if c, ok := resourceColors[s.Resource]; ok {
			fg = c
		}
	}
	if s.Highlighted {
		fg |= termbox.AttrReverse | termbox.AttrBold
	}
	return fg, bg
}
