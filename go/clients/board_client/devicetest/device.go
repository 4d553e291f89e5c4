// Package devicetest runs an in-memory board device behind httptest.
package devicetest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/mcdev12/smartcatan/go/clients/board_client"
	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
)

// Device mimics the board firmware. Responses can be overridden per path to
// simulate faults.
type Device struct {
	Server *httptest.Server

	mu        sync.Mutex
	state     board.Snapshot
	roll      int
	overrides map[string]override
	calls     map[string]int
}

type override struct {
	status int
	body   string
}

// New starts a device holding the classic fixture board.
func New() *Device {
	d := &Device{
		state:     boardtest.Classic(),
		roll:      8,
		overrides: make(map[string]override),
		calls:     make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(d.intercept)
	r.Get(board_client.GetBoardEndpoint, d.snapshot(nil))
	r.Get(board_client.SetClassicEndpoint, d.snapshot(func(s *board.Snapshot) {
		*s = withSession(boardtest.Classic(), s.Session)
	}))
	r.Get(board_client.SetExtensionEndpoint, d.snapshot(func(s *board.Snapshot) {
		*s = withSession(boardtest.Extension(), s.Session)
	}))
	r.Get(board_client.StartGameEndpoint, d.snapshot(func(s *board.Snapshot) {
		s.Session.Active = true
	}))
	r.Get(board_client.EndGameEndpoint, d.snapshot(func(s *board.Snapshot) {
		s.Session.Active = false
		s.Session.SelectedValue = 0
	}))
	r.Get(board_client.SelectNumberEndpoint, d.selectNumber)
	r.Get(board_client.RollDiceEndpoint, d.rollDice)
	r.Get(board_client.GetNumberEndpoint, d.getNumber)
	for _, flag := range board.AllRuleFlags {
		r.Get("/"+string(flag), d.ruleFlag(flag))
	}

	d.Server = httptest.NewServer(r)
	return d
}

func (d *Device) URL() string { return d.Server.URL }

func (d *Device) Close() { d.Server.Close() }

// State returns the device's current snapshot.
func (d *Device) State() board.Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Clone()
}

// SetState replaces the device's snapshot.
func (d *Device) SetState(s board.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = s.Clone()
}

// SetRoll fixes the value returned by the next rolls.
func (d *Device) SetRoll(v int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roll = v
}

// Override makes path answer with status and body until Reset is called.
func (d *Device) Override(path string, status int, body string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overrides[path] = override{status: status, body: body}
}

// Reset removes every override.
func (d *Device) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.overrides = make(map[string]override)
}

// Calls returns how many times path was requested.
func (d *Device) Calls(path string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[path]
}

func (d *Device) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.calls[r.URL.Path]++
		o, ok := d.overrides[r.URL.Path]
		d.mu.Unlock()
		if ok {
			w.WriteHeader(o.status)
			_, _ = w.Write([]byte(o.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Device) snapshot(mutate func(*board.Snapshot)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		if mutate != nil {
			mutate(&d.state)
		}
		resp := board_client.NewSnapshotResponse(d.state)
		d.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func (d *Device) selectNumber(w http.ResponseWriter, r *http.Request) {
	v, err := strconv.Atoi(r.URL.Query().Get(board_client.ValueParam))
	if err != nil || !board.ValidSelection(v) {
		http.Error(w, "bad value", http.StatusBadRequest)
		return
	}
	d.mu.Lock()
	d.state.Session.SelectedValue = v
	d.mu.Unlock()
	writeNumber(w, v)
}

func (d *Device) rollDice(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	v := d.roll
	d.state.Session.SelectedValue = v
	d.mu.Unlock()
	writeNumber(w, v)
}

func (d *Device) getNumber(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	v := d.state.Session.SelectedValue
	d.mu.Unlock()
	writeNumber(w, v)
}

func (d *Device) ruleFlag(flag board.RuleFlag) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		on := r.URL.Query().Get(board_client.ValueParam) == "1"
		d.mu.Lock()
		setRule(&d.state.Session.Rules, flag, on)
		d.mu.Unlock()
		_, _ = w.Write([]byte("OK"))
	}
}

func setRule(rules *board.RuleFlags, flag board.RuleFlag, on bool) {
	switch flag {
	case board.RuleEightSixCanTouch:
		rules.EightSixCanTouch = on
	case board.RuleTwoTwelveCanTouch:
		rules.TwoTwelveCanTouch = on
	case board.RuleSameNumbersCanTouch:
		rules.SameNumbersCanTouch = on
	case board.RuleSameResourceCanTouch:
		rules.SameResourceCanTouch = on
	case board.RuleManualDice:
		rules.ManualDice = on
	}
}

func withSession(s board.Snapshot, session board.Session) board.Snapshot {
	s.Session = session
	return s
}

func writeNumber(w http.ResponseWriter, v int) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(strconv.Itoa(v)))
}
