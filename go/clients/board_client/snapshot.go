package board_client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

// SnapshotResponse is the JSON document returned by the snapshot endpoints.
// Pointers distinguish a missing field from a zero value.
type SnapshotResponse struct {
	Resources            []int `json:"resources"`
	Numbers              []int `json:"numbers"`
	Extension            *bool `json:"extension"`
	GameStarted          *bool `json:"gameStarted"`
	SelectedNumber       *int  `json:"selectedNumber"`
	ManualDice           *bool `json:"manualDice"`
	EightSixCanTouch     *bool `json:"eightSixCanTouch"`
	TwoTwelveCanTouch    *bool `json:"twoTwelveCanTouch"`
	SameNumbersCanTouch  *bool `json:"sameNumbersCanTouch"`
	SameResourceCanTouch *bool `json:"sameResourceCanTouch"`
}

// NewSnapshotResponse encodes a snapshot in the device's wire shape.
func NewSnapshotResponse(s board.Snapshot) SnapshotResponse {
	resources := make([]int, len(s.Board.Resources))
	for i, r := range s.Board.Resources {
		resources[i] = int(r)
	}
	numbers := append([]int{}, s.Board.Numbers...)
	ext := s.Board.Mode.Extension()
	rules := s.Session.Rules
	return SnapshotResponse{
		Resources:            resources,
		Numbers:              numbers,
		Extension:            &ext,
		GameStarted:          &s.Session.Active,
		SelectedNumber:       &s.Session.SelectedValue,
		ManualDice:           &rules.ManualDice,
		EightSixCanTouch:     &rules.EightSixCanTouch,
		TwoTwelveCanTouch:    &rules.TwoTwelveCanTouch,
		SameNumbersCanTouch:  &rules.SameNumbersCanTouch,
		SameResourceCanTouch: &rules.SameResourceCanTouch,
	}
}

// Snapshot converts the response, rejecting anything incomplete or
// inconsistent. Nothing is returned unless every field checks out.
func (r SnapshotResponse) Snapshot() (board.Snapshot, error) {
	missing := r.missingFields()
	if len(missing) > 0 {
		return board.Snapshot{}, fmt.Errorf("%w: missing fields %v", ErrMalformed, missing)
	}

	resources := make([]board.Resource, len(r.Resources))
	for i, code := range r.Resources {
		resources[i] = board.Resource(code)
	}

	s := board.Snapshot{
		Board: board.Description{
			Mode:      board.ModeFromExtension(*r.Extension),
			Resources: resources,
			Numbers:   append([]int{}, r.Numbers...),
		},
		Session: board.Session{
			Active:        *r.GameStarted,
			SelectedValue: *r.SelectedNumber,
			Rules: board.RuleFlags{
				EightSixCanTouch:     *r.EightSixCanTouch,
				TwoTwelveCanTouch:    *r.TwoTwelveCanTouch,
				SameNumbersCanTouch:  *r.SameNumbersCanTouch,
				SameResourceCanTouch: *r.SameResourceCanTouch,
				ManualDice:           *r.ManualDice,
			},
		},
	}
	if err := s.Validate(); err != nil {
		return board.Snapshot{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return s, nil
}

func (r SnapshotResponse) missingFields() []string {
	var missing []string
	check := func(name string, present bool) {
		if !present {
			missing = append(missing, name)
		}
	}
	check("resources", r.Resources != nil)
	check("numbers", r.Numbers != nil)
	check("extension", r.Extension != nil)
	check("gameStarted", r.GameStarted != nil)
	check("selectedNumber", r.SelectedNumber != nil)
	check("manualDice", r.ManualDice != nil)
	check("eightSixCanTouch", r.EightSixCanTouch != nil)
	check("twoTwelveCanTouch", r.TwoTwelveCanTouch != nil)
	check("sameNumbersCanTouch", r.SameNumbersCanTouch != nil)
	check("sameResourceCanTouch", r.SameResourceCanTouch != nil)
	return missing
}

// DecodeSnapshot parses a snapshot body.
func DecodeSnapshot(body []byte) (board.Snapshot, error) {
	var response SnapshotResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return board.Snapshot{}, fmt.Errorf("%w: failed to unmarshal response: %w, raw response: %s",
			ErrMalformed, err, truncate(body))
	}
	return response.Snapshot()
}

// DecodeNumber parses the plain-text number returned by the dice endpoints.
func DecodeNumber(body []byte) (int, error) {
	n, err := strconv.Atoi(string(bytes.TrimSpace(body)))
	if err != nil {
		return 0, fmt.Errorf("%w: expected a number, raw response: %s", ErrMalformed, truncate(body))
	}
	if !board.ValidSelection(n) {
		return 0, fmt.Errorf("%w: number %d out of range", ErrMalformed, n)
	}
	return n, nil
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
