// Package termview draws the board in a terminal and maps key presses to
// device actions.
package termview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

// SpanKind tells the painter how to colour a span.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanTile
	SpanSelector
)

// Span is a run of text drawn in one style.
type Span struct {
	Text        string
	Kind        SpanKind
	Resource    board.Resource
	Highlighted bool
}

// Line is one screen row. Indent is measured in terminal cells.
type Line struct {
	Indent int
	Spans  []Span
}

// Width returns the number of terminal cells the line occupies.
func (l Line) Width() int {
	w := l.Indent
	for _, s := range l.Spans {
		w += runewidth.StringWidth(s.Text)
	}
	return w
}

var resourceAbbrev = map[board.Resource]string{
	board.ResourceSheep:  "SH",
	board.ResourceWood:   "WD",
	board.ResourceWheat:  "WH",
	board.ResourceBrick:  "BR",
	board.ResourceOre:    "OR",
	board.ResourceDesert: "DS",
}

func tileLabel(c board.Cell) string {
	abbrev, ok := resourceAbbrev[c.Resource]
	if !ok {
		abbrev = "??"
	}
	return abbrev + " " + c.Text
}

// LayoutBoard positions the frame's tiles. Every tile gets the same width so
// rows can be centred against the longest one; right-lobe rows of the
// extension board are pushed half a tile further.
func LayoutBoard(f board.Frame) []Line {
	cellWidth := 0
	longest := 0
	for _, row := range f.Rows {
		longest = max(longest, len(row.Cells))
		for _, c := range row.Cells {
			cellWidth = max(cellWidth, runewidth.StringWidth(tileLabel(c)))
		}
	}
	// brackets plus one space each side
	cellWidth += 4

	lines := make([]Line, 0, len(f.Rows))
	for _, row := range f.Rows {
		indent := (longest - len(row.Cells)) * cellWidth / 2
		if row.Offset == board.OffsetRight {
			indent += cellWidth / 2
		}
		line := Line{Indent: indent, Spans: make([]Span, 0, len(row.Cells))}
		for _, c := range row.Cells {
			text := "[" + runewidth.FillRight(" "+tileLabel(c), cellWidth-2) + "]"
			line.Spans = append(line.Spans, Span{
				Text:        text,
				Kind:        SpanTile,
				Resource:    c.Resource,
				Highlighted: c.Highlighted,
			})
		}
		lines = append(lines, line)
	}
	return lines
}

// LayoutSelectors draws the dice panel as a single row.
func LayoutSelectors(selectors []board.Selector) Line {
	line := Line{Spans: make([]Span, 0, len(selectors))}
	for _, s := range selectors {
		text := strconv.Itoa(s.Value)
		if s.Robber {
			text = "R"
		}
		line.Spans = append(line.Spans, Span{
			Text:        "[" + runewidth.FillLeft(text, 2) + "]",
			Kind:        SpanSelector,
			Highlighted: s.Highlighted,
		})
	}
	return line
}

// Layout builds the whole screen: header, board, dice panel, rule toggles,
// key help and status.
func Layout(f board.Frame, a board.Affordances, status string) []Line {
	lines := []Line{textLine(header(f, a))}
	lines = append(lines, textLine(""))
	lines = append(lines, LayoutBoard(f)...)
	lines = append(lines, textLine(""))

	if a.NumbersVisible {
		lines = append(lines, LayoutSelectors(f.Selectors))
	}
	lines = append(lines, textLine(rulesLine(a)))
	lines = append(lines, textLine(helpLine(a)))
	if status != "" {
		lines = append(lines, textLine(status))
	}
	return lines
}

func textLine(s string) Line {
	if s == "" {
		return Line{}
	}
	return Line{Spans: []Span{{Text: s}}}
}

func header(f board.Frame, a board.Affordances) string {
	state := "waiting"
	if a.EndVisible {
		state = "in game"
	}
	selected := "none"
	if f.SelectedValue != 0 {
		selected = strconv.Itoa(f.SelectedValue)
	}
	return fmt.Sprintf("smartcatan  %s board  %s  selected: %s", f.Mode, state, selected)
}

func rulesLine(a board.Affordances) string {
	parts := make([]string, 0, len(board.AllRuleFlags))
	for i, flag := range board.AllRuleFlags {
		mark := " "
		if a.RuleToggles.Get(flag) {
			mark = "x"
		}
		parts = append(parts, fmt.Sprintf("%s[%s]%s", ruleKeys[i], mark, flag))
	}
	return strings.Join(parts, " ")
}

func helpLine(a board.Affordances) string {
	var keys []string
	if a.StartVisible {
		keys = append(keys, "s start")
	}
	if a.EndVisible {
		keys = append(keys, "e end")
	}
	if a.RollVisible {
		keys = append(keys, "r roll")
	}
	if a.NumbersVisible {
		keys = append(keys, "2-9 0 - = number")
	}
	if a.ModeSwitchEnabled {
		keys = append(keys, "C classic", "X extension")
	}
	keys = append(keys, "g refresh", "q quit")
	return strings.Join(keys, "  ")
}
