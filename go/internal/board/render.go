package board

import (
	"slices"
	"strconv"
)

var rowLengths = map[SizeMode][]int{
	SizeStandard: {3, 4, 5, 4, 3},
	SizeExtended: {4, 5, 6, 6, 5, 4},
}

// RowLengths returns the number of tiles in each row, top to bottom.
func (m SizeMode) RowLengths() []int {
	return slices.Clone(rowLengths[m])
}

// TileCount returns the total number of tiles for the mode.
func (m SizeMode) TileCount() int {
	total := 0
	for _, n := range rowLengths[m] {
		total += n
	}
	return total
}

// RowOffset shifts a row sideways to form the extension board's two lobes.
type RowOffset string

const (
	OffsetNone  RowOffset = ""
	OffsetLeft  RowOffset = "left"
	OffsetRight RowOffset = "right"
)

// Cell is one rendered tile.
type Cell struct {
	Index         int      `json:"index"`
	Resource      Resource `json:"resource"`
	ResourceClass string   `json:"resourceClass"`
	Text          string   `json:"text"`
	Highlighted   bool     `json:"highlighted"`
}

// Row is one rendered row of tiles.
type Row struct {
	Offset RowOffset `json:"offset,omitempty"`
	Cells  []Cell    `json:"cells"`
}

// Frame is everything needed to draw the board for one selected value.
// It is derived on every render and never stored.
type Frame struct {
	Mode          SizeMode   `json:"mode"`
	SelectedValue int        `json:"selectedValue"`
	Rows          []Row      `json:"rows"`
	Selectors     []Selector `json:"selectors"`
}

// Render lays out the description row by row and classifies every tile
// against selected. Tiles are consumed in one scan; rendering stops early
// if the description holds fewer tiles than the geometry expects.
func Render(d Description, selected int) Frame {
	lengths := rowLengths[d.Mode]
	available := min(len(d.Resources), len(d.Numbers))
	mid := len(lengths) / 2

	rows := make([]Row, 0, len(lengths))
	next := 0
	for r, length := range lengths {
		if next >= available {
			break
		}
		row := Row{Offset: rowOffset(d.Mode, r, mid), Cells: make([]Cell, 0, length)}
		for c := 0; c < length && next < available; c++ {
			row.Cells = append(row.Cells, renderCell(next, d.Resources[next], d.Numbers[next], selected))
			next++
		}
		rows = append(rows, row)
	}

	return Frame{
		Mode:          d.Mode,
		SelectedValue: selected,
		Rows:          rows,
		Selectors:     ClassifySelectors(selected),
	}
}

func rowOffset(mode SizeMode, row, mid int) RowOffset {
	if mode != SizeExtended {
		return OffsetNone
	}
	if row < mid {
		return OffsetLeft
	}
	return OffsetRight
}

func renderCell(index int, res Resource, number, selected int) Cell {
	text := TileText(res, number)
	return Cell{
		Index:         index,
		Resource:      res,
		ResourceClass: res.Class(),
		Text:          text,
		Highlighted:   TileHighlighted(text, selected),
	}
}

// TileText is the label shown on a tile.
func TileText(res Resource, number int) string {
	if res == ResourceDesert || number == NoToken {
		return NoTokenText
	}
	return strconv.Itoa(number)
}

// TileHighlighted classifies a tile by its label. Nothing is highlighted
// while no value is selected, everything is while the robber is.
func TileHighlighted(text string, selected int) bool {
	if selected == 0 {
		return false
	}
	if selected == RobberValue {
		return true
	}
	return text == strconv.Itoa(selected)
}

// Tiles flattens the frame back into scan order.
func (f Frame) Tiles() []Cell {
	var cells []Cell
	for _, row := range f.Rows {
		cells = append(cells, row.Cells...)
	}
	return cells
}
