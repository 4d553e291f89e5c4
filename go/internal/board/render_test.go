package board_test

import (
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
)

func rowSizes(f board.Frame) []int {
	sizes := make([]int, len(f.Rows))
	for i, row := range f.Rows {
		sizes[i] = len(row.Cells)
	}
	return sizes
}

func TestRender_StandardGeometry(t *testing.T) {
	d := boardtest.ClassicDescription()
	f := board.Render(d, 0)

	require.Equal(t, []int{3, 4, 5, 4, 3}, rowSizes(f))
	tiles := f.Tiles()
	require.Len(t, tiles, 19)
	for i, cell := range tiles {
		require.Equal(t, i, cell.Index, "scan order must be preserved")
		require.Equal(t, d.Resources[i], cell.Resource)
	}
	for _, row := range f.Rows {
		require.Equal(t, board.OffsetNone, row.Offset)
	}
}

func TestRender_ExtendedGeometry(t *testing.T) {
	f := board.Render(boardtest.ExtensionDescription(), 0)

	require.Equal(t, []int{4, 5, 6, 6, 5, 4}, rowSizes(f))
	require.Len(t, f.Tiles(), 30)
	for i, row := range f.Rows {
		want := board.OffsetRight
		if i < 3 {
			want = board.OffsetLeft
		}
		require.Equal(t, want, row.Offset, "row %d", i)
	}
}

func TestRender_StopsWhenTilesRunOut(t *testing.T) {
	d := boardtest.ClassicDescription()
	d.Resources = d.Resources[:8]
	d.Numbers = d.Numbers[:10]

	f := board.Render(d, 0)
	require.Equal(t, []int{3, 4, 1}, rowSizes(f))
	require.Len(t, f.Tiles(), 8)
}

func TestRender_EmptyDescription(t *testing.T) {
	f := board.Render(board.Description{Mode: board.SizeExtended}, 5)
	require.Empty(t, f.Rows)
	require.Len(t, f.Selectors, len(board.SelectorValues))
}

func TestRender_Idempotent(t *testing.T) {
	d := boardtest.ExtensionDescription()
	for _, sel := range []int{0, 2, 6, 7, 8, 12} {
		first := board.Render(d, sel)
		second := board.Render(d, sel)
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("render(%d) not idempotent (-first +second):\n%s", sel, diff)
		}
	}
}

func TestRender_DesertShowsSentinel(t *testing.T) {
	d := boardtest.ClassicDescription()
	// a desert with a stray number must still show the sentinel
	d.Numbers[0] = 6

	for _, sel := range []int{0, 6} {
		tile := board.Render(d, sel).Tiles()[0]
		require.Equal(t, board.ResourceDesert, tile.Resource)
		require.Equal(t, board.NoTokenText, tile.Text)
		require.Equal(t, "desert", tile.ResourceClass)
		require.False(t, tile.Highlighted)
	}
}

func TestRender_HighlightClassification(t *testing.T) {
	d := boardtest.ExtensionDescription()
	values := append([]int{0}, board.SelectorValues...)

	for _, sel := range values {
		t.Run(strconv.Itoa(sel), func(t *testing.T) {
			f := board.Render(d, sel)
			for _, cell := range f.Tiles() {
				var want bool
				switch {
				case sel == 0:
					want = false
				case sel == board.RobberValue:
					want = true
				default:
					want = cell.Text == strconv.Itoa(sel)
				}
				require.Equal(t, want, cell.Highlighted, "tile %d (%s)", cell.Index, cell.Text)
			}
		})
	}
}

func TestRender_TileAndSelectorAgree(t *testing.T) {
	d := boardtest.ClassicDescription()
	for _, sel := range board.SelectorValues {
		if sel == board.RobberValue {
			continue
		}
		f := board.Render(d, sel)
		lit := map[int]bool{}
		for _, s := range f.Selectors {
			lit[s.Value] = s.Highlighted
		}
		for _, cell := range f.Tiles() {
			n, err := strconv.Atoi(cell.Text)
			if err != nil {
				continue
			}
			require.Equal(t, lit[n], cell.Highlighted, "tile %d shows %d with %d selected", cell.Index, n, sel)
		}
	}
}

func TestRender_Scenarios(t *testing.T) {
	d := boardtest.ClassicDescription()

	t.Run("nothing selected", func(t *testing.T) {
		f := board.Render(d, 0)
		first := f.Tiles()[0]
		require.Equal(t, board.NoTokenText, first.Text)
		for _, cell := range f.Tiles() {
			require.False(t, cell.Highlighted)
		}
	})

	t.Run("six selected", func(t *testing.T) {
		tiles := board.Render(d, 6).Tiles()
		require.Equal(t, "6", tiles[8].Text)
		require.True(t, tiles[8].Highlighted)
		require.Equal(t, "8", tiles[10].Text)
		require.False(t, tiles[10].Highlighted)
	})

	t.Run("robber selected", func(t *testing.T) {
		f := board.Render(d, board.RobberValue)
		for _, cell := range f.Tiles() {
			require.True(t, cell.Highlighted)
		}
		for _, s := range f.Selectors {
			require.Equal(t, s.Value == board.RobberValue, s.Highlighted, "selector %d", s.Value)
		}
	})
}

func TestSizeMode_TileCount(t *testing.T) {
	require.Equal(t, 19, board.SizeStandard.TileCount())
	require.Equal(t, 30, board.SizeExtended.TileCount())

	lengths := board.SizeStandard.RowLengths()
	lengths[0] = 99
	require.Equal(t, []int{3, 4, 5, 4, 3}, board.SizeStandard.RowLengths(), "row table must not be shared")
}
