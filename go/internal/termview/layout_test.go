package termview

import (
	"strings"
	"testing"

	"github.com/nsf/termbox-go"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
)

func indents(lines []Line) []int {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = l.Indent
	}
	return out
}

func TestLayoutBoard_Classic(t *testing.T) {
	lines := LayoutBoard(board.Render(boardtest.ClassicDescription(), 6))

	require.Equal(t, []int{9, 4, 0, 4, 9}, indents(lines))
	for _, l := range lines {
		for _, s := range l.Spans {
			require.Equal(t, SpanTile, s.Kind)
			require.Len(t, s.Text, 9)
		}
	}

	require.Equal(t, "[ DS -- ]", lines[0].Spans[0].Text)
	require.Equal(t, "[ SH 2  ]", lines[0].Spans[1].Text)

	var highlighted []string
	for _, l := range lines {
		for _, s := range l.Spans {
			if s.Highlighted {
				highlighted = append(highlighted, strings.TrimSpace(strings.Trim(s.Text, "[]")))
			}
		}
	}
	require.Len(t, highlighted, 2)
	for _, text := range highlighted {
		require.True(t, strings.HasSuffix(text, " 6"), text)
	}
}

func TestLayoutBoard_ExtensionLobes(t *testing.T) {
	lines := LayoutBoard(board.Render(boardtest.ExtensionDescription(), 0))

	// left lobe centred, right lobe pushed half a tile
	require.Equal(t, []int{9, 4, 0, 4, 8, 13}, indents(lines))
	require.Equal(t, lines[2].Width(), lines[3].Width()-4)
}

func TestLayoutSelectors(t *testing.T) {
	line := LayoutSelectors(board.ClassifySelectors(7))

	require.Len(t, line.Spans, 11)
	require.Equal(t, "[ 2]", line.Spans[0].Text)
	require.Equal(t, "[ R]", line.Spans[5].Text)
	require.Equal(t, "[12]", line.Spans[10].Text)
	for i, s := range line.Spans {
		require.Equal(t, i == 5, s.Highlighted)
	}
}

func TestLayout_Sections(t *testing.T) {
	s := boardtest.Classic()
	f := board.Render(s.Board, 0)

	idle := Layout(f, board.DeriveAffordances(s.Session), "")
	require.Len(t, idle, 1+1+5+1+2)
	require.Contains(t, idle[0].Spans[0].Text, "classic board  waiting  selected: none")
	require.Contains(t, idle[len(idle)-2].Spans[0].Text, "![x]eightSixCanTouch")
	require.Contains(t, idle[len(idle)-2].Spans[0].Text, "%[ ]manualDice")
	require.Contains(t, idle[len(idle)-1].Spans[0].Text, "s start")
	require.NotContains(t, idle[len(idle)-1].Spans[0].Text, "r roll")

	s.Session.Active = true
	s.Session.Rules.ManualDice = true
	s.Session.SelectedValue = 8
	f = board.Render(s.Board, 8)
	playing := Layout(f, board.DeriveAffordances(s.Session), "roll failed")
	require.Len(t, playing, 1+1+5+1+1+2+1)
	require.Contains(t, playing[0].Spans[0].Text, "in game  selected: 8")
	require.Equal(t, SpanSelector, playing[8].Spans[0].Kind)
	help := playing[len(playing)-2].Spans[0].Text
	require.Contains(t, help, "r roll")
	require.NotContains(t, help, "C classic")
	require.Equal(t, "roll failed", playing[len(playing)-1].Spans[0].Text)
}

func TestSpanStyle(t *testing.T) {
	fg, bg := spanStyle(Span{Text: "x"})
	require.Equal(t, termbox.ColorDefault, fg)
	require.Equal(t, termbox.ColorDefault, bg)

	fg, _ = spanStyle(Span{Kind: SpanTile, Resource: board.ResourceBrick})
	require.Equal(t, termbox.ColorRed, fg)

	fg, _ = spanStyle(Span{Kind: SpanTile, Resource: board.ResourceWheat, Highlighted: true})
	require.Equal(t, termbox.ColorYellow|termbox.AttrReverse|termbox.AttrBold, fg)
}
