// Package boardtest provides well-formed boards for tests.
package boardtest

import (
	"slices"

	"github.com/mcdev12/smartcatan/go/internal/board"
)

var classicTokens = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

var extensionTokens = []int{2, 3, 3, 3, 4, 4, 4, 5, 5, 5, 6, 6, 6, 6,
	8, 8, 8, 8, 9, 9, 9, 10, 10, 10, 11, 11, 11, 12}

// ClassicDescription returns a 19 tile board with the desert on tile 0,
// resources cycling 0..4 after it, and the classic tokens in ascending order.
// Tiles 8 and 9 carry 6, tiles 10 and 11 carry 8.
func ClassicDescription() board.Description {
	res := []board.Resource{board.ResourceDesert}
	res = append(res, cycle([]int{4, 4, 4, 3, 3})...)
	return board.Description{
		Mode:      board.SizeStandard,
		Resources: res,
		Numbers:   assignTokens(res, classicTokens),
	}
}

// ExtensionDescription returns a 30 tile board with deserts on tiles 0 and 15.
func ExtensionDescription() board.Description {
	res := cycle([]int{6, 6, 6, 5, 5})
	res = slices.Insert(res, 0, board.ResourceDesert)
	res = slices.Insert(res, 15, board.ResourceDesert)
	return board.Description{
		Mode:      board.SizeExtended,
		Resources: res,
		Numbers:   assignTokens(res, extensionTokens),
	}
}

// Classic wraps ClassicDescription in an idle session.
func Classic() board.Snapshot {
	return board.Snapshot{
		Board: ClassicDescription(),
		Session: board.Session{
			Rules: board.RuleFlags{
				EightSixCanTouch:     true,
				TwoTwelveCanTouch:    true,
				SameNumbersCanTouch:  true,
				SameResourceCanTouch: true,
			},
		},
	}
}

// Extension wraps ExtensionDescription in an idle session.
func Extension() board.Snapshot {
	s := Classic()
	s.Board = ExtensionDescription()
	return s
}

// cycle deals resources round robin until every count is used up.
func cycle(counts []int) []board.Resource {
	left := slices.Clone(counts)
	total := 0
	for _, n := range left {
		total += n
	}
	out := make([]board.Resource, 0, total)
	for len(out) < total {
		for r := range left {
			if left[r] > 0 {
				out = append(out, board.Resource(r))
				left[r]--
			}
		}
	}
	return out
}

func assignTokens(res []board.Resource, tokens []int) []int {
	numbers := make([]int, len(res))
	next := 0
	for i, r := range res {
		if r == board.ResourceDesert {
			numbers[i] = board.NoToken
			continue
		}
		numbers[i] = tokens[next]
		next++
	}
	return numbers
}
