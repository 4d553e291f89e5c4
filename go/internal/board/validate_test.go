package board_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mcdev12/smartcatan/go/internal/board"
	"github.com/mcdev12/smartcatan/go/internal/board/boardtest"
)

func TestDescriptionValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(d *board.Description)
		wantErr error
	}{
		{name: "well formed", mutate: func(d *board.Description) {}},
		{
			name:    "extension flag with classic tile count",
			mutate:  func(d *board.Description) { d.Mode = board.SizeExtended },
			wantErr: board.ErrTileCount,
		},
		{
			name:    "numbers shorter than resources",
			mutate:  func(d *board.Description) { d.Numbers = d.Numbers[:18] },
			wantErr: board.ErrTileCount,
		},
		{
			name:    "unknown resource",
			mutate:  func(d *board.Description) { d.Resources[3] = 9 },
			wantErr: board.ErrInvalidResource,
		},
		{
			name:    "desert with token",
			mutate:  func(d *board.Description) { d.Numbers[0] = 4 },
			wantErr: board.ErrInvalidNumber,
		},
		{
			name:    "seven token",
			mutate:  func(d *board.Description) { d.Numbers[5] = 7 },
			wantErr: board.ErrInvalidNumber,
		},
		{
			name:    "unknown mode",
			mutate:  func(d *board.Description) { d.Mode = 4 },
			wantErr: board.ErrInvalidMode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := boardtest.ClassicDescription()
			tc.mutate(&d)
			err := d.Validate()
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSnapshotValidate(t *testing.T) {
	require.NoError(t, boardtest.Extension().Validate())

	s := boardtest.Classic()
	s.Session.SelectedValue = 13
	require.ErrorIs(t, s.Validate(), board.ErrInvalidSelected)
}

func TestSnapshotWithSelectedValue(t *testing.T) {
	s := boardtest.Classic()
	next := s.WithSelectedValue(9)

	require.Equal(t, 9, next.Session.SelectedValue)
	require.Zero(t, s.Session.SelectedValue)

	next.Board.Numbers[1] = 11
	require.Equal(t, 2, s.Board.Numbers[1], "copies must not share tile slices")
}
