package board

import "fmt"

// Validate checks the description against its size mode. A desert tile
// must carry NoToken and every other tile a value in 2..12 other than 7.
func (d Description) Validate() error {
	if !d.Mode.Valid() {
		return ErrInvalidMode
	}
	want := d.Mode.TileCount()
	if len(d.Resources) != want || len(d.Numbers) != want {
		return fmt.Errorf("%w: %s board wants %d tiles, got %d resources and %d numbers",
			ErrTileCount, d.Mode, want, len(d.Resources), len(d.Numbers))
	}
	for i, res := range d.Resources {
		if !res.Valid() {
			return fmt.Errorf("%w: tile %d has code %d", ErrInvalidResource, i, int(res))
		}
		n := d.Numbers[i]
		if res == ResourceDesert {
			if n != NoToken {
				return fmt.Errorf("%w: desert tile %d carries %d", ErrInvalidNumber, i, n)
			}
			continue
		}
		if n < MinValue || n > MaxValue || n == RobberValue {
			return fmt.Errorf("%w: tile %d carries %d", ErrInvalidNumber, i, n)
		}
	}
	return nil
}

// Validate checks the board and session together.
func (s Snapshot) Validate() error {
	if err := s.Board.Validate(); err != nil {
		return err
	}
	if !ValidSelection(s.Session.SelectedValue) {
		return fmt.Errorf("%w: %d", ErrInvalidSelected, s.Session.SelectedValue)
	}
	return nil
}
