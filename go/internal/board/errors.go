package board

import "errors"

var (
	ErrInvalidMode     = errors.New("invalid board size mode")
	ErrUnknownRuleFlag = errors.New("unknown rule flag")
	ErrTileCount       = errors.New("tile count does not match board size")
	ErrInvalidResource = errors.New("invalid resource code")
	ErrInvalidNumber   = errors.New("invalid number token")
	ErrInvalidSelected = errors.New("invalid selected value")
)
