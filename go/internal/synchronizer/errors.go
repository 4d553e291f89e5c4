package synchronizer

import "errors"

var (
	ErrNoSnapshot     = errors.New("no snapshot received yet")
	ErrModeMismatch   = errors.New("device answered with a different board size")
	ErrInvalidValue   = errors.New("number must be between 2 and 12")
	ErrAlreadyStarted = errors.New("synchronizer already started")
)
