package board_client

import "errors"

var (
	// ErrTransport covers unreachable devices and non-2xx answers.
	ErrTransport = errors.New("board transport failure")
	// ErrMalformed covers bodies that do not have the expected shape.
	ErrMalformed = errors.New("malformed board response")
)
