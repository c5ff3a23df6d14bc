package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrMissingInput   = errors.New("missing input")
	ErrMalformedInput = errors.New("malformed input")
	ErrLocked         = errors.New("stage directory locked")
	ErrInvalidMatchID = errors.New("invalid match id")
)
