package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrUnknownStage = errors.New("unknown stage")
	ErrNoMatches    = errors.New("no match files")
)
