// Package repository reads and writes per-match JSON files.
package repository

import (
	"context"

	"github.com/okian/epvprep/internal/domain/model"
)

// Store provides access to one stage directory. Each match is one file
// named <match id>.json holding a JSON array.
type Store interface {
	// Dir returns the directory backing the store.
	Dir() string

	// ListMatches returns the match ids present, sorted.
	ListMatches(ctx context.Context) ([]string, error)

	// Exists reports whether the match file is present.
	Exists(ctx context.Context, matchID string) bool

	// ReadEvents loads a match's events. Returns ErrMissingInput when the
	// file does not exist and ErrMalformedInput when it does not decode.
	ReadEvents(ctx context.Context, matchID string) ([]model.Event, error)

	// ReadFrames loads a match's 360 frames with the same error kinds as
	// ReadEvents.
	ReadFrames(ctx context.Context, matchID string) ([]model.TrackingFrame, error)

	// WriteEvents replaces the match file in one rename.
	WriteEvents(ctx context.Context, matchID string, events []model.Event) error

	// Lock takes the directory's exclusive lock. Returns ErrLocked when
	// another process holds it.
	Lock(ctx context.Context) (Unlock, error)
}

// Unlock releases a directory lock.
type Unlock func() error
