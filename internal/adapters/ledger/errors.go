package ledger

import "errors"

// Sentinel kinds for ledger errors.
var (
	ErrSchemaMismatch = errors.New("ledger schema version mismatch")
	ErrInvalidRun     = errors.New("invalid run")
)
