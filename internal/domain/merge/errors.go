package merge

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrDuplicateKey  = errors.New("duplicate join key")
	ErrUnknownPolicy = errors.New("unknown duplicate policy")
)
