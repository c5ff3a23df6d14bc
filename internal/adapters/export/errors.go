package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrFreezeFrame = errors.New("undecodable freeze frame")
)
