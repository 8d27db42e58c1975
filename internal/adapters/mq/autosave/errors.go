package autosave

import "errors"

// Sentinel kinds for scheduler errors.
var (
	ErrStopped = errors.New("autosave scheduler stopped")
)
