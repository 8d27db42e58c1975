package kv

import "errors"

// Sentinel kinds for key/value backend errors.
var (
	ErrEmptyKey      = errors.New("empty key")
	ErrInvalidKey    = errors.New("invalid key")
	ErrUnknownDriver = errors.New("unknown store driver")
	ErrMissingConfig = errors.New("missing store configuration")
	ErrClosed        = errors.New("store closed")
)
