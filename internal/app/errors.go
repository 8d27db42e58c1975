package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrFileNotFound = errors.New("file not found")
	ErrInvalidInput = errors.New("invalid input")
)
