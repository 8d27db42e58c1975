package repository

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrWrite  = errors.New("catalog write failed")
	ErrEncode = errors.New("catalog encode failed")
)
