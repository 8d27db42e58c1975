package model

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownField = errors.New("unknown field")
	ErrDerivedField = errors.New("derived field is not settable")
	ErrValueKind    = errors.New("value kind does not match field")
	ErrNonFinite    = errors.New("value is not a finite number")
	ErrOutOfRange   = errors.New("value out of range")
	ErrLastGroup    = errors.New("cannot remove the last group")
	ErrIndex        = errors.New("index out of range")
)

// RangeError reports an entry outside the accepted range of a field.
type RangeError struct {
	Field Field
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: %g not in [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }
