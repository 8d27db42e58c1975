package model

import (
	"fmt"
	"strconv"
	"strings"
)

// inputRange is the accepted entry range of a user-editable numeric field.
type inputRange struct {
	min, max float64
}

var inputRanges = map[Field]inputRange{
	FieldSprint30mTime:        {0.1, 99.99},
	FieldMedicineBallForward:  {0, 30},
	FieldMedicineBallBackward: {0, 30},
	FieldFiveJumpDistance:     {0, 25},
	FieldHandThrowDistance:    {0, 60},
	FieldHandThrowScore:       {0, 80},
	FieldEnvelopeTime:         {0.1, 999.9},
	FieldEnvelopeScore:        {0, 80},
}

// ParseValue turns form input into a Value for field. Name fields keep the
// string as typed. For numeric fields blank input clears the value and text
// that is not a finite number is treated as blank.
func ParseValue(field Field, raw string) (Value, error) {
	switch field.Kind() {
	case KindUnknown:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	case KindText:
		return Text(raw), nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(f) {
		return Null(), nil
	}
	return Number(f), nil
}

// ValidateInput checks a user entry against the accepted range of field.
// Null values and text fields always pass; derived fields are rejected.
func ValidateInput(field Field, v Value) error {
	switch field.Kind() {
	case KindUnknown:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	case KindDerived:
		return fmt.Errorf("%w: %s", ErrDerivedField, field)
	case KindText:
		if !v.isText {
			return fmt.Errorf("%w: %s expects text", ErrValueKind, field)
		}
		return nil
	}
	if v.isText {
		return fmt.Errorf("%w: %s expects a number", ErrValueKind, field)
	}
	if v.number == nil {
		return nil
	}
	n := *v.number
	if !finite(n) {
		return fmt.Errorf("%w: %s", ErrNonFinite, field)
	}
	r, ok := inputRanges[field]
	if ok && (n < r.min || n > r.max) {
		return &RangeError{Field: field, Value: n, Min: r.min, Max: r.max}
	}
	return nil
}
