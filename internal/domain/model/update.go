package model

import (
	"fmt"

	"github.com/okian/handball/internal/domain/scoring"
)

// Value is the raw input of a single field update.
type Value struct {
	text   string
	number *float64
	isText bool
}

// Text wraps a string for a name field.
func Text(s string) Value { return Value{text: s, isText: true} }

// Number wraps a measurement or manual score.
func Number(f float64) Value { return Value{number: &f} }

// Null clears a numeric field.
func Null() Value { return Value{} }

// IsNull reports whether v clears a numeric field.
func (v Value) IsNull() bool { return !v.isText && v.number == nil }

// IsText reports whether v carries a string.
func (v Value) IsText() bool { return v.isText }

// String returns the text payload.
func (v Value) String() string { return v.text }

// Float returns the numeric payload, nil for Null or text values.
func (v Value) Float() *float64 { return clonePtr(v.number) }

// ApplyFieldUpdate returns a copy of p with field set to v and every dependent
// derived field recomputed. p itself is left untouched.
func ApplyFieldUpdate(p Player, field Field, v Value) (Player, error) {
	switch field.Kind() {
	case KindUnknown:
		return p, fmt.Errorf("%w: %q", ErrUnknownField, field)
	case KindDerived:
		return p, fmt.Errorf("%w: %s", ErrDerivedField, field)
	case KindText:
		if !v.isText {
			return p, fmt.Errorf("%w: %s expects text", ErrValueKind, field)
		}
		out := p.clone()
		out.SetText(field, TruncateName(v.text))
		return out, nil
	}

	if v.isText {
		return p, fmt.Errorf("%w: %s expects a number", ErrValueKind, field)
	}
	if v.number != nil && !finite(*v.number) {
		return p, fmt.Errorf("%w: %s", ErrNonFinite, field)
	}

	out := p.clone()
	out.SetNumber(field, v.number)

	switch field {
	case FieldSprint30mTime:
		out.Sprint30mScore = scoreOf(scoring.Sprint30m, out.Sprint30mTime)
	case FieldMedicineBallForward, FieldMedicineBallBackward:
		out.MedicineBallSum = medicineBallSum(out.MedicineBallForward, out.MedicineBallBackward)
		out.MedicineBallScore = scoreOf(scoring.MedicineBall, out.MedicineBallSum)
	case FieldFiveJumpDistance:
		out.FiveJumpScore = scoreOf(scoring.FiveJump, out.FiveJumpDistance)
	}
	return out, nil
}
