package model

// Field names a Player field. Values match the JSON names.
type Field string

// Player fields in spreadsheet column order.
const (
	FieldFirstName            Field = "firstName"
	FieldLastName             Field = "lastName"
	FieldSprint30mTime        Field = "sprint30m_time"
	FieldSprint30mScore       Field = "sprint30m_score"
	FieldMedicineBallForward  Field = "medicineBall_forward"
	FieldMedicineBallBackward Field = "medicineBall_backward"
	FieldMedicineBallSum      Field = "medicineBall_sum"
	FieldMedicineBallScore    Field = "medicineBall_score"
	FieldFiveJumpDistance     Field = "fiveJump_distance"
	FieldFiveJumpScore        Field = "fiveJump_score"
	FieldHandThrowDistance    Field = "handThrow_distance"
	FieldHandThrowScore       Field = "handThrow_score"
	FieldEnvelopeTime         Field = "envelope_time"
	FieldEnvelopeScore        Field = "envelope_score"
)

// Fields lists every field in the fixed column order.
var Fields = []Field{
	FieldFirstName,
	FieldLastName,
	FieldSprint30mTime,
	FieldSprint30mScore,
	FieldMedicineBallForward,
	FieldMedicineBallBackward,
	FieldMedicineBallSum,
	FieldMedicineBallScore,
	FieldFiveJumpDistance,
	FieldFiveJumpScore,
	FieldHandThrowDistance,
	FieldHandThrowScore,
	FieldEnvelopeTime,
	FieldEnvelopeScore,
}

// Kind classifies how a field may be written.
type Kind int

const (
	// KindUnknown is returned for names that are not Player fields.
	KindUnknown Kind = iota
	// KindText is a free-text name.
	KindText
	// KindRaw is a measurement entered by the user.
	KindRaw
	// KindManual is a score entered by the user, never computed.
	KindManual
	// KindDerived is computed from raw fields and cannot be set directly.
	KindDerived
)

// Kind returns the field's classification.
func (f Field) Kind() Kind {
	switch f {
	case FieldFirstName, FieldLastName:
		return KindText
	case FieldSprint30mTime, FieldMedicineBallForward, FieldMedicineBallBackward,
		FieldFiveJumpDistance, FieldHandThrowDistance, FieldEnvelopeTime:
		return KindRaw
	case FieldHandThrowScore, FieldEnvelopeScore:
		return KindManual
	case FieldSprint30mScore, FieldMedicineBallSum, FieldMedicineBallScore, FieldFiveJumpScore:
		return KindDerived
	default:
		return KindUnknown
	}
}

// Valid reports whether f names a Player field.
func (f Field) Valid() bool { return f.Kind() != KindUnknown }

// Numeric reports whether the field holds a number.
func (f Field) Numeric() bool {
	k := f.Kind()
	return k == KindRaw || k == KindManual || k == KindDerived
}

// Text returns the value of a text field, or "" for any other field.
func (p *Player) Text(f Field) string {
	switch f {
	case FieldFirstName:
		return p.FirstName
	case FieldLastName:
		return p.LastName
	default:
		return ""
	}
}

// SetText sets a text field. Other fields are ignored.
func (p *Player) SetText(f Field, s string) {
	switch f {
	case FieldFirstName:
		p.FirstName = s
	case FieldLastName:
		p.LastName = s
	}
}

// Number returns the value of a numeric field, or nil for any other field.
func (p *Player) Number(f Field) *float64 {
	if slot := p.numberSlot(f); slot != nil {
		return *slot
	}
	return nil
}

// SetNumber sets a numeric field without any recompute. Other fields are
// ignored.
func (p *Player) SetNumber(f Field, v *float64) {
	if slot := p.numberSlot(f); slot != nil {
		*slot = clonePtr(v)
	}
}

func (p *Player) numberSlot(f Field) **float64 {
	switch f {
	case FieldSprint30mTime:
		return &p.Sprint30mTime
	case FieldSprint30mScore:
		return &p.Sprint30mScore
	case FieldMedicineBallForward:
		return &p.MedicineBallForward
	case FieldMedicineBallBackward:
		return &p.MedicineBallBackward
	case FieldMedicineBallSum:
		return &p.MedicineBallSum
	case FieldMedicineBallScore:
		return &p.MedicineBallScore
	case FieldFiveJumpDistance:
		return &p.FiveJumpDistance
	case FieldFiveJumpScore:
		return &p.FiveJumpScore
	case FieldHandThrowDistance:
		return &p.HandThrowDistance
	case FieldHandThrowScore:
		return &p.HandThrowScore
	case FieldEnvelopeTime:
		return &p.EnvelopeTime
	case FieldEnvelopeScore:
		return &p.EnvelopeScore
	default:
		return nil
	}
}
