// Package scoring maps raw fitness test measurements to point scores using
// fixed piecewise step tables.
//
// Raw values often arrive as decimal strings whose binary form is not exactly
// the breakpoint they denote, so every boundary comparison is made with an
// absolute tolerance of EPS.
package scoring

import "math"

// EPS is the absolute tolerance used for every breakpoint comparison.
const EPS = 1e-9

// Score bounds.
const (
	MaxScore = 80
	MinScore = 0
)

// Direction tells whether smaller or larger measurements are better.
type Direction int

const (
	// LowerIsBetter is used for timed tests.
	LowerIsBetter Direction = iota
	// HigherIsBetter is used for distance tests.
	HigherIsBetter
)

// Test names a test that has an automatic score table.
type Test string

// Tests with score tables.
const (
	TestSprint30m    Test = "sprint30m"
	TestMedicineBall Test = "medicineBall"
	TestFiveJump     Test = "fiveJump"
)

// Segment is one linear stretch of a table. Starting at From, every started
// Step of distance costs one point below Top. The segment covers values up to
// and including To (in the direction of getting worse) and never scores below
// Floor.
type Segment struct {
	From  float64
	To    float64
	Step  float64
	Top   int
	Floor int
}

// Table is a monotonic step function from measurement to score.
type Table struct {
	Name      Test
	Direction Direction
	// Best is the mark at or beyond which MaxScore is awarded.
	Best     float64
	Segments []Segment
}

// Score returns the integer score for a finite measurement. Callers must not
// pass NaN or infinities.
func (t Table) Score(x float64) int {
	if t.reaches(x, t.Best) {
		return MaxScore
	}
	for _, s := range t.Segments {
		if !t.reaches(x, s.To) {
			continue
		}
		steps := int(math.Ceil(t.distance(x, s.From)/s.Step - EPS))
		return max(s.Top-steps, s.Floor)
	}
	return MinScore
}

// reaches reports whether x is at mark or better, with tolerance.
func (t Table) reaches(x, mark float64) bool {
	if t.Direction == LowerIsBetter {
		return x <= mark+EPS
	}
	return x >= mark-EPS
}

// distance is how far x lies on the worse side of from.
func (t Table) distance(x, from float64) float64 {
	if t.Direction == LowerIsBetter {
		return x - from
	}
	return from - x
}

// Sprint30m scores the 30 m sprint time in seconds.
var Sprint30m = Table{
	Name:      TestSprint30m,
	Direction: LowerIsBetter,
	Best:      3.70,
	Segments: []Segment{
		{From: 3.70, To: 4.60, Step: 0.02, Top: 80, Floor: 35},
		{From: 4.60, To: 5.20, Step: 0.04, Top: 35, Floor: 20},
		{From: 5.20, To: 5.50, Step: 0.05, Top: 20, Floor: 14},
		{From: 5.50, To: 5.90, Step: 0.10, Top: 14, Floor: 10},
	},
}

// MedicineBall scores the sum of the forward and backward medicine-ball
// throws in meters.
var MedicineBall = Table{
	Name:      TestMedicineBall,
	Direction: HigherIsBetter,
	Best:      30.00,
	Segments: []Segment{
		{From: 30.00, To: 21.00, Step: 0.20, Top: 80, Floor: 35},
		{From: 21.00, To: 18.00, Step: 0.20, Top: 35, Floor: 20},
		{From: 18.00, To: 16.60, Step: 0.20, Top: 20, Floor: 14},
		{From: 16.60, To: 14.50, Step: 0.50, Top: 14, Floor: 10},
	},
}

// FiveJump scores the five-jump distance in meters.
var FiveJump = Table{
	Name:      TestFiveJump,
	Direction: HigherIsBetter,
	Best:      13.50,
	Segments: []Segment{
		{From: 13.50, To: 11.50, Step: 0.05, Top: 80, Floor: 40},
		{From: 11.50, To: 11.00, Step: 0.10, Top: 40, Floor: 35},
		{From: 11.00, To: 9.50, Step: 0.10, Top: 35, Floor: 20},
		{From: 9.50, To: 7.80, Step: 0.20, Top: 20, Floor: 10},
	},
}

// Sprint30mScore returns the sprint score for a time in seconds.
func Sprint30mScore(time float64) int { return Sprint30m.Score(time) }

// MedicineBallScore returns the medicine-ball score for a throw sum in meters.
func MedicineBallScore(sum float64) int { return MedicineBall.Score(sum) }

// FiveJumpScore returns the five-jump score for a distance in meters.
func FiveJumpScore(distance float64) int { return FiveJump.Score(distance) }

// Lookup returns the table for a test name.
func Lookup(test Test) (Table, bool) {
	switch test {
	case TestSprint30m:
		return Sprint30m, true
	case TestMedicineBall:
		return MedicineBall, true
	case TestFiveJump:
		return FiveJump, true
	default:
		return Table{}, false
	}
}

// Tests lists every test with a score table.
func Tests() []Test {
	return []Test{TestSprint30m, TestMedicineBall, TestFiveJump}
}
