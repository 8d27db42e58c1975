// Package model contains the player and group records and the rules that keep
// derived fields consistent with raw measurements.
package model

import (
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/okian/handball/internal/domain/scoring"
)

// MaxNameLength caps first and last names, in runes.
const MaxNameLength = 15

// Player is one test subject's measurement record. Nil numbers are absent.
type Player struct {
	FirstName string `json:"firstName" yaml:"firstName"`
	LastName  string `json:"lastName" yaml:"lastName"`

	Sprint30mTime  *float64 `json:"sprint30m_time" yaml:"sprint30m_time"`
	Sprint30mScore *float64 `json:"sprint30m_score" yaml:"sprint30m_score"` // derived

	MedicineBallForward  *float64 `json:"medicineBall_forward" yaml:"medicineBall_forward"`
	MedicineBallBackward *float64 `json:"medicineBall_backward" yaml:"medicineBall_backward"`
	MedicineBallSum      *float64 `json:"medicineBall_sum" yaml:"medicineBall_sum"`     // derived
	MedicineBallScore    *float64 `json:"medicineBall_score" yaml:"medicineBall_score"` // derived

	FiveJumpDistance *float64 `json:"fiveJump_distance" yaml:"fiveJump_distance"`
	FiveJumpScore    *float64 `json:"fiveJump_score" yaml:"fiveJump_score"` // derived

	HandThrowDistance *float64 `json:"handThrow_distance" yaml:"handThrow_distance"`
	HandThrowScore    *float64 `json:"handThrow_score" yaml:"handThrow_score"` // manual

	EnvelopeTime  *float64 `json:"envelope_time" yaml:"envelope_time"`
	EnvelopeScore *float64 `json:"envelope_score" yaml:"envelope_score"` // manual
}

// Group is a named, ordered list of players. Row order is significant.
type Group struct {
	Name    string   `json:"name" yaml:"name"`
	Players []Player `json:"players" yaml:"players"`
}

// NewPlayer returns a player with every field empty.
func NewPlayer() Player { return Player{} }

// NewGroup returns an empty group.
func NewGroup(name string) Group {
	return Group{Name: name, Players: []Player{}}
}

// DefaultGroupName is the generated name of the n-th group (1-based).
func DefaultGroupName(n int) string {
	return fmt.Sprintf("Grupa %d", n)
}

// DefaultGroups is the group list of a freshly created file.
func DefaultGroups() []Group {
	return []Group{NewGroup(DefaultGroupName(1))}
}

// TruncateName cuts s to MaxNameLength runes.
func TruncateName(s string) string {
	if utf8.RuneCountInString(s) <= MaxNameLength {
		return s
	}
	return string([]rune(s)[:MaxNameLength])
}

// Float returns a pointer to v; handy for building records.
func Float(v float64) *float64 { return &v }

// Recompute returns a copy of p with every derived field rebuilt from the raw
// fields.
func Recompute(p Player) Player {
	out := p.clone()
	out.Sprint30mScore = scoreOf(scoring.Sprint30m, out.Sprint30mTime)
	out.MedicineBallSum = medicineBallSum(out.MedicineBallForward, out.MedicineBallBackward)
	out.MedicineBallScore = scoreOf(scoring.MedicineBall, out.MedicineBallSum)
	out.FiveJumpScore = scoreOf(scoring.FiveJump, out.FiveJumpDistance)
	return out
}

// Consistent reports whether p's derived fields match its raw fields.
func Consistent(p Player) bool {
	want := Recompute(p)
	return equalPtr(p.Sprint30mScore, want.Sprint30mScore) &&
		equalPtr(p.MedicineBallSum, want.MedicineBallSum) &&
		equalPtr(p.MedicineBallScore, want.MedicineBallScore) &&
		equalPtr(p.FiveJumpScore, want.FiveJumpScore)
}

// CloneGroups deep-copies groups so the result never aliases the input.
func CloneGroups(groups []Group) []Group {
	if groups == nil {
		return nil
	}
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.clone()
	}
	return out
}

func (g Group) clone() Group {
	players := make([]Player, len(g.Players))
	for i, p := range g.Players {
		players[i] = p.clone()
	}
	return Group{Name: g.Name, Players: players}
}

func (p Player) clone() Player {
	out := p
	out.Sprint30mTime = clonePtr(p.Sprint30mTime)
	out.Sprint30mScore = clonePtr(p.Sprint30mScore)
	out.MedicineBallForward = clonePtr(p.MedicineBallForward)
	out.MedicineBallBackward = clonePtr(p.MedicineBallBackward)
	out.MedicineBallSum = clonePtr(p.MedicineBallSum)
	out.MedicineBallScore = clonePtr(p.MedicineBallScore)
	out.FiveJumpDistance = clonePtr(p.FiveJumpDistance)
	out.FiveJumpScore = clonePtr(p.FiveJumpScore)
	out.HandThrowDistance = clonePtr(p.HandThrowDistance)
	out.HandThrowScore = clonePtr(p.HandThrowScore)
	out.EnvelopeTime = clonePtr(p.EnvelopeTime)
	out.EnvelopeScore = clonePtr(p.EnvelopeScore)
	return out
}

func scoreOf(t scoring.Table, v *float64) *float64 {
	if v == nil || !finite(*v) {
		return nil
	}
	return Float(float64(t.Score(*v)))
}

// medicineBallSum is forward+backward rounded to two decimals, nil unless both
// throws are present.
func medicineBallSum(forward, backward *float64) *float64 {
	if forward == nil || backward == nil {
		return nil
	}
	return Float(round2(*forward + *backward))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func equalPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
