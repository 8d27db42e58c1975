package repository

import (
	"time"

	"github.com/okian/handball/internal/domain/model"
)

// FileInfo is one catalog entry.
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastModified time.Time `json:"lastModified"`
}

// storedPlayer is the persisted form of a player: raw and manual fields only.
type storedPlayer struct {
	FirstName            string   `json:"firstName"`
	LastName             string   `json:"lastName"`
	Sprint30mTime        *float64 `json:"sprint30m_time"`
	MedicineBallForward  *float64 `json:"medicineBall_forward"`
	MedicineBallBackward *float64 `json:"medicineBall_backward"`
	FiveJumpDistance     *float64 `json:"fiveJump_distance"`
	HandThrowDistance    *float64 `json:"handThrow_distance"`
	HandThrowScore       *float64 `json:"handThrow_score"`
	EnvelopeTime         *float64 `json:"envelope_time"`
	EnvelopeScore        *float64 `json:"envelope_score"`
}

type storedGroup struct {
	Name    string         `json:"name"`
	Players []storedPlayer `json:"players"`
}

func strip(p model.Player) storedPlayer {
	return storedPlayer{
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Sprint30mTime:        p.Sprint30mTime,
		MedicineBallForward:  p.MedicineBallForward,
		MedicineBallBackward: p.MedicineBallBackward,
		FiveJumpDistance:     p.FiveJumpDistance,
		HandThrowDistance:    p.HandThrowDistance,
		HandThrowScore:       p.HandThrowScore,
		EnvelopeTime:         p.EnvelopeTime,
		EnvelopeScore:        p.EnvelopeScore,
	}
}

func restore(s storedPlayer) model.Player {
	return model.Recompute(model.Player{
		FirstName:            s.FirstName,
		LastName:             s.LastName,
		Sprint30mTime:        s.Sprint30mTime,
		MedicineBallForward:  s.MedicineBallForward,
		MedicineBallBackward: s.MedicineBallBackward,
		FiveJumpDistance:     s.FiveJumpDistance,
		HandThrowDistance:    s.HandThrowDistance,
		HandThrowScore:       s.HandThrowScore,
		EnvelopeTime:         s.EnvelopeTime,
		EnvelopeScore:        s.EnvelopeScore,
	})
}

func encodeGroups(groups []model.Group) []storedGroup {
	out := make([]storedGroup, 0, len(groups))
	for _, g := range groups {
		players := make([]storedPlayer, 0, len(g.Players))
		for _, p := range g.Players {
			players = append(players, strip(p))
		}
		out = append(out, storedGroup{Name: g.Name, Players: players})
	}
	return out
}

func decodeGroups(stored []storedGroup) []model.Group {
	out := make([]model.Group, 0, len(stored))
	for _, sg := range stored {
		g := model.NewGroup(sg.Name)
		for _, sp := range sg.Players {
			g.Players = append(g.Players, restore(sp))
		}
		out = append(out, g)
	}
	return out
}
