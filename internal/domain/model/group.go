package model

import "fmt"

// Group list and player list edits. Each returns a new slice and leaves its
// input untouched.

// AddGroup appends an empty group named after its position.
func AddGroup(groups []Group) []Group {
	out := CloneGroups(groups)
	return append(out, NewGroup(DefaultGroupName(len(groups)+1)))
}

// RemoveGroup drops the group at index i. At least one group always remains.
func RemoveGroup(groups []Group, i int) ([]Group, error) {
	if err := checkIndex(i, len(groups)); err != nil {
		return groups, err
	}
	if len(groups) <= 1 {
		return groups, ErrLastGroup
	}
	out := CloneGroups(groups)
	return append(out[:i], out[i+1:]...), nil
}

// RenameGroup sets the name of the group at index i.
func RenameGroup(groups []Group, i int, name string) ([]Group, error) {
	if err := checkIndex(i, len(groups)); err != nil {
		return groups, err
	}
	out := CloneGroups(groups)
	out[i].Name = name
	return out, nil
}

// AddPlayer appends an empty player to g.
func AddPlayer(g Group) Group {
	out := g.clone()
	out.Players = append(out.Players, NewPlayer())
	return out
}

// RemovePlayer drops the player at index i.
func RemovePlayer(g Group, i int) (Group, error) {
	if err := checkIndex(i, len(g.Players)); err != nil {
		return g, err
	}
	out := g.clone()
	out.Players = append(out.Players[:i], out.Players[i+1:]...)
	return out, nil
}

// UpdatePlayer applies a field update to the player at index i.
func UpdatePlayer(g Group, i int, field Field, v Value) (Group, error) {
	if err := checkIndex(i, len(g.Players)); err != nil {
		return g, err
	}
	updated, err := ApplyFieldUpdate(g.Players[i], field, v)
	if err != nil {
		return g, err
	}
	out := g.clone()
	out.Players[i] = updated
	return out, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d (len %d)", ErrIndex, i, n)
	}
	return nil
}
