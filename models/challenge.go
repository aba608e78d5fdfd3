package models

import "github.com/cppla/inkpost/calendar"

// Challenge is a challenge instance assigned to a user on a streak milestone.
type Challenge struct {
	ID          string        `json:"id"`
	Key         string        `json:"key"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	AssignedOn  calendar.Date `json:"assigned_on"`
}

func (c *Challenge) Clone() *Challenge {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
