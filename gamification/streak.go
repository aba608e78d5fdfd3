package gamification

import (
	"time"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/models"
)

// DefaultMilestone is the streak interval that earns a challenge.
const DefaultMilestone = 5

// Assigner produces a challenge for a civil date.
type Assigner interface {
	Assign(today calendar.Date) *models.Challenge
}

// StreakState is the persisted per-user streak slot plus the challenge slot.
type StreakState struct {
	CurrentStreak int
	LastLoginDate calendar.Date
	Challenge     *models.Challenge
}

// Outcome is the result of one check-in transition.
type Outcome struct {
	State         StreakState
	PointsAwarded int
	Repeat        bool
	Assigned      bool
	NextRewardAt  time.Time
}

// Engine applies the daily check-in transition.
type Engine struct {
	milestone int
	assigner  Assigner
}

// NewEngine returns an engine; a non-positive milestone falls back to DefaultMilestone.
func NewEngine(milestone int, assigner Assigner) *Engine {
	if milestone <= 0 {
		milestone = DefaultMilestone
	}
	return &Engine{milestone: milestone, assigner: assigner}
}

// Milestone returns the streak interval that earns a challenge.
func (e *Engine) Milestone() int {
	return e.milestone
}

// Advance computes the state after a check-in on day. A second check-in on the
// same civil day is a no-op that awards nothing.
func (e *Engine) Advance(state StreakState, day calendar.Day) Outcome {
	if !state.LastLoginDate.IsZero() && state.LastLoginDate.Equal(day.Today) {
		return Outcome{State: state, Repeat: true, NextRewardAt: day.NextDayStart}
	}

	streak := 1
	if !state.LastLoginDate.IsZero() && state.LastLoginDate.Equal(day.Yesterday) {
		streak = state.CurrentStreak + 1
	}

	next := StreakState{
		CurrentStreak: streak,
		LastLoginDate: day.Today,
		Challenge:     state.Challenge,
	}
	out := Outcome{PointsAwarded: streak}

	if streak > 0 && streak%e.milestone == 0 {
		next.Challenge = e.assigner.Assign(day.Today)
		out.Assigned = true
	} else if next.Challenge != nil && !next.Challenge.AssignedOn.Equal(day.Today) {
		next.Challenge = nil
	}

	out.State = next
	return out
}
