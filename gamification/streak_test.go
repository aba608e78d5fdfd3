package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/models"
)

type fixedAssigner struct{ calls int }

func (f *fixedAssigner) Assign(today calendar.Date) *models.Challenge {
	f.calls++
	return &models.Challenge{ID: "c", Key: "draft-300", AssignedOn: today}
}

var testDay = calendar.New(calendar.DefaultOffset, nil).At(time.Date(2024, time.April, 10, 6, 0, 0, 0, time.UTC))

func TestRepeatCheckInIsANoOp(t *testing.T) {
	a := &fixedAssigner{}
	e := NewEngine(5, a)
	ch := &models.Challenge{ID: "old", AssignedOn: testDay.Today}
	state := StreakState{CurrentStreak: 5, LastLoginDate: testDay.Today, Challenge: ch}

	for i := 0; i < 3; i++ {
		out := e.Advance(state, testDay)
		assert.True(t, out.Repeat)
		assert.Zero(t, out.PointsAwarded)
		assert.Equal(t, state, out.State)
		assert.True(t, out.NextRewardAt.Equal(testDay.NextDayStart))
	}
	assert.Zero(t, a.calls)
}

func TestContinuationIncrementsAndAwardsStreak(t *testing.T) {
	e := NewEngine(5, &fixedAssigner{})
	out := e.Advance(StreakState{CurrentStreak: 2, LastLoginDate: testDay.Yesterday}, testDay)

	assert.False(t, out.Repeat)
	assert.Equal(t, 3, out.State.CurrentStreak)
	assert.Equal(t, 3, out.PointsAwarded)
	assert.True(t, out.State.LastLoginDate.Equal(testDay.Today))
	assert.True(t, out.NextRewardAt.IsZero())
}

func TestGapOrFirstCheckInResets(t *testing.T) {
	e := NewEngine(5, &fixedAssigner{})

	out := e.Advance(StreakState{CurrentStreak: 7, LastLoginDate: testDay.Today.AddDays(-3)}, testDay)
	assert.Equal(t, 1, out.State.CurrentStreak)
	assert.Equal(t, 1, out.PointsAwarded)

	out = e.Advance(StreakState{CurrentStreak: 7}, testDay)
	assert.Equal(t, 1, out.State.CurrentStreak)
	assert.Equal(t, 1, out.PointsAwarded)
}

func TestMilestoneAssignsChallenge(t *testing.T) {
	a := &fixedAssigner{}
	e := NewEngine(5, a)
	old := &models.Challenge{ID: "old", AssignedOn: testDay.Today.AddDays(-5)}

	out := e.Advance(StreakState{CurrentStreak: 4, LastLoginDate: testDay.Yesterday, Challenge: old}, testDay)
	require.NotNil(t, out.State.Challenge)
	assert.Equal(t, "c", out.State.Challenge.ID)
	assert.True(t, out.Assigned)
	assert.Equal(t, 5, out.PointsAwarded)
	assert.Equal(t, 1, a.calls)

	out = e.Advance(StreakState{CurrentStreak: 9, LastLoginDate: testDay.Yesterday}, testDay)
	assert.NotNil(t, out.State.Challenge)
	assert.Equal(t, 10, out.PointsAwarded)
}

func TestNonMilestoneClearsOlderChallenge(t *testing.T) {
	e := NewEngine(5, &fixedAssigner{})
	old := &models.Challenge{ID: "old", AssignedOn: testDay.Yesterday}

	out := e.Advance(StreakState{CurrentStreak: 5, LastLoginDate: testDay.Yesterday, Challenge: old}, testDay)
	assert.Equal(t, 6, out.State.CurrentStreak)
	assert.Nil(t, out.State.Challenge)
	assert.False(t, out.Assigned)
}

func TestNonMilestoneKeepsChallengeAssignedToday(t *testing.T) {
	e := NewEngine(5, &fixedAssigner{})
	fresh := &models.Challenge{ID: "fresh", AssignedOn: testDay.Today}

	out := e.Advance(StreakState{CurrentStreak: 1, LastLoginDate: testDay.Yesterday, Challenge: fresh}, testDay)
	assert.Equal(t, fresh, out.State.Challenge)
}

func TestNewEngineDefaultsMilestone(t *testing.T) {
	assert.Equal(t, DefaultMilestone, NewEngine(0, &fixedAssigner{}).Milestone())
}
