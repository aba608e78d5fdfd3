package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpost/calendar"
)

func TestRoundRobinWalksThePool(t *testing.T) {
	defs := []ChallengeDef{{Key: "a"}, {Key: "b"}, {Key: "c"}}
	c, err := NewCatalog(defs, SelectRoundRobin, false)
	require.NoError(t, err)

	day := calendar.NewDate(2024, time.May, 5)
	var keys []string
	for i := 0; i < 4; i++ {
		keys = append(keys, c.Assign(day).Key)
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, keys)
}

func TestAssignReturnsFreshInstances(t *testing.T) {
	c, err := NewCatalog(DefaultChallenges, "", true)
	require.NoError(t, err)
	assert.Equal(t, SelectRandom, c.Policy())

	day := calendar.NewDate(2024, time.May, 5)
	first := c.Assign(day)
	second := c.Assign(day)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, first.AssignedOn.Equal(day))
	assert.NotEmpty(t, first.Description)
	assert.ElementsMatch(t, DefaultChallenges, c.Definitions())
}

func TestNewCatalogRejectsBadInput(t *testing.T) {
	_, err := NewCatalog(nil, SelectRandom, false)
	assert.Error(t, err)

	_, err = NewCatalog(DefaultChallenges, "weighted", false)
	assert.Error(t, err)
}
