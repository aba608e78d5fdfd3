package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/models"
)

func seeded() *MemoryStore {
	m := NewMemoryStore()
	m.PutUser(&models.User{ID: 1, Username: "ann", Points: 10})
	m.PutUser(&models.User{ID: 2, Username: "bob", Points: 30})
	m.PutUser(&models.User{ID: 3, Username: "cid", Points: 30})
	return m
}

func TestMemoryTransactionCommits(t *testing.T) {
	m := seeded()
	ctx := context.Background()

	err := m.Transaction(ctx, func(tx Tx) error {
		if err := tx.CreateFollowEdge(1, 2, time.Now()); err != nil {
			return err
		}
		return tx.AdjustFollowCounts(1, 2, 1)
	})
	require.NoError(t, err)

	a, _ := m.GetUser(ctx, 1)
	b, _ := m.GetUser(ctx, 2)
	assert.Equal(t, 1, a.Following)
	assert.Equal(t, 1, b.Followers)
	fwd, back := m.HasEdge(1, 2)
	assert.True(t, fwd)
	assert.True(t, back)
}

func TestMemoryTransactionRollsBackOnError(t *testing.T) {
	m := seeded()
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.Transaction(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFollowEdge(1, 2, time.Now()))
		require.NoError(t, tx.AdjustFollowCounts(1, 2, 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	a, _ := m.GetUser(ctx, 1)
	assert.Zero(t, a.Following)
	fwd, back := m.HasEdge(1, 2)
	assert.False(t, fwd)
	assert.False(t, back)
}

func TestMemoryHookFailsWrites(t *testing.T) {
	m := seeded()
	m.Hook = func(op string) error {
		if op == "AdjustFollowCounts" {
			return errors.New("store unavailable")
		}
		return nil
	}

	err := m.Transaction(context.Background(), func(tx Tx) error {
		if err := tx.CreateFollowEdge(1, 2, time.Now()); err != nil {
			return err
		}
		return tx.AdjustFollowCounts(1, 2, 1)
	})
	assert.Error(t, err)
	fwd, _ := m.HasEdge(1, 2)
	assert.False(t, fwd)
}

func TestMemoryUserCopiesAreIsolated(t *testing.T) {
	m := seeded()
	u, err := m.GetUser(context.Background(), 1)
	require.NoError(t, err)
	u.Points = 999

	again, _ := m.GetUser(context.Background(), 1)
	assert.Equal(t, 10, again.Points)

	_, err = m.GetUser(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDuplicateCheckIn(t *testing.T) {
	m := seeded()
	day := calendar.NewDate(2024, time.January, 2)

	err := m.Transaction(context.Background(), func(tx Tx) error {
		if err := tx.CreateCheckIn(&models.CheckIn{UserID: 1, Date: day}); err != nil {
			return err
		}
		return tx.CreateCheckIn(&models.CheckIn{UserID: 1, Date: day})
	})
	assert.ErrorIs(t, err, ErrDuplicate)

	items, err := m.ListCheckIns(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryListings(t *testing.T) {
	m := seeded()
	ctx := context.Background()
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Transaction(ctx, func(tx Tx) error {
		require.NoError(t, tx.CreateFollowEdge(1, 3, base))
		return tx.CreateFollowEdge(2, 3, base.Add(time.Hour))
	}))

	followers, total, err := m.ListFollowers(ctx, 3, Page{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, followers, 1)
	assert.EqualValues(t, 2, followers[0].FollowerID)
	require.NotNil(t, followers[0].Follower)
	assert.Equal(t, "bob", followers[0].Follower.Username)

	following, total, err := m.ListFollowing(ctx, 1, Page{Offset: 5, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Empty(t, following)

	top, err := m.TopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.EqualValues(t, 2, top[0].ID)
	assert.EqualValues(t, 3, top[1].ID)
}

func TestMemoryTransactionHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := seeded().Transaction(ctx, func(tx Tx) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
