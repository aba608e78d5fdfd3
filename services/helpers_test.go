package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/store"
)

// 2024-03-10 10:00 at +05:30.
var testNow = time.Date(2024, time.March, 10, 4, 30, 0, 0, time.UTC)

type recordingInvalidator struct {
	mu       sync.Mutex
	prefixes []string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, prefixes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefixes = append(r.prefixes, prefixes...)
}

func (r *recordingInvalidator) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.prefixes...)
}

func testCalendar() *calendar.Calendar {
	return calendar.New(calendar.DefaultOffset, func() time.Time { return testNow })
}

func newStreakService(t *testing.T, st store.Store, inval Invalidator) *StreakService {
	t.Helper()
	catalog, err := gamification.NewCatalog(gamification.DefaultChallenges, gamification.SelectRoundRobin, false)
	require.NoError(t, err)
	engine := gamification.NewEngine(gamification.DefaultMilestone, catalog)
	return NewStreakService(st, testCalendar(), engine, gamification.DefaultLadder(), inval, nil)
}

func seedUsers(st *store.MemoryStore, users ...*models.User) {
	for _, u := range users {
		st.PutUser(u)
	}
}
