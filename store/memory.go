package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/models"
)

type edgeKey struct {
	follower uint
	author   uint
}

type checkInKey struct {
	user uint
	date calendar.Date
}

type memState struct {
	users     map[uint]*models.User
	following map[edgeKey]models.Following
	followers map[edgeKey]models.Follower
	checkIns  map[checkInKey]models.CheckIn
	nextID    uint
}

func (s *memState) clone() *memState {
	cp := &memState{
		users:     make(map[uint]*models.User, len(s.users)),
		following: make(map[edgeKey]models.Following, len(s.following)),
		followers: make(map[edgeKey]models.Follower, len(s.followers)),
		checkIns:  make(map[checkInKey]models.CheckIn, len(s.checkIns)),
		nextID:    s.nextID,
	}
	for id, u := range s.users {
		cp.users[id] = u.Clone()
	}
	for k, v := range s.following {
		cp.following[k] = v
	}
	for k, v := range s.followers {
		cp.followers[k] = v
	}
	for k, v := range s.checkIns {
		cp.checkIns[k] = v
	}
	return cp
}

// MemoryStore is a process-local Store. Transactions are serialised by one
// mutex and work on a copy that replaces the live state only on commit.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState

	// Hook, when set, runs before every Tx write with the operation name;
	// a non-nil result fails that write.
	Hook func(op string) error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		users:     map[uint]*models.User{},
		following: map[edgeKey]models.Following{},
		followers: map[edgeKey]models.Follower{},
		checkIns:  map[checkInKey]models.CheckIn{},
	}}
}

// PutUser inserts or replaces a user outside of any transaction.
func (m *MemoryStore) PutUser(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.users[u.ID] = u.Clone()
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{state: work, hook: m.Hook}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryStore) GetUser(_ context.Context, id uint) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (m *MemoryStore) ListFollowers(_ context.Context, userID uint, page Page) ([]models.Follower, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Follower
	for k, v := range m.state.followers {
		if k.author == userID {
			v.Follower = m.state.users[k.follower].Clone()
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FollowedAt.Equal(all[j].FollowedAt) {
			return all[i].FollowerID < all[j].FollowerID
		}
		return all[i].FollowedAt.After(all[j].FollowedAt)
	})
	return paginate(all, page), int64(len(all)), nil
}

func (m *MemoryStore) ListFollowing(_ context.Context, userID uint, page Page) ([]models.Following, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.Following
	for k, v := range m.state.following {
		if k.follower == userID {
			v.Author = m.state.users[k.author].Clone()
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].FollowedAt.Equal(all[j].FollowedAt) {
			return all[i].AuthorID < all[j].AuthorID
		}
		return all[i].FollowedAt.After(all[j].FollowedAt)
	})
	return paginate(all, page), int64(len(all)), nil
}

func (m *MemoryStore) ListCheckIns(_ context.Context, userID uint, limit int) ([]models.CheckIn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []models.CheckIn
	for k, v := range m.state.checkIns {
		if k.user == userID {
			all = append(all, v)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[j].Date.Before(all[i].Date) })
	return paginate(all, Page{Limit: limit}), nil
}

func (m *MemoryStore) TopUsers(_ context.Context, limit int) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]models.User, 0, len(m.state.users))
	for _, u := range m.state.users {
		all = append(all, *u.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Points == all[j].Points {
			return all[i].ID < all[j].ID
		}
		return all[i].Points > all[j].Points
	})
	return paginate(all, Page{Limit: limit}), nil
}

// HasEdge reports whether each mirror of followerID -> authorID exists.
func (m *MemoryStore) HasEdge(followerID, authorID uint) (followingSide, followerSide bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k := edgeKey{follower: followerID, author: authorID}
	_, followingSide = m.state.following[k]
	_, followerSide = m.state.followers[k]
	return followingSide, followerSide
}

func paginate[T any](items []T, page Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

type memTx struct {
	state *memState
	hook  func(op string) error
}

func (t *memTx) check(op string) error {
	if t.hook != nil {
		return t.hook(op)
	}
	return nil
}

func (t *memTx) LockUser(id uint) (*models.User, error) {
	u, ok := t.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (t *memTx) SaveStreak(u *models.User) error {
	if err := t.check("SaveStreak"); err != nil {
		return err
	}
	cur, ok := t.state.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Points = u.Points
	cur.CurrentStreak = u.CurrentStreak
	cur.LastLoginDate = u.LastLoginDate
	cur.Challenge = u.Challenge.Clone()
	cur.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) SetChallenge(userID uint, c *models.Challenge) error {
	if err := t.check("SetChallenge"); err != nil {
		return err
	}
	cur, ok := t.state.users[userID]
	if !ok {
		return ErrNotFound
	}
	cur.Challenge = c.Clone()
	cur.UpdatedAt = time.Now()
	return nil
}

func (t *memTx) CreateCheckIn(rec *models.CheckIn) error {
	if err := t.check("CreateCheckIn"); err != nil {
		return err
	}
	k := checkInKey{user: rec.UserID, date: rec.Date}
	if _, dup := t.state.checkIns[k]; dup {
		return ErrDuplicate
	}
	t.state.nextID++
	rec.ID = t.state.nextID
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	t.state.checkIns[k] = *rec
	return nil
}

func (t *memTx) FollowEdgeExists(followerID, authorID uint) (bool, error) {
	_, ok := t.state.following[edgeKey{follower: followerID, author: authorID}]
	return ok, nil
}

func (t *memTx) CreateFollowEdge(followerID, authorID uint, at time.Time) error {
	if err := t.check("CreateFollowEdge"); err != nil {
		return err
	}
	k := edgeKey{follower: followerID, author: authorID}
	if _, dup := t.state.following[k]; dup {
		return ErrDuplicate
	}
	t.state.following[k] = models.Following{UserID: followerID, AuthorID: authorID, FollowedAt: at}
	t.state.followers[k] = models.Follower{UserID: authorID, FollowerID: followerID, FollowedAt: at}
	return nil
}

func (t *memTx) DeleteFollowEdge(followerID, authorID uint) error {
	if err := t.check("DeleteFollowEdge"); err != nil {
		return err
	}
	k := edgeKey{follower: followerID, author: authorID}
	delete(t.state.following, k)
	delete(t.state.followers, k)
	return nil
}

func (t *memTx) AdjustFollowCounts(followerID, authorID uint, delta int) error {
	if err := t.check("AdjustFollowCounts"); err != nil {
		return err
	}
	author, ok := t.state.users[authorID]
	if !ok {
		return ErrNotFound
	}
	follower, ok := t.state.users[followerID]
	if !ok {
		return ErrNotFound
	}
	author.Followers += delta
	follower.Following += delta
	return nil
}
