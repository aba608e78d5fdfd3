// Package store is the persistence boundary for users, check-ins and the
// follow graph. Every multi-row mutation goes through Transaction.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/cppla/inkpost/models"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a mirror record or check-in already exists.
	ErrDuplicate = errors.New("duplicate record")
)

// Page bounds a sub-collection listing.
type Page struct {
	Offset int
	Limit  int
}

// Store reads records and runs serialisable read-modify-write transactions.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Tx) error) error

	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListFollowers(ctx context.Context, userID uint, page Page) ([]models.Follower, int64, error)
	ListFollowing(ctx context.Context, userID uint, page Page) ([]models.Following, int64, error)
	ListCheckIns(ctx context.Context, userID uint, limit int) ([]models.CheckIn, error)
	TopUsers(ctx context.Context, limit int) ([]models.User, error)
}

// Tx is the write surface available inside a transaction. Writes become
// visible to other transactions only after commit.
type Tx interface {
	// LockUser loads a user row and holds it until the transaction ends.
	LockUser(id uint) (*models.User, error)
	// SaveStreak writes points, streak, last login date and challenge of u.
	SaveStreak(u *models.User) error
	SetChallenge(userID uint, c *models.Challenge) error
	CreateCheckIn(rec *models.CheckIn) error

	FollowEdgeExists(followerID, authorID uint) (bool, error)
	CreateFollowEdge(followerID, authorID uint, at time.Time) error
	DeleteFollowEdge(followerID, authorID uint) error
	// AdjustFollowCounts adds delta to author.followers and follower.following.
	AdjustFollowCounts(followerID, authorID uint, delta int) error
}
