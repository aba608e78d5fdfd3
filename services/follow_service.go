package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpost/metrics"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/store"
)

// FollowResult reports the edge state after ToggleFollow.
type FollowResult struct {
	Following bool `json:"following"`
	// Coalesced is set when the caller's view of the edge was stale and the
	// call changed nothing.
	Coalesced bool `json:"coalesced"`
}

// FollowPage is one page of a follower or following listing.
type FollowPage struct {
	Users []FollowEntry `json:"items"`
	Total int64         `json:"total"`
}

// FollowEntry is one user in a listing.
type FollowEntry struct {
	ID         uint      `json:"id"`
	Username   string    `json:"username"`
	AvatarURL  string    `json:"avatar_url"`
	FollowedAt time.Time `json:"followed_at"`
}

// FollowService mutates the follow graph. Mirror records and both counters
// change in one transaction or not at all.
type FollowService struct {
	store store.Store
	inval Invalidator
	log   *zap.Logger
	now   func() time.Time
}

// NewFollowService wires the follow graph dependencies. inval, log and now may be nil.
func NewFollowService(st store.Store, inval Invalidator, log *zap.Logger, now func() time.Time) *FollowService {
	if inval == nil {
		inval = noopInvalidator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &FollowService{store: st, inval: inval, log: log, now: now}
}

// ToggleFollow follows authorID when isCurrentlyFollowing is false and
// unfollows otherwise. The stored edge is re-read inside the transaction; a
// flag that disagrees with it results in a no-op reporting the real state.
func (f *FollowService) ToggleFollow(ctx context.Context, followerID, authorID uint, isCurrentlyFollowing bool) (*FollowResult, error) {
	op := "follow"
	if isCurrentlyFollowing {
		op = "unfollow"
	}
	if followerID == 0 {
		metrics.FollowOps.WithLabelValues(op, "rejected").Inc()
		return nil, ErrUnauthorized
	}
	if followerID == authorID {
		metrics.FollowOps.WithLabelValues(op, "rejected").Inc()
		return nil, fmt.Errorf("%w: cannot follow yourself", ErrInvalidOperation)
	}

	res := &FollowResult{}
	err := f.store.Transaction(ctx, func(tx store.Tx) error {
		if err := lockPair(tx, followerID, authorID); err != nil {
			return err
		}
		exists, err := tx.FollowEdgeExists(followerID, authorID)
		if err != nil {
			return err
		}
		if exists != isCurrentlyFollowing {
			res.Following = exists
			res.Coalesced = true
			return nil
		}
		if isCurrentlyFollowing {
			if err := tx.DeleteFollowEdge(followerID, authorID); err != nil {
				return err
			}
			res.Following = false
			return tx.AdjustFollowCounts(followerID, authorID, -1)
		}
		if err := tx.CreateFollowEdge(followerID, authorID, f.now()); err != nil {
			return err
		}
		res.Following = true
		return tx.AdjustFollowCounts(followerID, authorID, 1)
	})
	if err != nil {
		metrics.FollowOps.WithLabelValues(op, "error").Inc()
		if !isCallerError(err) {
			f.log.Error("toggle follow failed",
				zap.Uint("follower_id", followerID),
				zap.Uint("author_id", authorID),
				zap.Bool("is_following", isCurrentlyFollowing),
				zap.Error(err))
		}
		return nil, failed(err)
	}

	if res.Coalesced {
		metrics.FollowOps.WithLabelValues(op, "coalesced").Inc()
		return res, nil
	}
	metrics.FollowOps.WithLabelValues(op, "ok").Inc()
	f.invalidatePair(ctx, followerID, authorID)
	return res, nil
}

// RemoveFollower detaches followerID from userID's followers.
func (f *FollowService) RemoveFollower(ctx context.Context, userID, followerID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	if followerID == 0 || followerID == userID {
		return fmt.Errorf("%w: invalid follower", ErrInvalidOperation)
	}

	removed := false
	err := f.store.Transaction(ctx, func(tx store.Tx) error {
		if err := lockPair(tx, followerID, userID); err != nil {
			return err
		}
		exists, err := tx.FollowEdgeExists(followerID, userID)
		if err != nil || !exists {
			return err
		}
		if err := tx.DeleteFollowEdge(followerID, userID); err != nil {
			return err
		}
		removed = true
		return tx.AdjustFollowCounts(followerID, userID, -1)
	})
	if err != nil {
		metrics.FollowOps.WithLabelValues("remove", "error").Inc()
		if !isCallerError(err) {
			f.log.Error("remove follower failed",
				zap.Uint("user_id", userID),
				zap.Uint("follower_id", followerID),
				zap.Error(err))
		}
		return failed(err)
	}
	if removed {
		metrics.FollowOps.WithLabelValues("remove", "ok").Inc()
		f.invalidatePair(ctx, followerID, userID)
	} else {
		metrics.FollowOps.WithLabelValues("remove", "coalesced").Inc()
	}
	return nil
}

// IsFollowing reports whether followerID currently follows authorID.
func (f *FollowService) IsFollowing(ctx context.Context, followerID, authorID uint) (bool, error) {
	var exists bool
	err := f.store.Transaction(ctx, func(tx store.Tx) error {
		var err error
		exists, err = tx.FollowEdgeExists(followerID, authorID)
		return err
	})
	return exists, failed(err)
}

// Followers lists the users following userID, newest first.
func (f *FollowService) Followers(ctx context.Context, userID uint, page, size int) (*FollowPage, error) {
	if _, err := f.store.GetUser(ctx, userID); err != nil {
		return nil, failed(err)
	}
	items, total, err := f.store.ListFollowers(ctx, userID, pageOf(page, size))
	if err != nil {
		return nil, failed(err)
	}
	out := &FollowPage{Users: make([]FollowEntry, 0, len(items)), Total: total}
	for _, it := range items {
		out.Users = append(out.Users, entryFor(it.FollowerID, it.Follower, it.FollowedAt))
	}
	return out, nil
}

// Following lists the authors userID follows, newest first.
func (f *FollowService) Following(ctx context.Context, userID uint, page, size int) (*FollowPage, error) {
	if _, err := f.store.GetUser(ctx, userID); err != nil {
		return nil, failed(err)
	}
	items, total, err := f.store.ListFollowing(ctx, userID, pageOf(page, size))
	if err != nil {
		return nil, failed(err)
	}
	out := &FollowPage{Users: make([]FollowEntry, 0, len(items)), Total: total}
	for _, it := range items {
		out.Users = append(out.Users, entryFor(it.AuthorID, it.Author, it.FollowedAt))
	}
	return out, nil
}

func (f *FollowService) invalidatePair(ctx context.Context, followerID, authorID uint) {
	prefixes := append(UserCachePrefixes(followerID), UserCachePrefixes(authorID)...)
	f.inval.Invalidate(ctx, prefixes...)
}

// lockPair locks both rows in ascending id order so concurrent toggles on the
// same pair cannot deadlock each other.
func lockPair(tx store.Tx, followerID, authorID uint) error {
	ids := [2]uint{followerID, authorID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	for _, id := range ids {
		if _, err := tx.LockUser(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				if id == followerID {
					return fmt.Errorf("%w: unknown follower", ErrUnauthorized)
				}
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func isCallerError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidOperation) || errors.Is(err, store.ErrNotFound)
}

func pageOf(page, size int) store.Page {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return store.Page{Offset: (page - 1) * size, Limit: size}
}

func entryFor(id uint, u *models.User, at time.Time) FollowEntry {
	e := FollowEntry{ID: id, FollowedAt: at}
	if u != nil {
		e.Username = u.Username
		e.AvatarURL = u.AvatarURL
	}
	return e
}
