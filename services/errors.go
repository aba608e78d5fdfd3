// Package services implements the daily check-in and follow-graph operations
// on top of store.Store.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/cppla/inkpost/store"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrOperationFailed  = errors.New("operation failed, please try again")
)

// Invalidator receives the "cached views are stale" signal after a mutation.
// Implementations must not block the caller for long and report no result.
type Invalidator interface {
	Invalidate(ctx context.Context, prefixes ...string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(context.Context, ...string) {}

// Cache key prefixes touched by the services.
const (
	LeaderboardCachePrefix = "cache:leaderboard:"
	StatsCachePrefix       = "cache:stats:"
)

// UserCachePrefixes returns the cache prefixes that render a user.
func UserCachePrefixes(id uint) []string {
	return []string{
		fmt.Sprintf("cache:user:public:%d", id),
		fmt.Sprintf("cache:user:%d:", id),
	}
}

// failed keeps service sentinels and wraps anything else as ErrOperationFailed.
func failed(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrInvalidOperation), errors.Is(err, ErrOperationFailed):
		return err
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	default:
		return fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
}
