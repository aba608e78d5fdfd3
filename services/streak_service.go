package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/gamification"
	"github.com/cppla/inkpost/metrics"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/store"
)

// CheckInResult is returned by StreakService.CheckIn.
type CheckInResult struct {
	Streak         int                   `json:"streak"`
	PointsAwarded  int                   `json:"points_awarded"`
	Challenge      *models.Challenge     `json:"challenge"`
	NextRewardTime *time.Time            `json:"next_reward_time,omitempty"`
	TotalPoints    int                   `json:"total_points"`
	Progress       gamification.Progress `json:"level"`
}

// StreakStatus is a read-only snapshot of a user's gamification state.
type StreakStatus struct {
	Points         int                   `json:"points"`
	Streak         int                   `json:"streak"`
	LastLoginDate  calendar.Date         `json:"last_login_date"`
	CheckedInToday bool                  `json:"checked_in_today"`
	NextRewardTime time.Time             `json:"next_reward_time"`
	Challenge      *models.Challenge     `json:"challenge"`
	Progress       gamification.Progress `json:"level"`
}

// StreakService runs daily check-ins.
type StreakService struct {
	store  store.Store
	cal    *calendar.Calendar
	engine *gamification.Engine
	ladder *gamification.Ladder
	inval  Invalidator
	log    *zap.Logger
}

// NewStreakService wires the check-in dependencies. inval and log may be nil.
func NewStreakService(st store.Store, cal *calendar.Calendar, engine *gamification.Engine, ladder *gamification.Ladder, inval Invalidator, log *zap.Logger) *StreakService {
	if inval == nil {
		inval = noopInvalidator{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StreakService{store: st, cal: cal, engine: engine, ladder: ladder, inval: inval, log: log}
}

// CheckIn claims today's reward for userID. Repeating it on the same civil day
// returns the current state with zero points and the next reward instant.
func (s *StreakService) CheckIn(ctx context.Context, userID uint) (*CheckInResult, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	day := s.cal.Current()

	var (
		out   gamification.Outcome
		total int
	)
	err := s.store.Transaction(ctx, func(tx store.Tx) error {
		user, err := tx.LockUser(userID)
		if err != nil {
			return err
		}
		out = s.engine.Advance(gamification.StreakState{
			CurrentStreak: user.CurrentStreak,
			LastLoginDate: user.LastLoginDate,
			Challenge:     user.Challenge,
		}, day)
		total = user.Points
		if out.Repeat {
			return nil
		}

		user.Points += out.PointsAwarded
		user.CurrentStreak = out.State.CurrentStreak
		user.LastLoginDate = out.State.LastLoginDate
		user.Challenge = out.State.Challenge
		if err := tx.SaveStreak(user); err != nil {
			return err
		}
		rec := &models.CheckIn{
			UserID:         userID,
			Date:           day.Today,
			PointsAwarded:  out.PointsAwarded,
			StreakAchieved: out.State.CurrentStreak,
		}
		if out.Assigned {
			rec.ChallengeKey = out.State.Challenge.Key
		}
		if err := tx.CreateCheckIn(rec); err != nil {
			return err
		}
		total = user.Points
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.CheckIns.WithLabelValues("not_found").Inc()
			return nil, ErrNotFound
		}
		metrics.CheckIns.WithLabelValues("error").Inc()
		s.log.Error("check-in failed", zap.Uint("user_id", userID), zap.Error(err))
		return nil, failed(err)
	}

	res := &CheckInResult{
		Streak:        out.State.CurrentStreak,
		PointsAwarded: out.PointsAwarded,
		Challenge:     out.State.Challenge,
		TotalPoints:   total,
		Progress:      s.ladder.ProgressToNext(total),
	}
	if out.Repeat {
		next := out.NextRewardAt
		res.NextRewardTime = &next
		metrics.CheckIns.WithLabelValues("repeat").Inc()
		return res, nil
	}

	metrics.CheckIns.WithLabelValues("awarded").Inc()
	metrics.PointsAwarded.Add(float64(out.PointsAwarded))
	if out.Assigned {
		metrics.ChallengesAssigned.Inc()
	}
	s.inval.Invalidate(ctx, append(UserCachePrefixes(userID), LeaderboardCachePrefix, StatsCachePrefix)...)
	s.log.Info("check-in recorded",
		zap.Uint("user_id", userID),
		zap.String("date", day.Today.String()),
		zap.Int("streak", res.Streak),
		zap.Int("points_awarded", res.PointsAwarded),
	)
	return res, nil
}

// QuitChallenge clears the user's active challenge regardless of the day.
func (s *StreakService) QuitChallenge(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrUnauthorized
	}
	err := s.store.Transaction(ctx, func(tx store.Tx) error {
		if _, err := tx.LockUser(userID); err != nil {
			return err
		}
		return tx.SetChallenge(userID, nil)
	})
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("quit challenge failed", zap.Uint("user_id", userID), zap.Error(err))
		}
		return failed(err)
	}
	s.inval.Invalidate(ctx, UserCachePrefixes(userID)...)
	return nil
}

// Status reports the user's points, level and streak without mutating anything.
func (s *StreakService) Status(ctx context.Context, userID uint) (*StreakStatus, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, failed(err)
	}
	day := s.cal.Current()
	return &StreakStatus{
		Points:         user.Points,
		Streak:         user.CurrentStreak,
		LastLoginDate:  user.LastLoginDate,
		CheckedInToday: user.LastLoginDate.Equal(day.Today),
		NextRewardTime: day.NextDayStart,
		Challenge:      user.Challenge,
		Progress:       s.ladder.ProgressToNext(user.Points),
	}, nil
}

// History returns the most recent check-ins, newest first.
func (s *StreakService) History(ctx context.Context, userID uint, limit int) ([]models.CheckIn, error) {
	if userID == 0 {
		return nil, ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = 30
	case limit > 100:
		limit = 100
	}
	items, err := s.store.ListCheckIns(ctx, userID, limit)
	if err != nil {
		return nil, failed(err)
	}
	return items, nil
}
