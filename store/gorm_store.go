package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkpost/models"
)

// MySQL error numbers that mean "run the whole transaction again".
const (
	mysqlLockWaitTimeout = 1205
	mysqlDeadlock        = 1213
	mysqlDuplicateEntry  = 1062
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db         *gorm.DB
	maxRetries int
	log        *zap.Logger
}

// NewGormStore wraps db. maxRetries bounds how often a transaction is re-run
// after a deadlock or lock wait timeout.
func NewGormStore(db *gorm.DB, maxRetries int, log *zap.Logger) *GormStore {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &GormStore{db: db, maxRetries: maxRetries, log: log}
}

// Transaction runs fn in a database transaction, retrying on serialisation
// conflicts. fn must not have side effects outside tx.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormTx{db: tx})
		})
		if err == nil || !isRetryable(err) {
			return err
		}
		s.log.Warn("transaction conflict, retrying", zap.Int("attempt", attempt), zap.Error(err))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return err
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *GormStore) ListFollowers(ctx context.Context, userID uint, page Page) ([]models.Follower, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&models.Follower{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Follower
	err := s.db.WithContext(ctx).Preload("Follower").
		Where("user_id = ?", userID).
		Order("followed_at DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *GormStore) ListFollowing(ctx context.Context, userID uint, page Page) ([]models.Following, int64, error) {
	var total int64
	q := s.db.WithContext(ctx).Model(&models.Following{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Following
	err := s.db.WithContext(ctx).Preload("Author").
		Where("user_id = ?", userID).
		Order("followed_at DESC").
		Offset(page.Offset).Limit(page.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *GormStore) ListCheckIns(ctx context.Context, userID uint, limit int) ([]models.CheckIn, error) {
	var items []models.CheckIn
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("date DESC").Limit(limit).Find(&items).Error
	return items, err
}

func (s *GormStore) TopUsers(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("points DESC").Order("id ASC").Limit(limit).Find(&users).Error
	return users, err
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockUser(id uint) (*models.User, error) {
	var user models.User
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (t *gormTx) SaveStreak(u *models.User) error {
	col, err := challengeColumn(u.Challenge)
	if err != nil {
		return err
	}
	return translate(t.db.Model(&models.User{}).Where("id = ?", u.ID).Updates(map[string]interface{}{
		"points":          u.Points,
		"current_streak":  u.CurrentStreak,
		"last_login_date": u.LastLoginDate,
		"challenge":       col,
	}).Error)
}

func (t *gormTx) SetChallenge(userID uint, c *models.Challenge) error {
	col, err := challengeColumn(c)
	if err != nil {
		return err
	}
	return translate(t.db.Model(&models.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"challenge": col}).Error)
}

func (t *gormTx) CreateCheckIn(rec *models.CheckIn) error {
	return translate(t.db.Create(rec).Error)
}

func (t *gormTx) FollowEdgeExists(followerID, authorID uint) (bool, error) {
	var n int64
	err := t.db.Model(&models.Following{}).
		Where("user_id = ? AND author_id = ?", followerID, authorID).
		Count(&n).Error
	return n > 0, err
}

func (t *gormTx) CreateFollowEdge(followerID, authorID uint, at time.Time) error {
	if err := t.db.Create(&models.Following{UserID: followerID, AuthorID: authorID, FollowedAt: at}).Error; err != nil {
		return translate(err)
	}
	return translate(t.db.Create(&models.Follower{UserID: authorID, FollowerID: followerID, FollowedAt: at}).Error)
}

func (t *gormTx) DeleteFollowEdge(followerID, authorID uint) error {
	if err := t.db.Where("user_id = ? AND author_id = ?", followerID, authorID).Delete(&models.Following{}).Error; err != nil {
		return err
	}
	return t.db.Where("user_id = ? AND follower_id = ?", authorID, followerID).Delete(&models.Follower{}).Error
}

func (t *gormTx) AdjustFollowCounts(followerID, authorID uint, delta int) error {
	err := t.db.Model(&models.User{}).Where("id = ?", authorID).
		UpdateColumn("followers", gorm.Expr("followers + ?", delta)).Error
	if err != nil {
		return err
	}
	return t.db.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following", gorm.Expr("following + ?", delta)).Error
}

// challengeColumn encodes the challenge the way the json serializer stores it;
// map updates bypass field serializers.
func challengeColumn(c *models.Challenge) (interface{}, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return errors.Join(ErrDuplicate, err)
	}
	return err
}

func isRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDeadlock || myErr.Number == mysqlLockWaitTimeout
	}
	return false
}

// IsDuplicate reports whether err is a unique-key violation from the database.
func IsDuplicate(err error) bool {
	return errors.Is(translate(err), ErrDuplicate)
}
