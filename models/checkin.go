package models

import (
	"time"

	"github.com/cppla/inkpost/calendar"
)

// CheckIn stores one claimed daily reward.
type CheckIn struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	UserID         uint          `gorm:"not null;uniqueIndex:idx_checkin_user_date" json:"user_id"`
	Date           calendar.Date `gorm:"type:varchar(10);not null;uniqueIndex:idx_checkin_user_date" json:"date"`
	PointsAwarded  int           `json:"points_awarded"`
	StreakAchieved int           `json:"streak_achieved"`
	ChallengeKey   string        `gorm:"size:64" json:"challenge_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
}
