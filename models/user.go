package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/cppla/inkpost/calendar"
)

// User is an author/reader account. Gamification and follow counters live on
// the same row but are always written column-scoped.
type User struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Username      string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Email         string         `gorm:"size:255" json:"email"`
	PasswordHash  string         `gorm:"size:255" json:"-"`
	AvatarURL     string         `gorm:"size:512" json:"avatar_url"`
	Bio           string         `gorm:"size:255" json:"bio"`
	Points        int            `gorm:"not null;default:0" json:"points"`
	CurrentStreak int            `gorm:"not null;default:0" json:"current_streak"`
	LastLoginDate calendar.Date  `gorm:"type:varchar(10);not null;default:''" json:"last_login_date"`
	Challenge     *Challenge     `gorm:"serializer:json;type:text" json:"challenge"`
	Followers     int            `gorm:"not null;default:0" json:"followers"`
	Following     int            `gorm:"not null;default:0" json:"following"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// Clone returns a deep copy, including the challenge.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Challenge = u.Challenge.Clone()
	return &cp
}
