package models

import "time"

// Following is the follower-side mirror of a follow edge: UserID follows AuthorID.
type Following struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	AuthorID   uint      `gorm:"primaryKey;autoIncrement:false;index" json:"author_id"`
	FollowedAt time.Time `gorm:"not null" json:"followed_at"`
	Author     *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

func (Following) TableName() string { return "user_following" }

// Follower is the author-side mirror of a follow edge: FollowerID follows UserID.
type Follower struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"follower_id"`
	FollowedAt time.Time `gorm:"not null" json:"followed_at"`
	Follower   *User     `gorm:"foreignKey:FollowerID" json:"follower,omitempty"`
}

func (Follower) TableName() string { return "user_followers" }
