// Package models contains data structures for the application's domain models.
package models

import "time"

// User represents an account that owns posts, vaults and comments.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:32;uniqueIndex;not null" json:"username"`
	Password       string    `gorm:"not null" json:"-"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Identity returns the identity value for this user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username}
}

// UserStats are per-user aggregate counts shown on profiles.
type UserStats struct {
	PostCount    int64 `json:"post_count"`
	VaultCount   int64 `json:"vault_count"`
	CommentCount int64 `json:"comment_count"`
	LikedPosts   int64 `json:"liked_posts"`
}
