package models

import "time"

// Comment is a user's text reply on a post.
type Comment struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	PostID  uint   `gorm:"not null;index" json:"post_id"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	// Counts are not persisted; computed at query time
	ReactionCount int64        `gorm:"->;-:migration" json:"reaction_count"`
	LikeCount     int64        `gorm:"->;-:migration" json:"likes"`
	DislikeCount  int64        `gorm:"->;-:migration" json:"dislikes"`
	UserReaction  ReactionType `gorm:"-" json:"user_reaction"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
