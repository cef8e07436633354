package models

import (
	"strings"
	"time"
)

// ReactionType is a user's stance toward a post or comment. None is stored
// like any other value.
type ReactionType string

const (
	ReactionLike    ReactionType = "like"
	ReactionDislike ReactionType = "dislike"
	ReactionNone    ReactionType = "none"
)

// ParseReactionType validates and normalizes a reaction type.
func ParseReactionType(s string) (ReactionType, bool) {
	switch t := ReactionType(strings.ToLower(strings.TrimSpace(s))); t {
	case ReactionLike, ReactionDislike, ReactionNone:
		return t, true
	}
	return "", false
}

// PostReaction is at most one row per (user, post).
type PostReaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_post_reaction_user_post" json:"user_id"`
	PostID    uint         `gorm:"not null;uniqueIndex:idx_post_reaction_user_post;index" json:"post_id"`
	Type      ReactionType `gorm:"size:8;not null;default:none" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CommentReaction is at most one row per (user, comment).
type CommentReaction struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    uint         `gorm:"not null;uniqueIndex:idx_comment_reaction_user_comment" json:"user_id"`
	CommentID uint         `gorm:"not null;uniqueIndex:idx_comment_reaction_user_comment;index" json:"comment_id"`
	Type      ReactionType `gorm:"size:8;not null;default:none" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ReactionCounts partitions a target's reactions by type.
type ReactionCounts struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// ReactionSummary is returned after a reaction is set.
type ReactionSummary struct {
	Type     ReactionType `json:"type"`
	Likes    int64        `json:"likes"`
	Dislikes int64        `json:"dislikes"`
}
