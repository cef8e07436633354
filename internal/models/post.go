package models

import "time"

// Post is a titled, tagged container for uploaded media.
type Post struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Title  string `gorm:"size:200;not null" json:"title"`
	UserID uint   `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user"`
	Tags   []Tag  `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	// Counts are not persisted; computed at query time
	ReactionCount int64 `gorm:"->;-:migration" json:"reaction_count"`
	LikeCount     int64 `gorm:"->;-:migration" json:"likes"`
	DislikeCount  int64 `gorm:"->;-:migration" json:"dislikes"`
	CommentCount  int64 `gorm:"->;-:migration" json:"comment_count"`
	// UserReaction is the requesting user's reaction, filled by the service
	UserReaction ReactionType `gorm:"-" json:"user_reaction"`
	Thumbnail    string       `gorm:"-" json:"thumbnail,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TimeSince renders the post age for display.
func (p *Post) TimeSince(now time.Time) string {
	return TimeSince(p.CreatedAt, now)
}
