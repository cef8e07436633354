package repository

import (
	"context"
	"fmt"
	"time"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReactionTarget selects the reaction table for posts or comments.
type ReactionTarget string

const (
	ReactionTargetPost    ReactionTarget = "post"
	ReactionTargetComment ReactionTarget = "comment"
)

func (t ReactionTarget) table() string {
	if t == ReactionTargetComment {
		return "comment_reactions"
	}
	return "post_reactions"
}

func (t ReactionTarget) column() string {
	if t == ReactionTargetComment {
		return "comment_id"
	}
	return "post_id"
}

// ReactionRepository stores at most one reaction per (user, target).
type ReactionRepository interface {
	Set(ctx context.Context, target ReactionTarget, userID, targetID uint, t models.ReactionType) error
	Counts(ctx context.Context, target ReactionTarget, targetID uint) (models.ReactionCounts, error)
	UserReactions(ctx context.Context, target ReactionTarget, userID uint, targetIDs []uint) (map[uint]models.ReactionType, error)
}

type reactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new reaction repository.
func NewReactionRepository(db *gorm.DB) ReactionRepository {
	return &reactionRepository{db: db}
}

// Set inserts the reaction or overwrites the caller's previous one. The
// unique index turns concurrent duplicates into updates of the same row.
func (r *reactionRepository) Set(ctx context.Context, target ReactionTarget, userID, targetID uint, t models.ReactionType) error {
	defer observability.TrackQuery("upsert", target.table())()

	now := time.Now()
	var row interface{}
	switch target {
	case ReactionTargetPost:
		row = &models.PostReaction{UserID: userID, PostID: targetID, Type: t, CreatedAt: now, UpdatedAt: now}
	case ReactionTargetComment:
		row = &models.CommentReaction{UserID: userID, CommentID: targetID, Type: t, CreatedAt: now, UpdatedAt: now}
	default:
		return models.NewValidationError(fmt.Sprintf("unknown reaction target %q", target))
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: target.column()}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

type typeCount struct {
	Type  models.ReactionType
	Count int64
}

func (r *reactionRepository) Counts(ctx context.Context, target ReactionTarget, targetID uint) (models.ReactionCounts, error) {
	defer observability.TrackQuery("count", target.table())()
	var rows []typeCount
	err := r.db.WithContext(ctx).
		Table(target.table()).
		Select("type, COUNT(*) AS count").
		Where(target.column()+" = ?", targetID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return models.ReactionCounts{}, models.NewInternalError(err)
	}

	var counts models.ReactionCounts
	for _, row := range rows {
		switch row.Type {
		case models.ReactionLike:
			counts.Likes = row.Count
		case models.ReactionDislike:
			counts.Dislikes = row.Count
		}
	}
	return counts, nil
}

func (r *reactionRepository) UserReactions(ctx context.Context, target ReactionTarget, userID uint, targetIDs []uint) (map[uint]models.ReactionType, error) {
	out := make(map[uint]models.ReactionType, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	defer observability.TrackQuery("list", target.table())()

	var rows []struct {
		TargetID uint
		Type     models.ReactionType
	}
	err := r.db.WithContext(ctx).
		Table(target.table()).
		Select(target.column()+" AS target_id, type").
		Where("user_id = ? AND "+target.column()+" IN ?", userID, targetIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.TargetID] = row.Type
	}
	return out, nil
}
