package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error)
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func applyCommentDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("comments.*, " + reactionCountColumns("comment_reactions", "comment_id", "comments"))
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackQuery("create", "comments")()
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": comment.ID, "post_id": comment.PostID})
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("get", "comments")()
	var comment models.Comment
	if err := applyCommentDetails(r.db.WithContext(ctx)).Preload("User").First(&comment, id).Error; err != nil {
		return nil, notFound(err, "Comment", id)
	}
	return &comment, nil
}

// ListByPost returns the post's comments in top order.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	defer observability.TrackQuery("list", "comments")()
	var comments []*models.Comment
	db := applyCommentDetails(r.db.WithContext(ctx)).
		Preload("User").
		Where("comments.post_id = ?", postID)
	if err := applySort(db, "comments", SortTop).Limit(limit).Offset(offset).Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// Delete removes the comment with its reactions.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "comments")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentReaction{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Comment{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFound(err, "Comment", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
