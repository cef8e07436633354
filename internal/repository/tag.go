package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Upsert(ctx context.Context, tags []models.Tag) ([]models.Tag, error)
	ListWithCounts(ctx context.Context) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// Upsert returns the stored row for every (name, type), creating missing ones.
func (r *tagRepository) Upsert(ctx context.Context, tags []models.Tag) ([]models.Tag, error) {
	defer observability.TrackQuery("upsert", "tags")()
	out := make([]models.Tag, 0, len(tags))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range tags {
			var row models.Tag
			if err := tx.Where(models.Tag{Name: t.Name, Type: t.Type}).FirstOrCreate(&row).Error; err != nil {
				return err
			}
			out = append(out, row)
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *tagRepository) ListWithCounts(ctx context.Context) ([]models.Tag, error) {
	defer observability.TrackQuery("list", "tags")()
	var tags []models.Tag
	err := r.db.WithContext(ctx).
		Model(&models.Tag{}).
		Select("tags.*, (SELECT COUNT(*) FROM post_tags WHERE post_tags.tag_id = tags.id) AS post_count").
		Order("post_count DESC").
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}
