package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// PostQuery filters and pages a post listing.
type PostQuery struct {
	Limit   int
	Offset  int
	Sort    string
	Tag     string
	UserID  uint
	VaultID uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, q PostQuery) ([]*models.Post, error)
	Update(ctx context.Context, post *models.Post, tags []models.Tag) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get", "posts")()
	var post models.Post
	err := applyPostDetails(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Tags").
		First(&post, id).Error
	if err != nil {
		return nil, notFound(err, "Post", id)
	}
	if err := r.attachThumbnails(ctx, []*models.Post{&post}); err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("list", "posts")()
	var posts []*models.Post

	db := applyPostDetails(r.db.WithContext(ctx)).
		Preload("User").
		Preload("Tags")
	if q.Tag != "" {
		db = db.Where("EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE post_tags.post_id = posts.id AND tags.name = ?)", q.Tag)
	}
	if q.UserID != 0 {
		db = db.Where("posts.user_id = ?", q.UserID)
	}
	if q.VaultID != 0 {
		db = db.Where("EXISTS (SELECT 1 FROM vault_posts WHERE vault_posts.post_id = posts.id AND vault_posts.vault_id = ?)", q.VaultID)
	}

	err := applySort(db, "posts", q.Sort).
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := r.attachThumbnails(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// applyPostDetails adds subqueries to fetch reaction and comment counts in a single query.
func applyPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).Select("posts.*, " +
		reactionCountColumns("post_reactions", "post_id", "posts") + ", " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comment_count")
}

// attachThumbnails points each post at the thumbnail of its first file.
func (r *postRepository) attachThumbnails(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}

	var files []models.MediaFile
	if err := r.db.WithContext(ctx).
		Select("id, post_id, filename").
		Where("post_id IN ?", ids).
		Order("id ASC").
		Find(&files).Error; err != nil {
		return models.NewInternalError(err)
	}

	first := make(map[uint]string, len(files))
	for _, f := range files {
		if _, ok := first[f.PostID]; !ok {
			first[f.PostID] = f.Filename
		}
	}
	for _, p := range posts {
		if name, ok := first[p.ID]; ok {
			p.Thumbnail = models.FileURL(p.ID, name, true)
		}
	}
	return nil
}

// Update replaces the title and the full tag set.
func (r *postRepository) Update(ctx context.Context, post *models.Post, tags []models.Tag) error {
	defer observability.TrackQuery("update", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Update("title", post.Title).Error; err != nil {
			return err
		}
		return tx.Model(post).Association("Tags").Replace(tags)
	})
	if err != nil {
		r.log.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	post.Tags = tags
	r.log.LogUpdate(ctx, map[string]interface{}{"id": post.ID})
	return nil
}

// Delete removes the post and every row that hangs off it. Files on disk are
// the media service's job and must be removed first.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func() error{
			func() error {
				return tx.Exec("DELETE FROM comment_reactions WHERE comment_id IN (SELECT id FROM comments WHERE post_id = ?)", id).Error
			},
			func() error { return tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.PostReaction{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.MediaFile{}).Error },
			func() error { return tx.Where("post_id = ?", id).Delete(&models.VaultPost{}).Error },
			func() error { return tx.Exec("DELETE FROM post_tags WHERE post_id = ?", id).Error },
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFound(err, "Post", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}
