package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// MediaRepository defines persistence operations for uploaded files.
type MediaRepository interface {
	Create(ctx context.Context, file *models.MediaFile) error
	ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.MediaFile, error)
	AllByPost(ctx context.Context, postID uint) ([]*models.MediaFile, error)
	GetByFilename(ctx context.Context, postID uint, filename string) (*models.MediaFile, error)
	GetByID(ctx context.Context, postID, id uint) (*models.MediaFile, error)
	Delete(ctx context.Context, id uint) error
	ReferencedPaths(ctx context.Context) (map[string]struct{}, error)
}

type mediaRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMediaRepository creates a new media repository.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db, log: observability.NewRepoLogger("media_files")}
}

func (r *mediaRepository) Create(ctx context.Context, file *models.MediaFile) error {
	defer observability.TrackQuery("create", "media_files")()
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		if IsUniqueViolation(err) {
			return models.NewConflictError("filename already exists")
		}
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": file.ID, "post_id": file.PostID, "filename": file.Filename})
	return nil
}

func (r *mediaRepository) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.MediaFile, error) {
	defer observability.TrackQuery("list", "media_files")()
	var files []*models.MediaFile
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&files).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return files, nil
}

func (r *mediaRepository) AllByPost(ctx context.Context, postID uint) ([]*models.MediaFile, error) {
	return r.ListByPost(ctx, postID, -1, -1)
}

func (r *mediaRepository) GetByFilename(ctx context.Context, postID uint, filename string) (*models.MediaFile, error) {
	defer observability.TrackQuery("get", "media_files")()
	var file models.MediaFile
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND filename = ?", postID, filename).
		First(&file).Error
	if err != nil {
		return nil, notFound(err, "File", filename)
	}
	return &file, nil
}

func (r *mediaRepository) GetByID(ctx context.Context, postID, id uint) (*models.MediaFile, error) {
	defer observability.TrackQuery("get", "media_files")()
	var file models.MediaFile
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).First(&file, id).Error; err != nil {
		return nil, notFound(err, "File", id)
	}
	return &file, nil
}

func (r *mediaRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "media_files")()
	res := r.db.WithContext(ctx).Delete(&models.MediaFile{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("File", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// ReferencedPaths returns every original and thumbnail path any row points at.
func (r *mediaRepository) ReferencedPaths(ctx context.Context) (map[string]struct{}, error) {
	defer observability.TrackQuery("list", "media_files")()
	var rows []struct {
		FilePath      string
		ThumbnailPath string
	}
	if err := r.db.WithContext(ctx).Model(&models.MediaFile{}).Select("file_path, thumbnail_path").Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	out := make(map[string]struct{}, len(rows)*2)
	for _, row := range rows {
		out[row.FilePath] = struct{}{}
		if row.ThumbnailPath != "" {
			out[row.ThumbnailPath] = struct{}{}
		}
	}
	return out, nil
}
