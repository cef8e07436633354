package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"vaultbox/internal/media"
	"vaultbox/internal/models"
	"vaultbox/internal/observability"
	"vaultbox/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// Upload is one file of a multipart batch. Open is called once, after the
// whole batch has passed validation.
type Upload struct {
	media.FileDescriptor
	Open func() (io.ReadCloser, error)
}

// MediaService runs the upload pipeline and serves stored files.
type MediaService struct {
	posts     repository.PostRepository
	files     repository.MediaRepository
	storage   *media.Storage
	validator *media.Validator
	thumbs    *media.Thumbnailer
	events    EventPublisher
}

// NewMediaService wires the pipeline stages. events may be nil.
func NewMediaService(
	posts repository.PostRepository,
	files repository.MediaRepository,
	storage *media.Storage,
	validator *media.Validator,
	thumbs *media.Thumbnailer,
	events EventPublisher,
) *MediaService {
	return &MediaService{
		posts:     posts,
		files:     files,
		storage:   storage,
		validator: validator,
		thumbs:    thumbs,
		events:    publisherOrNoop(events),
	}
}

// ownedPost returns the post when ident owns it. Other callers get NOT_FOUND.
func ownedPost(ctx context.Context, posts repository.PostRepository, ident models.Identity, postID uint) (*models.Post, error) {
	post, err := posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if ident.IsZero() || post.UserID != ident.ID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	return post, nil
}

// AttachFiles stores each file in order, validating it and committing its
// record before moving on. When file k is rejected or fails, the records for
// files 1..k-1 stay committed and are returned alongside the error.
func (s *MediaService) AttachFiles(ctx context.Context, ident models.Identity, postID uint, uploads []Upload) ([]*models.MediaFile, error) {
	span, ctx := observability.NewSpan(ctx, "media.attach_files",
		attribute.Int64("post.id", int64(postID)),
		attribute.Int("files.count", len(uploads)),
	)
	defer span.End()

	if _, err := ownedPost(ctx, s.posts, ident, postID); err != nil {
		span.SetError(err)
		return nil, err
	}

	if len(uploads) == 0 {
		err := models.NewValidationError("no files provided")
		span.SetError(err)
		return nil, err
	}

	committed := make([]*models.MediaFile, 0, len(uploads))
	for i, up := range uploads {
		if err := s.validator.Validate(up.FileDescriptor); err != nil {
			observability.MediaUploadsTotal.WithLabelValues(s.kind(up.ContentType), "rejected").Inc()
			observability.GlobalLogger.WarnContext(ctx, "upload rejected",
				"post_id", postID, "file_index", i, "committed", len(committed), "error", err)
			span.SetError(err)
			s.notifyAttached(ctx, ident.ID, postID, committed)
			return committed, err
		}

		rec, err := s.storeOne(ctx, ident.Username, postID, up)
		if err != nil {
			observability.MediaUploadsTotal.WithLabelValues(s.kind(up.ContentType), "failed").Inc()
			observability.GlobalLogger.WarnContext(ctx, "upload batch stopped",
				"post_id", postID, "file_index", i, "committed", len(committed), "error", err)
			span.SetError(err)
			s.notifyAttached(ctx, ident.ID, postID, committed)
			return committed, err
		}
		observability.MediaUploadsTotal.WithLabelValues(s.kind(up.ContentType), "stored").Inc()
		committed = append(committed, rec)
	}

	s.notifyAttached(ctx, ident.ID, postID, committed)
	return committed, nil
}

func (s *MediaService) notifyAttached(ctx context.Context, ownerID, postID uint, files []*models.MediaFile) {
	if len(files) == 0 {
		return
	}
	s.events.PublishUser(ctx, ownerID, EventFilesAttached, map[string]interface{}{
		"post_id": postID,
		"files":   files,
	})
}

func (s *MediaService) kind(contentType string) string {
	if s.validator.IsVideo(contentType) {
		return "video"
	}
	return "image"
}

// storeOne writes one file and its thumbnail and commits its record. On any
// failure it removes whatever it put on disk.
func (s *MediaService) storeOne(ctx context.Context, owner string, postID uint, up Upload) (rec *models.MediaFile, err error) {
	ct := media.NormalizeContentType(up.ContentType)
	kind := s.kind(ct)

	span, ctx := observability.NewSpan(ctx, "media.store_file",
		attribute.String("file.kind", kind),
		attribute.String("file.content_type", ct),
		attribute.Int64("file.size", up.Size),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	filename := media.NewFilenameFor(up.Filename, ct)
	original, err := s.storage.Resolve(owner, postID, filename)
	if err != nil {
		return nil, err
	}
	thumb := filepath.Join(filepath.Dir(original), media.ThumbnailName(filename, ct))

	defer func() {
		if err != nil {
			if rmErr := media.RemoveFiles(original, thumb); rmErr != nil {
				observability.GlobalLogger.ErrorContext(ctx, "cleanup after failed upload", "path", original, "error", rmErr)
			}
		}
	}()

	written, err := s.write(ctx, up, original)
	if err != nil {
		return nil, err
	}
	observability.MediaUploadBytes.Add(float64(written))

	start := time.Now()
	dims, err := s.thumbs.Derive(ctx, original, ct, thumb)
	observability.ObserveThumbnail(kind, start)
	if err != nil {
		return nil, err
	}

	relOriginal, err := s.storage.Rel(original)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	relThumb, err := s.storage.Rel(thumb)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	size := up.Size
	if size <= 0 {
		size = written
	}
	rec = &models.MediaFile{
		PostID:        postID,
		Filename:      filename,
		FilePath:      relOriginal,
		ThumbnailPath: relThumb,
		ContentType:   ct,
		Size:          size,
		Width:         dims.Width,
		Height:        dims.Height,
	}
	if err = s.files.Create(ctx, rec); err != nil {
		return nil, err
	}
	rec.FillURLs()
	return rec, nil
}

// write streams the upload to disk, refusing bodies larger than the limit
// whatever size the client declared.
func (s *MediaService) write(ctx context.Context, up Upload, dst string) (int64, error) {
	if up.Open == nil {
		return 0, models.NewValidationError(fmt.Sprintf("file %q has no content", up.Filename))
	}
	rc, err := up.Open()
	if err != nil {
		return 0, models.NewInternalError(fmt.Errorf("open upload: %w", err))
	}
	defer func() { _ = rc.Close() }()

	limit := s.validator.MaxSize()
	written, err := media.WriteStream(ctx, io.LimitReader(rc, limit+1), dst)
	if err != nil {
		return written, models.NewInternalError(err)
	}
	if written > limit {
		return written, models.NewPayloadTooLargeError(up.Filename, written, limit)
	}
	return written, nil
}

// ListFiles pages through a post's files in upload order.
func (s *MediaService) ListFiles(ctx context.Context, postID uint, limit, offset int) ([]*models.MediaFile, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	files, err := s.files.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		f.FillURLs()
	}
	return files, nil
}

// ResolveFile returns the absolute path and content type to serve for a
// stored original or its thumbnail.
func (s *MediaService) ResolveFile(ctx context.Context, postID uint, filename string, thumbnail bool) (string, string, error) {
	f, err := s.files.GetByFilename(ctx, postID, filename)
	if err != nil {
		return "", "", err
	}

	rel, contentType := f.FilePath, f.ContentType
	if thumbnail {
		rel, contentType = f.ThumbnailPath, f.ThumbnailContentType()
	}
	abs, err := s.storage.Abs(rel)
	if err != nil {
		return "", "", models.NewNotFoundError("File", filename)
	}
	if info, err := os.Stat(abs); err != nil || info.IsDir() {
		return "", "", models.NewNotFoundError("File", filename)
	}
	return abs, contentType, nil
}

// DeleteFile removes one file from disk and then its record. Owner only.
func (s *MediaService) DeleteFile(ctx context.Context, ident models.Identity, postID, fileID uint) error {
	if _, err := ownedPost(ctx, s.posts, ident, postID); err != nil {
		return err
	}
	f, err := s.files.GetByID(ctx, postID, fileID)
	if err != nil {
		return err
	}
	if err := s.removeFromDisk(f); err != nil {
		return models.NewInternalError(err)
	}
	return s.files.Delete(ctx, f.ID)
}

// RemovePostFiles deletes every file of the post from disk. The rows go with
// the post itself.
func (s *MediaService) RemovePostFiles(ctx context.Context, postID uint) error {
	files, err := s.files.AllByPost(ctx, postID)
	if err != nil {
		return err
	}
	var errs []error
	for _, f := range files {
		if err := s.removeFromDisk(f); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *MediaService) removeFromDisk(f *models.MediaFile) error {
	var paths []string
	for _, rel := range []string{f.FilePath, f.ThumbnailPath} {
		if rel == "" {
			continue
		}
		abs, err := s.storage.Abs(rel)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}
	return media.RemoveFiles(paths...)
}

// OrphanGracePeriod is how old an unreferenced file must be before a sweep
// touches it. Younger files may belong to an upload whose record is not yet
// committed.
const OrphanGracePeriod = 15 * time.Minute

// SweepOrphans finds files under {root}/{owner}/posts/{id}/ that no record
// points at and, unless dryRun, deletes them. Files modified within
// OrphanGracePeriod are skipped. It returns the relative paths it found.
func (s *MediaService) SweepOrphans(ctx context.Context, dryRun bool) ([]string, error) {
	refs, err := s.files.ReferencedPaths(ctx)
	if err != nil {
		return nil, err
	}

	var orphans []string
	walkErr := filepath.WalkDir(s.storage.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := s.storage.Rel(path)
		if err != nil {
			return nil
		}
		parts := strings.Split(rel, "/")
		if len(parts) != 4 || parts[1] != "posts" {
			return nil
		}
		if _, ok := refs[rel]; ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if time.Since(info.ModTime()) < OrphanGracePeriod {
			return nil
		}

		orphans = append(orphans, rel)
		if !dryRun {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
		return nil
	})
	if walkErr != nil {
		return orphans, models.NewInternalError(walkErr)
	}

	if len(orphans) > 0 {
		observability.GlobalLogger.InfoContext(ctx, "orphan sweep finished",
			"orphans", len(orphans), "dry_run", dryRun)
	}
	return orphans, nil
}
