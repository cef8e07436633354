// Package media implements the upload pipeline building blocks: path layout,
// batch validation, chunked disk writes and thumbnail derivation.
package media

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vaultbox/internal/config"
	"vaultbox/internal/models"

	"github.com/google/uuid"
)

// ThumbnailPrefix is prepended to a generated filename to name its thumbnail.
const ThumbnailPrefix = "thumb_"

// Storage lays out uploaded files as {root}/{owner}/posts/{post_id}/{filename}.
type Storage struct {
	root string
}

// NewStorage builds a Storage rooted at cfg.UploadFolder.
func NewStorage(cfg *config.Config) (*Storage, error) {
	root, err := filepath.Abs(cfg.UploadFolder)
	if err != nil {
		return nil, fmt.Errorf("resolve upload folder: %w", err)
	}
	return &Storage{root: filepath.Clean(root)}, nil
}

// Root returns the absolute upload root.
func (s *Storage) Root() string { return s.root }

// Resolve returns the absolute path for filename under the owner's post
// directory, creating the directory if needed.
func (s *Storage) Resolve(owner string, postID uint, filename string) (string, error) {
	if !safeSegment(owner) {
		return "", models.NewValidationError("invalid owner path segment")
	}
	if !safeSegment(filename) {
		return "", models.NewValidationError("invalid filename")
	}
	dir := filepath.Join(s.root, owner, "posts", strconv.FormatUint(uint64(postID), 10))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	return filepath.Join(dir, filename), nil
}

// Rel converts an absolute path under the root into the slash-separated
// relative form stored on MediaFile rows.
func (s *Storage) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside upload root", abs)
	}
	return filepath.ToSlash(rel), nil
}

// Abs joins a stored relative path with the root. It refuses paths that would
// escape the root.
func (s *Storage) Abs(rel string) (string, error) {
	p := filepath.Join(s.root, filepath.FromSlash(rel))
	if p != s.root && !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes upload root", rel)
	}
	return p, nil
}

// NewFilename returns a random collision-resistant name that keeps the
// original extension.
func NewFilename(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if !safeSegment(ext) || len(ext) > 16 {
		ext = ""
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

var defaultExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
	"video/mp4":  ".mp4",
	"video/avi":  ".avi",
	"video/mkv":  ".mkv",
	"video/webm": ".webm",
}

// NewFilenameFor is NewFilename with a fallback extension taken from the
// content type when the original name has none.
func NewFilenameFor(original, contentType string) string {
	name := NewFilename(original)
	if filepath.Ext(name) == "" {
		name += defaultExtensions[NormalizeContentType(contentType)]
	}
	return name
}

// ThumbnailName derives the thumbnail filename from a generated filename. The
// extension follows the declared content type, not the uploaded name, so the
// encoded format always matches the type the thumbnail is served as.
func ThumbnailName(filename, contentType string) string {
	ext, _ := models.ThumbnailFormat(NormalizeContentType(contentType))
	return ThumbnailPrefix + strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}

func safeSegment(seg string) bool {
	if seg == "" || seg == "." || seg == ".." {
		return false
	}
	return !strings.ContainsAny(seg, `/\`) && !strings.Contains(seg, "..") && !strings.ContainsRune(seg, 0)
}
