package media

import (
	"mime"
	"strings"

	"vaultbox/internal/config"
	"vaultbox/internal/models"
)

// FileDescriptor is the metadata an upload transport reports for one file.
type FileDescriptor struct {
	Filename    string
	ContentType string
	Size        int64
}

// Validator checks upload metadata against the configured allow-lists and
// size limit. It never looks at file contents.
type Validator struct {
	maxSize int64
	images  map[string]struct{}
	videos  map[string]struct{}
}

// NewValidator builds a Validator from the injected config.
func NewValidator(cfg *config.Config) *Validator {
	v := &Validator{
		maxSize: cfg.MaxFileSize,
		images:  make(map[string]struct{}, len(cfg.AllowedImageTypes)),
		videos:  make(map[string]struct{}, len(cfg.AllowedVideoTypes)),
	}
	for _, ct := range cfg.AllowedImageTypes {
		v.images[NormalizeContentType(ct)] = struct{}{}
	}
	for _, ct := range cfg.AllowedVideoTypes {
		v.videos[NormalizeContentType(ct)] = struct{}{}
	}
	return v
}

// MaxSize returns the per-file size limit in bytes.
func (v *Validator) MaxSize() int64 { return v.maxSize }

// IsImage reports whether ct is an allowed image type.
func (v *Validator) IsImage(ct string) bool {
	_, ok := v.images[NormalizeContentType(ct)]
	return ok
}

// IsVideo reports whether ct is an allowed video type.
func (v *Validator) IsVideo(ct string) bool {
	_, ok := v.videos[NormalizeContentType(ct)]
	return ok
}

// Validate checks one file's declared type and size. It runs before the file
// touches disk.
func (v *Validator) Validate(f FileDescriptor) error {
	if !v.IsImage(f.ContentType) && !v.IsVideo(f.ContentType) {
		return models.NewUnsupportedMediaTypeError(f.ContentType)
	}
	if f.Size > v.maxSize {
		return models.NewPayloadTooLargeError(f.Filename, f.Size, v.maxSize)
	}
	return nil
}

// NormalizeContentType lower-cases a MIME type and strips its parameters.
func NormalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
