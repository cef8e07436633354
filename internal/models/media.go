package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MediaFile is one uploaded original plus its derived thumbnail. Paths are
// relative to the configured upload root.
type MediaFile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PostID        uint      `gorm:"not null;index" json:"post_id"`
	Filename      string    `gorm:"size:96;not null;uniqueIndex" json:"filename"`
	FilePath      string    `gorm:"not null" json:"-"`
	ThumbnailPath string    `gorm:"not null" json:"-"`
	ContentType   string    `gorm:"size:127;not null" json:"content_type"`
	Size          int64     `gorm:"not null" json:"size"`
	Width         *int      `json:"width"`
	Height        *int      `json:"height"`
	CreatedAt     time.Time `json:"created_at"`

	URL          string `gorm:"-" json:"url"`
	ThumbnailURL string `gorm:"-" json:"thumbnail_url"`
}

// FileURL is the API path that serves a post's file or its thumbnail.
func FileURL(postID uint, filename string, thumbnail bool) string {
	u := fmt.Sprintf("/api/posts/%d/files/%s", postID, url.PathEscape(filename))
	if thumbnail {
		u += "?thumbnail=true"
	}
	return u
}

// FillURLs sets URL and ThumbnailURL from the post and filename.
func (f *MediaFile) FillURLs() {
	f.URL = FileURL(f.PostID, f.Filename, false)
	f.ThumbnailURL = FileURL(f.PostID, f.Filename, true)
}

// IsVideo reports whether the original is a video.
func (f *MediaFile) IsVideo() bool {
	return strings.HasPrefix(f.ContentType, "video/")
}

// ThumbnailFormat returns the extension and content type a thumbnail of a
// source with the given content type is encoded as. PNG and GIF sources keep
// their format; everything else, video included, becomes JPEG.
func ThumbnailFormat(contentType string) (ext, thumbType string) {
	switch contentType {
	case "image/png":
		return ".png", "image/png"
	case "image/gif":
		return ".gif", "image/gif"
	default:
		return ".jpg", "image/jpeg"
	}
}

// ThumbnailContentType is the content type of the derived thumbnail.
func (f *MediaFile) ThumbnailContentType() string {
	_, ct := ThumbnailFormat(f.ContentType)
	return ct
}
