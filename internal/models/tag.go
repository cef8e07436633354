package models

import "time"

// TagType classifies a tag.
type TagType string

const (
	TagTypeArtist    TagType = "artist"
	TagTypeGeneral   TagType = "general"
	TagTypeCharacter TagType = "character"
	TagTypeParody    TagType = "parody"
)

// Valid reports whether t is a known tag type.
func (t TagType) Valid() bool {
	switch t {
	case TagTypeArtist, TagTypeGeneral, TagTypeCharacter, TagTypeParody:
		return true
	}
	return false
}

// Tag labels posts. A tag is unique by name and type.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;not null;uniqueIndex:idx_tag_name_type" json:"name"`
	Type      TagType   `gorm:"size:16;not null;uniqueIndex:idx_tag_name_type" json:"type"`
	CreatedAt time.Time `json:"created_at"`
	// PostCount is computed at query time
	PostCount int64 `gorm:"->;-:migration" json:"count"`
}
