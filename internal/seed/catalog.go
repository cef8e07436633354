package seed

import (
	"fmt"
	"os"
	"sort"

	"vaultbox/internal/models"
	"vaultbox/internal/validation"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Catalog is the tag list read from a YAML file, grouped by tag type:
//
//	artist: [alice_doe, kenji]
//	general: [landscape, night]
type Catalog map[models.TagType][]string

// LoadCatalog reads a tag catalog from path.
func LoadCatalog(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tag catalog: %w", err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog decodes a YAML tag catalog and rejects unknown types.
func ParseCatalog(raw []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode tag catalog: %w", err)
	}
	for t := range c {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown tag type %q in catalog", t)
		}
	}
	return c, nil
}

// Tags returns the catalog as normalized tag values.
func (c Catalog) Tags() ([]models.Tag, error) {
	var out []models.Tag
	for t, names := range c {
		for _, name := range names {
			norm, err := validation.NormalizeTagName(name)
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w", name, err)
			}
			out = append(out, models.Tag{Name: norm, Type: t})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// UpsertTags stores the tags, leaving existing (name, type) pairs alone, and
// returns them with their IDs.
func UpsertTags(db *gorm.DB, tags []models.Tag) ([]models.Tag, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "type"}},
		DoNothing: true,
	}).Create(&tags).Error; err != nil {
		return nil, fmt.Errorf("upsert tags: %w", err)
	}

	out := make([]models.Tag, 0, len(tags))
	for _, t := range tags {
		var stored models.Tag
		if err := db.Where("name = ? AND type = ?", t.Name, t.Type).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("load tag %s:%s: %w", t.Type, t.Name, err)
		}
		out = append(out, stored)
	}
	return out, nil
}
