package service

import (
	"context"

	"vaultbox/internal/cache"
	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// TagInput is a tag as submitted with a post.
type TagInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TagService owns tag normalization and the cached tag listing.
type TagService struct {
	tags  repository.TagRepository
	cache *cache.Cache
}

// NewTagService creates a TagService. c may wrap a nil client.
func NewTagService(tags repository.TagRepository, c *cache.Cache) *TagService {
	return &TagService{tags: tags, cache: c}
}

// List returns all tags with their post counts, served from Redis when warm.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.cache.Aside(ctx, cache.TagsKey, &tags, cache.TagsTTL, func() error {
		var err error
		tags, err = s.tags.ListWithCounts(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []models.Tag{}
	}
	return tags, nil
}

// Resolve validates and de-duplicates the inputs and returns the stored tags,
// creating any that do not exist yet. An empty type means general.
func (s *TagService) Resolve(ctx context.Context, inputs []TagInput) ([]models.Tag, error) {
	if len(inputs) == 0 {
		return []models.Tag{}, nil
	}
	if len(inputs) > 64 {
		return nil, models.NewValidationError("a post can have at most 64 tags")
	}

	seen := make(map[models.Tag]struct{}, len(inputs))
	wanted := make([]models.Tag, 0, len(inputs))
	for _, in := range inputs {
		name, err := validation.NormalizeTagName(in.Name)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		tagType := models.TagType(in.Type)
		if tagType == "" {
			tagType = models.TagTypeGeneral
		}
		if !tagType.Valid() {
			return nil, models.NewValidationError("tag type must be one of artist, general, character, parody")
		}
		key := models.Tag{Name: name, Type: tagType}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		wanted = append(wanted, key)
	}
	return s.tags.Upsert(ctx, wanted)
}

// Invalidate drops the cached listing after posts or their tags change.
func (s *TagService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.TagsKey)
}
