package service

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// PostFileRemover deletes a post's files from disk before the post goes away.
type PostFileRemover interface {
	RemovePostFiles(ctx context.Context, postID uint) error
}

// PostService handles post CRUD.
type PostService struct {
	posts     repository.PostRepository
	reactions repository.ReactionRepository
	tags      *TagService
	files     PostFileRemover
}

// PostInput is the payload for creating or updating a post.
type PostInput struct {
	Title string     `json:"title"`
	Tags  []TagInput `json:"tags"`
}

// ListPostsInput filters and pages a post listing.
type ListPostsInput struct {
	Limit  int
	Offset int
	Sort   string
	Tag    string
}

// NewPostService creates a PostService.
func NewPostService(
	posts repository.PostRepository,
	reactions repository.ReactionRepository,
	tags *TagService,
	files PostFileRemover,
) *PostService {
	return &PostService{posts: posts, reactions: reactions, tags: tags, files: files}
}

func (in PostInput) validate() error {
	if err := validation.ValidateLength("title", in.Title, 1, 200); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Create stores a new post owned by ident with its tags.
func (s *PostService) Create(ctx context.Context, ident models.Identity, in PostInput) (*models.Post, error) {
	if ident.IsZero() {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	tags, err := s.tags.Resolve(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post := &models.Post{Title: in.Title, UserID: ident.ID, Tags: tags}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	s.tags.Invalidate(ctx)
	return s.Get(ctx, ident, post.ID)
}

// Get returns one post with counts and the viewer's reaction.
func (s *PostService) Get(ctx context.Context, viewer models.Identity, id uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fillPostReactions(ctx, s.reactions, viewer, []*models.Post{post}); err != nil {
		return nil, err
	}
	return post, nil
}

// List returns a ranked page of posts.
func (s *PostService) List(ctx context.Context, viewer models.Identity, in ListPostsInput) ([]*models.Post, error) {
	if !repository.ValidSort(in.Sort) {
		return nil, models.NewValidationError("sort must be one of top, likes, score, new")
	}
	posts, err := s.posts.List(ctx, repository.PostQuery{
		Limit:  in.Limit,
		Offset: in.Offset,
		Sort:   in.Sort,
		Tag:    in.Tag,
	})
	if err != nil {
		return nil, err
	}
	if err := fillPostReactions(ctx, s.reactions, viewer, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Update replaces the title and tags. Owner only.
func (s *PostService) Update(ctx context.Context, ident models.Identity, id uint, in PostInput) (*models.Post, error) {
	post, err := ownedPost(ctx, s.posts, ident, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	tags, err := s.tags.Resolve(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	post.Title = in.Title
	if err := s.posts.Update(ctx, post, tags); err != nil {
		return nil, err
	}
	s.tags.Invalidate(ctx)
	return s.Get(ctx, ident, id)
}

// Delete removes the post's files from disk, then the post and everything
// attached to it. Owner only.
func (s *PostService) Delete(ctx context.Context, ident models.Identity, id uint) error {
	if _, err := ownedPost(ctx, s.posts, ident, id); err != nil {
		return err
	}
	if err := s.files.RemovePostFiles(ctx, id); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.tags.Invalidate(ctx)
	return nil
}
