package service

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// CommentService handles comments on posts.
type CommentService struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	events    EventPublisher
}

// NewCommentService creates a CommentService. events may be nil.
func NewCommentService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	reactions repository.ReactionRepository,
	events EventPublisher,
) *CommentService {
	return &CommentService{posts: posts, comments: comments, reactions: reactions, events: publisherOrNoop(events)}
}

// List returns the post's comments in top order.
func (s *CommentService) List(ctx context.Context, viewer models.Identity, postID uint, limit, offset int) ([]*models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	if err := fillCommentReactions(ctx, s.reactions, viewer, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Create adds a comment and tells the post owner about it.
func (s *CommentService) Create(ctx context.Context, ident models.Identity, postID uint, content string) (*models.Comment, error) {
	if ident.IsZero() {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if err := validation.ValidateLength("content", content, 1, 2000); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{Content: content, UserID: ident.ID, PostID: postID}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	created, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}
	created.UserReaction = models.ReactionNone

	s.events.PublishUser(ctx, post.UserID, EventCommentCreated, map[string]interface{}{
		"post_id": postID,
		"comment": created,
	})
	return created, nil
}

// Delete removes a comment and its reactions. Author only.
func (s *CommentService) Delete(ctx context.Context, ident models.Identity, postID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PostID != postID || ident.IsZero() || comment.UserID != ident.ID {
		return models.NewNotFoundError("Comment", commentID)
	}
	return s.comments.Delete(ctx, commentID)
}
