package service

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"
	"vaultbox/internal/repository"
)

// ReactionService records like/dislike/none reactions and reports the
// resulting totals.
type ReactionService struct {
	posts     repository.PostRepository
	comments  repository.CommentRepository
	reactions repository.ReactionRepository
	events    EventPublisher
}

// NewReactionService creates a ReactionService. events may be nil.
func NewReactionService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	reactions repository.ReactionRepository,
	events EventPublisher,
) *ReactionService {
	return &ReactionService{posts: posts, comments: comments, reactions: reactions, events: publisherOrNoop(events)}
}

func parseReaction(ident models.Identity, t models.ReactionType) (models.ReactionType, error) {
	if ident.IsZero() {
		return "", models.NewUnauthenticatedError("authentication required")
	}
	parsed, ok := models.ParseReactionType(string(t))
	if !ok {
		return "", models.NewValidationError("reaction type must be one of like, dislike, none")
	}
	return parsed, nil
}

// SetPostReaction stores the caller's reaction to a post.
func (s *ReactionService) SetPostReaction(ctx context.Context, ident models.Identity, postID uint, t models.ReactionType) (models.ReactionSummary, error) {
	rt, err := parseReaction(ident, t)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	return s.set(ctx, repository.ReactionTargetPost, ident.ID, postID, post.UserID, rt)
}

// SetCommentReaction stores the caller's reaction to a comment of the post.
func (s *ReactionService) SetCommentReaction(ctx context.Context, ident models.Identity, postID, commentID uint, t models.ReactionType) (models.ReactionSummary, error) {
	rt, err := parseReaction(ident, t)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	if comment.PostID != postID {
		return models.ReactionSummary{}, models.NewNotFoundError("Comment", commentID)
	}
	return s.set(ctx, repository.ReactionTargetComment, ident.ID, commentID, comment.UserID, rt)
}

func (s *ReactionService) set(ctx context.Context, target repository.ReactionTarget, userID, targetID, ownerID uint, rt models.ReactionType) (models.ReactionSummary, error) {
	if err := s.reactions.Set(ctx, target, userID, targetID, rt); err != nil {
		return models.ReactionSummary{}, err
	}
	observability.ReactionsTotal.WithLabelValues(string(target), string(rt)).Inc()

	counts, err := s.reactions.Counts(ctx, target, targetID)
	if err != nil {
		return models.ReactionSummary{}, err
	}
	summary := models.ReactionSummary{Type: rt, Likes: counts.Likes, Dislikes: counts.Dislikes}

	s.events.PublishUser(ctx, ownerID, EventReactionUpdated, map[string]interface{}{
		"target":    target,
		"target_id": targetID,
		"likes":     summary.Likes,
		"dislikes":  summary.Dislikes,
	})
	return summary, nil
}

// fillPostReactions sets UserReaction on each post for the viewer.
func fillPostReactions(ctx context.Context, reactions repository.ReactionRepository, viewer models.Identity, posts []*models.Post) error {
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		p.UserReaction = models.ReactionNone
		ids = append(ids, p.ID)
	}
	if viewer.IsZero() || len(ids) == 0 {
		return nil
	}
	mine, err := reactions.UserReactions(ctx, repository.ReactionTargetPost, viewer.ID, ids)
	if err != nil {
		return err
	}
	for _, p := range posts {
		if rt, ok := mine[p.ID]; ok {
			p.UserReaction = rt
		}
	}
	return nil
}

func fillCommentReactions(ctx context.Context, reactions repository.ReactionRepository, viewer models.Identity, comments []*models.Comment) error {
	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		c.UserReaction = models.ReactionNone
		ids = append(ids, c.ID)
	}
	if viewer.IsZero() || len(ids) == 0 {
		return nil
	}
	mine, err := reactions.UserReactions(ctx, repository.ReactionTargetComment, viewer.ID, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		if rt, ok := mine[c.ID]; ok {
			c.UserReaction = rt
		}
	}
	return nil
}
