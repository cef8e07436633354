package server

import (
	"vaultbox/internal/models"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content"`
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	page := parsePagination(c, defaultPageSize)

	comments, err := s.commentService.List(c.UserContext(), identity(c), postID, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Create comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req commentRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	comment, err := s.commentService.Create(c.UserContext(), identity(c), postID, req.Content)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/posts/:id/comments/:commentID
// @Summary Delete comment
// @Tags comments
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentID path int true "Comment ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentID} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	commentID, err := parseID(c, "commentID")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	if err := s.commentService.Delete(c.UserContext(), identity(c), postID, commentID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactToComment handles POST /api/posts/:id/comments/:commentID/reactions
// @Summary React to comment
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param commentID path int true "Comment ID"
// @Param request body object{type=string} true "like, dislike or none"
// @Success 200 {object} models.ReactionSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/comments/{commentID}/reactions [post]
func (s *Server) ReactToComment(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	commentID, err := parseID(c, "commentID")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	summary, err := s.reactionService.SetCommentReaction(c.UserContext(), identity(c), postID, commentID, models.ReactionType(req.Type))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(summary)
}
