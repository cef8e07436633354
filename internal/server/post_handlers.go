package server

import (
	"time"

	"vaultbox/internal/models"
	"vaultbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

type reactionRequest struct {
	Type string `json:"type"`
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Posts with reaction and comment counts and the first file's thumbnail
// @Tags posts
// @Produce json
// @Param sort query string false "top, likes, score or new" default(top)
// @Param tag query string false "Tag name filter"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	posts, err := s.postService.List(c.UserContext(), identity(c), service.ListPostsInput{
		Limit:  page.Limit,
		Offset: page.Offset,
		Sort:   c.Query("sort"),
		Tag:    c.Query("tag"),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(newPostViews(posts, time.Now()))
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.PostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.PostInput
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.Create(c.UserContext(), identity(c), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(postView{Post: post, TimeSince: post.TimeSince(time.Now())})
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.Get(c.UserContext(), identity(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(postView{Post: post, TimeSince: post.TimeSince(time.Now())})
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Description Replaces the title and tags. Owner only.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.PostInput true "Post"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req service.PostInput
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	post, err := s.postService.Update(c.UserContext(), identity(c), id, req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(postView{Post: post, TimeSince: post.TimeSince(time.Now())})
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Removes the post with its files, comments, reactions and vault memberships. Owner only.
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.postService.Delete(c.UserContext(), identity(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReactToPost handles POST /api/posts/:id/reactions
// @Summary React to post
// @Description Sets the caller's reaction; "none" clears it
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body object{type=string} true "like, dislike or none"
// @Success 200 {object} models.ReactionSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id}/reactions [post]
func (s *Server) ReactToPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req reactionRequest
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	summary, err := s.reactionService.SetPostReaction(c.UserContext(), identity(c), id, models.ReactionType(req.Type))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(summary)
}
