package server

import (
	"time"

	"vaultbox/internal/models"
	"vaultbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateVault handles POST /api/vaults
// @Summary Create vault
// @Tags vaults
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.VaultInput true "Vault"
// @Success 201 {object} models.Vault
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /vaults [post]
func (s *Server) CreateVault(c *fiber.Ctx) error {
	var req service.VaultInput
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	vault, err := s.vaultService.Create(c.UserContext(), identity(c), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(vaultView{Vault: vault, TimeSince: vault.TimeSince(time.Now())})
}

// GetVault handles GET /api/vaults/:id
// @Summary Get vault
// @Description Private vaults are visible to their owner only
// @Tags vaults
// @Produce json
// @Param id path int true "Vault ID"
// @Success 200 {object} models.Vault
// @Failure 404 {object} models.ErrorResponse
// @Router /vaults/{id} [get]
func (s *Server) GetVault(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}

	vault, err := s.vaultService.Get(c.UserContext(), identity(c), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(vaultView{Vault: vault, TimeSince: vault.TimeSince(time.Now())})
}

// UpdateVault handles PUT /api/vaults/:id
// @Summary Update vault
// @Tags vaults
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Vault ID"
// @Param request body service.VaultInput true "Vault"
// @Success 200 {object} models.Vault
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /vaults/{id} [put]
func (s *Server) UpdateVault(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	var req service.VaultInput
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	vault, err := s.vaultService.Update(c.UserContext(), identity(c), id, req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(vaultView{Vault: vault, TimeSince: vault.TimeSince(time.Now())})
}

// DeleteVault handles DELETE /api/vaults/:id
// @Summary Delete vault
// @Tags vaults
// @Security BearerAuth
// @Param id path int true "Vault ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /vaults/{id} [delete]
func (s *Server) DeleteVault(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.vaultService.Delete(c.UserContext(), identity(c), id); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetVaultPosts handles GET /api/vaults/:id/posts
// @Summary List vault posts
// @Tags vaults
// @Produce json
// @Param id path int true "Vault ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /vaults/{id}/posts [get]
func (s *Server) GetVaultPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return models.RespondWithError(c, err)
	}
	page := parsePagination(c, defaultPageSize)

	posts, err := s.vaultService.ListPosts(c.UserContext(), identity(c), id, page.Limit, page.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(newPostViews(posts, time.Now()))
}

// AddVaultPost handles POST /api/vaults/:id/posts/:postID
// @Summary Add post to vault
// @Tags vaults
// @Security BearerAuth
// @Param id path int true "Vault ID"
// @Param postID path int true "Post ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /vaults/{id}/posts/{postID} [post]
func (s *Server) AddVaultPost(c *fiber.Ctx) error {
	vaultID, postID, err := vaultPostParams(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.vaultService.AddPost(c.UserContext(), identity(c), vaultID, postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveVaultPost handles DELETE /api/vaults/:id/posts/:postID
// @Summary Remove post from vault
// @Tags vaults
// @Security BearerAuth
// @Param id path int true "Vault ID"
// @Param postID path int true "Post ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /vaults/{id}/posts/{postID} [delete]
func (s *Server) RemoveVaultPost(c *fiber.Ctx) error {
	vaultID, postID, err := vaultPostParams(c)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if err := s.vaultService.RemovePost(c.UserContext(), identity(c), vaultID, postID); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func vaultPostParams(c *fiber.Ctx) (uint, uint, error) {
	vaultID, err := parseID(c, "id")
	if err != nil {
		return 0, 0, err
	}
	postID, err := parseID(c, "postID")
	if err != nil {
		return 0, 0, err
	}
	return vaultID, postID, nil
}
