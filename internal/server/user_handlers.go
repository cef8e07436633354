package server

import (
	"time"

	"vaultbox/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetUserProfile handles GET /api/users/:username
// @Summary Get user profile
// @Description Public profile with post, vault, comment and liked-post counts
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.Profile(c.UserContext(), c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(profile)
}

// GetUserVaults handles GET /api/users/:username/vaults
// @Summary List a user's vaults
// @Description Private vaults are included only for their owner
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.Vault
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/vaults [get]
func (s *Server) GetUserVaults(c *fiber.Ctx) error {
	vaults, err := s.vaultService.ListForUser(c.UserContext(), identity(c), c.Params("username"))
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(newVaultViews(vaults, time.Now()))
}
