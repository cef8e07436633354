package server

import (
	"time"

	"vaultbox/internal/middleware"
	"vaultbox/internal/models"
	"vaultbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// authResponse is returned by register and login.
type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.Credentials true "Account credentials"
// @Success 201 {object} authResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req service.Credentials
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.userService.Register(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return s.issueSession(c, fiber.StatusCreated, user)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Description Authenticate and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body service.Credentials true "Account credentials"
// @Success 200 {object} authResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req service.Credentials
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	user, err := s.userService.Login(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return s.issueSession(c, fiber.StatusOK, user)
}

func (s *Server) issueSession(c *fiber.Ctx, status int, user *models.User) error {
	token, expires, err := s.auth.IssueToken(user)
	if err != nil {
		return models.RespondWithError(c, models.NewInternalError(err))
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Status(status).JSON(authResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the current token until it expires
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.auth.Revoke(c.UserContext(), middleware.TokenFrom(c)); err != nil {
		return models.RespondWithError(c, err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.SendStatus(fiber.StatusNoContent)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.userService.GetByID(c.UserContext(), identity(c).ID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(user)
}
