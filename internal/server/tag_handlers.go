package server

import (
	"vaultbox/internal/models"
	"vaultbox/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTags handles GET /api/tags
// @Summary List tags
// @Description All tags with their post counts
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.tagService.List(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(tags)
}

// CreateReport handles POST /api/reports
// @Summary Report content
// @Description Flags a user, post or comment. Anonymous reports are accepted unless disabled.
// @Tags reports
// @Accept json
// @Produce json
// @Param request body service.ReportInput true "Report"
// @Success 201 {object} models.Report
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /reports [post]
func (s *Server) CreateReport(c *fiber.Ctx) error {
	var req service.ReportInput
	if err := parseBody(c, &req); err != nil {
		return models.RespondWithError(c, err)
	}

	report, err := s.reportService.Create(c.UserContext(), identity(c), req)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// GetFeatureFlags handles GET /api/features
// @Summary Feature flags
// @Description Evaluated flags for the caller
// @Tags features
// @Produce json
// @Success 200 {object} map[string]bool
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(s.featureFlags.Snapshot(identity(c).ID))
}
