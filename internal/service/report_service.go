package service

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// ReportInput is a moderation report as submitted.
type ReportInput struct {
	TargetType string `json:"target_type"`
	TargetID   uint   `json:"target_id"`
	Detail     string `json:"detail"`
}

// ReportService files moderation reports.
type ReportService struct {
	reports        repository.ReportRepository
	allowAnonymous bool
}

// NewReportService creates a ReportService. With allowAnonymous false every
// report needs an identity.
func NewReportService(reports repository.ReportRepository, allowAnonymous bool) *ReportService {
	return &ReportService{reports: reports, allowAnonymous: allowAnonymous}
}

// Create stores a report against an existing user, post or comment.
func (s *ReportService) Create(ctx context.Context, ident models.Identity, in ReportInput) (*models.Report, error) {
	if ident.IsZero() && !s.allowAnonymous {
		return nil, models.NewUnauthenticatedError("authentication required")
	}

	target := models.ReportTargetType(in.TargetType)
	if !target.Valid() {
		return nil, models.NewValidationError("target_type must be user, post or comment")
	}
	if in.TargetID == 0 {
		return nil, models.NewValidationError("target_id is required")
	}
	if err := validation.ValidateLength("detail", in.Detail, 1, 1000); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	exists, err := s.reports.TargetExists(ctx, target, in.TargetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError(string(target), in.TargetID)
	}

	report := &models.Report{TargetType: target, TargetID: in.TargetID, Detail: in.Detail}
	if !ident.IsZero() {
		id := ident.ID
		report.UserID = &id
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}
