package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// ReportRepository stores moderation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	TargetExists(ctx context.Context, targetType models.ReportTargetType, targetID uint) (bool, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	defer observability.TrackQuery("create", "reports")()
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *reportRepository) TargetExists(ctx context.Context, targetType models.ReportTargetType, targetID uint) (bool, error) {
	var model interface{}
	switch targetType {
	case models.ReportTargetUser:
		model = &models.User{}
	case models.ReportTargetPost:
		model = &models.Post{}
	case models.ReportTargetComment:
		model = &models.Comment{}
	default:
		return false, models.NewValidationError("unknown report target type")
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(model).Where("id = ?", targetID).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
