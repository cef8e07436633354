package models

import "time"

// ReportTargetType names what a report points at.
type ReportTargetType string

const (
	ReportTargetUser    ReportTargetType = "user"
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
)

// Valid reports whether t is a known target type.
func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetUser, ReportTargetPost, ReportTargetComment:
		return true
	}
	return false
}

// Report flags a user, post or comment for moderation. UserID is nil for
// anonymous reports.
type Report struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	UserID     *uint            `gorm:"index" json:"user_id"`
	TargetType ReportTargetType `gorm:"size:16;not null;index:idx_report_target" json:"target_type"`
	TargetID   uint             `gorm:"not null;index:idx_report_target" json:"target_id"`
	Detail     string           `gorm:"type:text;not null" json:"detail"`
	CreatedAt  time.Time        `json:"created_at"`
}
