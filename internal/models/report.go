package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Report statuses
const (
	ReportOpen       = "open"
	ReportInProgress = "in_progress"
	ReportResolved   = "resolved"
	ReportRejected   = "rejected"
)

// Report is a citizen-submitted ticket (broken facility, scam, etc.).
type Report struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	ReporterID uuid.UUID      `json:"reporterId" gorm:"type:uuid;index;not null"`
	Title      string         `json:"title" gorm:"not null"`
	Category   string         `json:"category"`
	Body       string         `json:"body"`
	Status     string         `json:"status" gorm:"default:open;index"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	Reporter User `json:"reporter,omitempty" gorm:"foreignKey:ReporterID"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type CreateReportRequest struct {
	Title    string `json:"title" validate:"required"`
	Category string `json:"category"`
	Body     string `json:"body"`
}

type UpdateReportStatusRequest struct {
	Status string `json:"status" validate:"required"` // open, in_progress, resolved, rejected
}
