package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationState records whether a viewer has read or deleted a
// notification. Rows are upserted, never hard-deleted: a deleted id stays
// suppressed for that scope until the viewer clears their state. Read and
// deleted are independent flags so a delete never loses the read mark.
type NotificationState struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ViewerScope    string    `json:"viewerScope" gorm:"uniqueIndex:idx_viewer_notification;not null"`
	NotificationID string    `json:"notificationId" gorm:"uniqueIndex:idx_viewer_notification;not null"`
	IsRead         bool      `json:"isRead" gorm:"default:false"`
	IsDeleted      bool      `json:"isDeleted" gorm:"default:false"`
	UpdatedAt      time.Time `json:"updatedAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s *NotificationState) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
