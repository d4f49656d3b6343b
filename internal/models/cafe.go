package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cafe statuses
const (
	CafePending  = "pending"
	CafeApproved = "approved"
	CafeRejected = "rejected"
)

// Cafe is a directory listing submitted by its owner and moderated by admins.
type Cafe struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID   uuid.UUID      `json:"ownerId" gorm:"type:uuid;index;not null"`
	Name      string         `json:"name" gorm:"not null"`
	Slug      string         `json:"slug" gorm:"uniqueIndex"`
	Address   string         `json:"address"`
	Status    string         `json:"status" gorm:"default:pending;index"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

func (c *Cafe) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type CreateCafeRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address"`
}

type ModerateCafeRequest struct {
	Status string `json:"status" validate:"required"` // approved, rejected
}
