package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles determine which notification queries and live channels apply to a user.
const (
	RoleAdmin  = "admin"  // content reviewer / moderator
	RoleEditor = "editor" // fact-check staff
	RoleOwner  = "owner"  // cafe owner or operator
	RoleMember = "member" // community member
)

// Account statuses
const (
	UserPending = "pending"
	UserActive  = "active"
)

type User struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Email       string         `json:"email" gorm:"uniqueIndex;not null"`
	Password    string         `json:"-"`
	Name        string         `json:"name"`
	DisplayName string         `json:"displayName"`
	AvatarURL   string         `json:"avatarUrl"`
	Role        string         `json:"role" gorm:"default:member;index"`
	Status      string         `json:"status" gorm:"default:pending;index"`
	FCMToken    string         `json:"-" gorm:"column:fcm_token"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Auth DTOs
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
