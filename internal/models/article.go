package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article statuses
const (
	ArticleDraft     = "draft"
	ArticlePublished = "published"
)

// Article is a fact-check news item. Only published articles are visible to
// the public feed.
type Article struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	AuthorID    uuid.UUID      `json:"authorId" gorm:"type:uuid;index;not null"`
	Title       string         `json:"title" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"uniqueIndex"`
	Verdict     string         `json:"verdict"` // hoax, misleading, verified
	Summary     string         `json:"summary"`
	Status      string         `json:"status" gorm:"default:draft;index"`
	PublishedAt *time.Time     `json:"publishedAt" gorm:"index"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Author User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

type PublishArticleRequest struct {
	Title   string `json:"title" validate:"required"`
	Verdict string `json:"verdict"`
	Summary string `json:"summary"`
}
