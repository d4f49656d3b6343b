package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// PublishArticle creates a fact-check article in published state
func PublishArticle(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.PublishArticleRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	now := time.Now()
	article := models.Article{
		AuthorID:    userID,
		Title:       req.Title,
		Verdict:     req.Verdict,
		Summary:     req.Summary,
		Status:      models.ArticlePublished,
		PublishedAt: &now,
	}
	if err := database.DB.Create(&article).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create article",
		})
	}

	// Slug needs the generated id
	article.Slug = slugify(req.Title, article.ID)
	database.DB.Model(&article).Update("slug", article.Slug)

	Bus.PublishInsert(notify.TableArticles, article)

	return c.Status(fiber.StatusCreated).JSON(article)
}
