package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// CreateReview adds a review to an approved cafe
func CreateReview(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	cafeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cafe ID",
		})
	}

	var req models.CreateReviewRequest
	if err := c.BodyParser(&req); err != nil || req.Rating < 1 || req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Rating must be between 1 and 5",
		})
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, cafeID).Error; err != nil || cafe.Status != models.CafeApproved {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Cafe not found",
		})
	}

	review := models.Review{
		CafeID:  cafeID,
		UserID:  userID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}

	if err := database.DB.Create(&review).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create review",
		})
	}

	// Event rows carry the cafe so channel builders have display fields
	review.Cafe = cafe
	Bus.PublishInsert(notify.TableReviews, review)

	return c.Status(fiber.StatusCreated).JSON(review)
}
