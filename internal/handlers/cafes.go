package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// CreateCafe submits a cafe listing for moderation
func CreateCafe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateCafeRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	cafe := models.Cafe{
		OwnerID: userID,
		Name:    req.Name,
		Address: req.Address,
		Status:  models.CafePending,
	}

	if err := database.DB.Create(&cafe).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create cafe",
		})
	}

	cafe.Slug = slugify(req.Name, cafe.ID)
	database.DB.Model(&cafe).Update("slug", cafe.Slug)

	Bus.PublishInsert(notify.TableCafes, cafe)

	return c.Status(fiber.StatusCreated).JSON(cafe)
}

// ModerateCafe approves or rejects a pending cafe listing
func ModerateCafe(c *fiber.Ctx) error {
	cafeID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid cafe ID",
		})
	}

	var req models.ModerateCafeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Status != models.CafeApproved && req.Status != models.CafeRejected {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	var cafe models.Cafe
	if err := database.DB.First(&cafe, cafeID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Cafe not found",
		})
	}

	old := cafe
	cafe.Status = req.Status
	if err := database.DB.Save(&cafe).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update cafe",
		})
	}

	Bus.PublishUpdate(notify.TableCafes, cafe, old)

	return c.JSON(cafe)
}
