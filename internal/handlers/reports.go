package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// CreateReport files a new citizen report
func CreateReport(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req models.CreateReportRequest
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Title is required",
		})
	}

	report := models.Report{
		ReporterID: userID,
		Title:      req.Title,
		Category:   req.Category,
		Body:       req.Body,
		Status:     models.ReportOpen,
	}

	if err := database.DB.Create(&report).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create report",
		})
	}

	Bus.PublishInsert(notify.TableReports, report)

	return c.Status(fiber.StatusCreated).JSON(report)
}

// UpdateReportStatus moves a report through its triage lifecycle
func UpdateReportStatus(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid report ID",
		})
	}

	var req models.UpdateReportStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	switch req.Status {
	case models.ReportOpen, models.ReportInProgress, models.ReportResolved, models.ReportRejected:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid status",
		})
	}

	var report models.Report
	if err := database.DB.First(&report, reportID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Report not found",
		})
	}

	old := report
	report.Status = req.Status
	if err := database.DB.Save(&report).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update report",
		})
	}

	Bus.PublishUpdate(notify.TableReports, report, old)

	return c.JSON(report)
}
