package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
)

// currentViewer builds the notify.Viewer for the request, identified or
// anonymous depending on what ViewerContext middleware resolved.
func currentViewer(c *fiber.Ctx) notify.Viewer {
	if userID := middleware.GetUserID(c); userID != uuid.Nil {
		return notify.Identified(userID, middleware.GetRole(c))
	}
	return notify.Anonymous(middleware.GetDeviceID(c))
}

// GetNotifications returns the viewer's feed, unread count and day grouping
func GetNotifications(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))

	feed := engine.Feed()
	return c.JSON(fiber.Map{
		"notifications": feed,
		"unread":        engine.UnreadCount(),
		"sections":      notify.GroupByDay(feed, time.Now()),
	})
}

// MarkNotificationRead marks a single notification as read
func MarkNotificationRead(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))
	engine.MarkAsRead(c.Params("id"))
	return c.JSON(fiber.Map{"success": true, "unread": engine.UnreadCount()})
}

// MarkAllNotificationsRead marks every notification in the feed as read
func MarkAllNotificationsRead(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))
	engine.MarkAllAsRead()
	return c.JSON(fiber.Map{"success": true, "unread": engine.UnreadCount()})
}

// DeleteNotification removes one notification and suppresses its id
func DeleteNotification(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))
	engine.Delete(c.Params("id"))
	return c.JSON(fiber.Map{"success": true, "unread": engine.UnreadCount()})
}

// ClearNotifications empties the feed and suppresses every current id
func ClearNotifications(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))
	engine.ClearAll()
	return c.JSON(fiber.Map{"success": true})
}

// RefreshNotifications re-runs the snapshot queries and reseeds the feed
func RefreshNotifications(c *fiber.Ctx) error {
	engine := Notifications.Engine(c.UserContext(), currentViewer(c))
	engine.Refresh(c.UserContext())
	return c.JSON(fiber.Map{
		"notifications": engine.Feed(),
		"unread":        engine.UnreadCount(),
	})
}

// RegisterDeviceToken saves the FCM token for push notifications
func RegisterDeviceToken(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token is required",
		})
	}

	database.DB.Model(&models.User{}).Where("id = ?", userID).Update("fcm_token", req.Token)

	return c.JSON(fiber.Map{"success": true})
}

// Logout tears down the viewer's notification engine
func Logout(c *fiber.Ctx) error {
	Notifications.Drop(currentViewer(c).Scope())
	return c.JSON(fiber.Map{"success": true})
}
