package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/handlers"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/middleware"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/models"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	// Notification feed: open to identified and anonymous viewers
	notifications := api.Group("/notifications", middleware.ViewerContext())
	notifications.Get("/", handlers.GetNotifications)
	notifications.Put("/:id/read", handlers.MarkNotificationRead)
	notifications.Post("/read-all", handlers.MarkAllNotificationsRead)
	notifications.Delete("/:id", handlers.DeleteNotification)
	notifications.Delete("/", handlers.ClearNotifications)
	notifications.Post("/refresh", handlers.RefreshNotifications)

	protected := api.Group("/", middleware.Protected())

	protected.Post("/logout", handlers.Logout)

	// Device token for push notifications
	protected.Post("/device-token", handlers.RegisterDeviceToken)

	// Fact-check articles
	articles := protected.Group("/articles", middleware.RequireRole(models.RoleEditor, models.RoleAdmin))
	articles.Post("/", handlers.PublishArticle)

	// Citizen reports
	reports := protected.Group("/reports")
	reports.Post("/", handlers.CreateReport)
	reports.Put("/:id/status", middleware.RequireRole(models.RoleAdmin), handlers.UpdateReportStatus)

	// Cafe directory
	cafes := protected.Group("/cafes")
	cafes.Post("/", middleware.RequireRole(models.RoleOwner), handlers.CreateCafe)
	cafes.Put("/:id/moderate", middleware.RequireRole(models.RoleAdmin), handlers.ModerateCafe)
	cafes.Post("/:id/reviews", handlers.CreateReview)

	// Account activation
	protected.Put("/users/:id/activate", middleware.RequireRole(models.RoleAdmin), handlers.ActivateUser)

	// WebSocket for real-time feed updates
	app.Use("/ws", handlers.WebSocketUpgrade())
	app.Get("/ws/notifications", websocket.New(handlers.HandleWebSocket))
}
