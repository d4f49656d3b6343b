package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"

	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/config"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/database"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/events"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/handlers"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/notify"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/routes"
	"github.com/taufiksamantha-web/nongkrongr-sub002/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if err := services.InitPush(cfg.FCMServiceAccount); err != nil {
		log.Printf("Push init: %v", err)
	}

	bus := events.NewBus()
	registry := notify.NewRegistry(database.DB, bus, services.Push, cfg.DeviceStateDir, handlers.WS)
	defer registry.Shutdown()

	handlers.Init(bus, registry)

	app := fiber.New(fiber.Config{
		AppName: "nongkrongr-api",
	})
	app.Use(cors.New())

	routes.Setup(app)

	log.Printf("Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
