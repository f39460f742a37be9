package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"invite-studio/internal/common/config"
	"invite-studio/internal/common/middleware"
	"invite-studio/internal/studio/editor"
	"invite-studio/internal/studio/handlers"
	"invite-studio/internal/studio/storage"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Studio Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}

	store := storage.NewFileStorage(cfg.StudioDataDir)
	workspace := handlers.NewWorkspace(editor.ULIDSource{})
	studioHandler := handlers.NewStudioHandler(store, workspace)
	sessions := handlers.NewAuthClient(cfg.AuthURL)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		ErrorHandler: middleware.ErrorHandler,
		AppName:      "Studio Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Studio Routes
	// ============================================================

	studioHandler.Mount(app.Group(""), sessions)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Studio Service on %s (env: %s, data: %s)", addr, cfg.Environment, cfg.StudioDataDir)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
