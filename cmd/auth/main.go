package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"invite-studio/internal/auth/handlers"
	"invite-studio/internal/auth/repository"
	"invite-studio/internal/auth/service"
	"invite-studio/internal/common/config"
	"invite-studio/internal/common/middleware"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Auth Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3002"
	}

	db, err := repository.OpenSQLite(cfg.AuthDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(context.Background(), cfg.AuthMigrations); err != nil {
		log.Fatalf("init db: %v", err)
	}

	sessionManager := service.NewSessionManager()
	authHandler := handlers.NewAuthHandler(repo, sessionManager)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		ErrorHandler: middleware.ErrorHandler,
		AppName:      "Auth Service",
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
		if err := db.PingContext(context.Background()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Auth Routes
	// ============================================================

	authHandler.Mount(app.Group(""))

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Auth Service on %s (env: %s, db: %s)", addr, cfg.Environment, cfg.AuthDBPath)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
