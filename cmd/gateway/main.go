package main

import (
	"fmt"
	"log"
	"time"

	"invite-studio/internal/common/config"
	"invite-studio/internal/common/middleware"
	"invite-studio/internal/gateway/handlers"
	"invite-studio/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

const apiPrefix = "/api/v1"

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	upstreamTimeout := time.Duration(cfg.WriteTimeout) * time.Second
	auth := proxy.NewUpstream("auth", cfg.AuthURL, upstreamTimeout)
	studio := proxy.NewUpstream("studio", cfg.StudioURL, upstreamTimeout)
	health := handlers.NewHealth(map[string]handlers.Pinger{
		"auth":   auth,
		"studio": studio,
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		BodyLimit:    cfg.BodyLimit(),
		ErrorHandler: middleware.ErrorHandler,
		AppName:      "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger())
	app.Use(middleware.CORS(cfg.CORSOrigins))

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)
	app.Get("/health/startup", health.StartupProbe)

	app.Get("/docs", handlers.SwaggerUI)
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec(handlers.DefaultSpecPath))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group(apiPrefix)

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Invite Studio API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	mountRoutes(api, auth, studio)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying auth to %s, studio to %s", auth.BaseURL, studio.BaseURL)

	health.MarkStarted()
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
