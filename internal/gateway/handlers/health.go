package handlers

import (
	"log"
	"sync/atomic"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Pinger is an upstream the gateway depends on.
type Pinger interface {
	Ping() error
}

type Health struct {
	upstreams map[string]Pinger
	started   atomic.Bool
}

func NewHealth(upstreams map[string]Pinger) *Health {
	return &Health{upstreams: upstreams}
}

// MarkStarted is called once the listener is about to accept connections.
func (h *Health) MarkStarted() {
	h.started.Store(true)
}

// LivenessProbe проверяет, что приложение работает
func (h *Health) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe проверяет, что auth и studio отвечают.
func (h *Health) ReadinessProbe(c fiber.Ctx) error {
	checks := fiber.Map{}
	ready := true
	for name, up := range h.upstreams {
		if err := up.Ping(); err != nil {
			log.Printf("[HEALTH] %s not ready: %v", name, err)
			checks[name] = "down"
			ready = false
			continue
		}
		checks[name] = "up"
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "not ready",
			"upstreams": checks,
		})
	}
	return c.JSON(fiber.Map{
		"status":    "ready",
		"upstreams": checks,
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func (h *Health) StartupProbe(c fiber.Ctx) error {
	if !h.started.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "starting"})
	}
	return c.JSON(fiber.Map{
		"status": "started",
	})
}
