package main

import (
	"invite-studio/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
)

// mountRoutes wires the public API onto the upstream services. The auth
// service's /internal routes are deliberately not reachable from outside.
func mountRoutes(api fiber.Router, auth, studio *proxy.Upstream) {
	toAuth := auth.Strip(apiPrefix)
	api.Post("/login", toAuth)
	api.Post("/logout", toAuth)
	api.Post("/register", toAuth)
	api.Post("/password", toAuth)
	api.Get("/me", toAuth)
	api.Get("/admin/users", toAuth)
	api.Post("/admin/users/:email/:action", toAuth)
	api.Delete("/admin/users/:email", toAuth)

	toStudio := studio.Strip(apiPrefix)
	api.Get("/projects", toStudio)
	api.All("/projects/*", toStudio)
}
