package handlers

import "github.com/gofiber/fiber/v3"

// Mount registers the studio routes on r. Every route requires an approved user.
func (h *StudioHandler) Mount(r fiber.Router, sessions SessionResolver) {
	r.Use(RequireUser(sessions))

	r.Get("/projects", h.ListProjects)
	r.Post("/projects/:project/open", h.OpenProject)
	r.Post("/projects/:project/close", h.CloseProject)
	r.Get("/projects/:project", h.GetProject)
	r.Put("/projects/:project", h.PutProject)
	r.Post("/projects/:project/save", h.SaveProject)
	r.Put("/projects/:project/start", h.SetStartPage)

	r.Post("/projects/:project/pages", h.AddPage)
	r.Patch("/projects/:project/pages/:page", h.UpdatePage)
	r.Delete("/projects/:project/pages/:page", h.DeletePage)
	r.Post("/projects/:project/pages/:page/duplicate", h.DuplicatePage)
	r.Post("/projects/:project/pages/:page/move", h.MovePage)
	r.Put("/projects/:project/pages/:page/background", h.SetBackground)
	r.Get("/projects/:project/pages/:page/preview.png", h.Preview)

	r.Post("/projects/:project/pages/:page/hotspots", h.AddHotspot)
	r.Patch("/projects/:project/pages/:page/hotspots/:hotspot", h.UpdateHotspot)
	r.Delete("/projects/:project/pages/:page/hotspots/:hotspot", h.DeleteHotspot)
	r.Post("/projects/:project/pages/:page/hotspots/:hotspot/duplicate", h.DuplicateHotspot)

	r.Put("/projects/:project/settings", h.UpdateSettings)
	r.Put("/projects/:project/settings/music", h.SetMusic)
	r.Post("/projects/:project/uploads", h.Upload)

	r.Post("/projects/:project/select", h.Select)
	r.Post("/projects/:project/drag/begin", h.DragBegin)
	r.Post("/projects/:project/drag/move", h.DragMove)
	r.Post("/projects/:project/drag/end", h.DragEnd)

	r.Get("/projects/:project/export", h.Export)
}
