package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"invite-studio/internal/studio/assets"
	"invite-studio/internal/studio/editor"
	"invite-studio/internal/studio/exporter"
	"invite-studio/internal/studio/geometry"
	"invite-studio/internal/studio/models"
	"invite-studio/internal/studio/preview"
	"invite-studio/internal/studio/storage"
)

const exportTimeout = 2 * time.Minute

// ============================================================
// Studio Handler
// ============================================================

type StudioHandler struct {
	storage   *storage.FileStorage
	workspace *Workspace
}

func NewStudioHandler(storage *storage.FileStorage, workspace *Workspace) *StudioHandler {
	return &StudioHandler{
		storage:   storage,
		workspace: workspace,
	}
}

type selectionPayload struct {
	PageID    string `json:"pageId"`
	HotspotID string `json:"hotspotId,omitempty"`
}

type projectResponse struct {
	Changed   bool             `json:"changed"`
	Dirty     bool             `json:"dirty"`
	Project   models.Project   `json:"project"`
	Selection selectionPayload `json:"selection"`
	Created   *models.Page     `json:"createdPage,omitempty"`
	Hotspot   *models.Hotspot  `json:"createdHotspot,omitempty"`
	Rect      *models.Rect     `json:"rect,omitempty"`
}

func snapshot(s *editor.Session, changed bool) projectResponse {
	page, hotspot := s.Selection()
	return projectResponse{
		Changed:   changed,
		Dirty:     s.Dirty(),
		Project:   s.Project(),
		Selection: selectionPayload{PageID: page, HotspotID: hotspot},
	}
}

// ============================================================
// Projects
// ============================================================

// ListProjects возвращает сохранённые и открытые проекты пользователя.
func (h *StudioHandler) ListProjects(c fiber.Ctx) error {
	user := identity(c).ID

	stored, err := h.storage.ListProjects(user)
	if err != nil {
		log.Printf("[STUDIO] list projects error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list projects"})
	}

	return c.JSON(fiber.Map{
		"projects": stored,
		"open":     h.workspace.OpenProjects(user),
	})
}

type openRequest struct {
	Name string `json:"name"`
}

// OpenProject loads a stored project into a session, or starts a new one
// from the starter template when nothing is stored under that name.
func (h *StudioHandler) OpenProject(c fiber.Ctx) error {
	user := identity(c).ID
	name := c.Params("project")
	if !storage.ValidProjectName(name) {
		return fiber.NewError(http.StatusBadRequest, "invalid project name")
	}

	var req openRequest
	if len(c.Body()) > 0 {
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid json")
		}
	}
	if req.Name == "" {
		req.Name = name
	}

	fresh := false
	ps, _, err := h.workspace.Open(user, name, func() (models.Project, error) {
		p, err := h.storage.LoadProject(user, name)
		if errors.Is(err, storage.ErrNotFound) {
			fresh = true
			return models.NewProject(req.Name), nil
		}
		return p, err
	})
	if err != nil {
		return storageError(err)
	}
	if fresh {
		log.Printf("[STUDIO] New project %s for user %s", name, user)
	}

	var resp projectResponse
	ps.With(func(s *editor.Session) error {
		resp = snapshot(s, fresh)
		return nil
	})
	return c.JSON(resp)
}

// GetProject возвращает текущий снимок проекта.
func (h *StudioHandler) GetProject(c fiber.Ctx) error {
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return false, nil
	})
}

// PutProject replaces the whole document.
func (h *StudioHandler) PutProject(c fiber.Ctx) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	p, err := models.ParseProject(c.Body())
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return h.edit(c, func(s *editor.Session) (bool, error) {
		s.Replace(p)
		return true, nil
	})
}

// SaveProject пишет проект на диск.
func (h *StudioHandler) SaveProject(c fiber.Ctx) error {
	user := identity(c).ID
	name := c.Params("project")

	return h.edit(c, func(s *editor.Session) (bool, error) {
		if err := h.storage.SaveProject(user, name, s.Project()); err != nil {
			log.Printf("[STUDIO] save project error: %v", err)
			return false, fiber.NewError(http.StatusInternalServerError, "failed to save project")
		}
		s.MarkSaved()
		log.Printf("[STUDIO] Saved project %s for user %s", name, user)
		return false, nil
	})
}

// CloseProject drops the session. Unsaved edits are discarded.
func (h *StudioHandler) CloseProject(c fiber.Ctx) error {
	closed := h.workspace.Close(identity(c).ID, c.Params("project"))
	return c.JSON(fiber.Map{"closed": closed})
}

// ============================================================
// Pages
// ============================================================

type addPageRequest struct {
	Name     string          `json:"name"`
	Template editor.Template `json:"template"`
}

func (h *StudioHandler) AddPage(c fiber.Ctx) error {
	var req addPageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	switch req.Template {
	case "":
		req.Template = editor.TemplateBlank
	case editor.TemplateBlank, editor.TemplateInternal:
	default:
		return fiber.NewError(http.StatusBadRequest, "unknown template")
	}
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(http.StatusBadRequest, "name required")
	}

	var page models.Page
	return h.editWith(c, func(s *editor.Session, resp *projectResponse) (bool, error) {
		page = s.AddPage(req.Name, req.Template)
		resp.Created = &page
		return true, nil
	})
}

func (h *StudioHandler) UpdatePage(c fiber.Ctx) error {
	var patch editor.PagePatch
	if err := decodeBody(c, &patch); err != nil {
		return err
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.UpdatePage(c.Params("page"), patch), nil
	})
}

func (h *StudioHandler) DeletePage(c fiber.Ctx) error {
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.DeletePage(c.Params("page")), nil
	})
}

func (h *StudioHandler) DuplicatePage(c fiber.Ctx) error {
	return h.editWith(c, func(s *editor.Session, resp *projectResponse) (bool, error) {
		page, ok := s.DuplicatePage(c.Params("page"))
		if ok {
			resp.Created = &page
		}
		return ok, nil
	})
}

type movePageRequest struct {
	Direction editor.Direction `json:"direction"`
}

func (h *StudioHandler) MovePage(c fiber.Ctx) error {
	var req movePageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	if req.Direction != editor.DirectionUp && req.Direction != editor.DirectionDown {
		return fiber.NewError(http.StatusBadRequest, "direction must be up or down")
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.ReorderPage(c.Params("page"), req.Direction), nil
	})
}

type startPageRequest struct {
	PageID string `json:"pageId"`
}

// SetStartPage picks the landing page of the export. An empty id resets it
// to the first page.
func (h *StudioHandler) SetStartPage(c fiber.Ctx) error {
	var req startPageRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.SetStartPage(req.PageID), nil
	})
}

type uploadRefRequest struct {
	UploadID string `json:"uploadId"`
}

// SetBackground points a page at an uploaded image or video.
func (h *StudioHandler) SetBackground(c fiber.Ctx) error {
	u, err := h.uploadFromBody(c)
	if err != nil {
		return err
	}
	if !u.IsImage() && !u.IsVideo() {
		return fiber.NewError(http.StatusBadRequest, "background must be an image or a video")
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.SetBackgroundUpload(c.Params("page"), u.Handle(), u.MIME), nil
	})
}

// ============================================================
// Hotspots
// ============================================================

type hotspotPatchRequest struct {
	Name              *string         `json:"name"`
	Rect              *models.Rect    `json:"rect"`
	Action            json.RawMessage `json:"action"`
	ShowAfterVideoEnd *bool           `json:"showAfterVideoEnd"`
}

func (r hotspotPatchRequest) patch() (editor.HotspotPatch, error) {
	p := editor.HotspotPatch{
		Name:              r.Name,
		Rect:              r.Rect,
		ShowAfterVideoEnd: r.ShowAfterVideoEnd,
	}
	if len(r.Action) > 0 && string(r.Action) != "null" {
		a, err := models.UnmarshalAction(r.Action)
		if err != nil {
			return p, err
		}
		p.Action = a
	}
	return p, nil
}

func decodeHotspotPatch(c fiber.Ctx, allowEmpty bool) (editor.HotspotPatch, error) {
	var req hotspotPatchRequest
	if len(c.Body()) == 0 && allowEmpty {
		return editor.HotspotPatch{}, nil
	}
	if err := decodeBody(c, &req); err != nil {
		return editor.HotspotPatch{}, err
	}
	patch, err := req.patch()
	if err != nil {
		return patch, fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return patch, nil
}

func (h *StudioHandler) AddHotspot(c fiber.Ctx) error {
	patch, err := decodeHotspotPatch(c, true)
	if err != nil {
		return err
	}
	return h.editWith(c, func(s *editor.Session, resp *projectResponse) (bool, error) {
		hs, ok := s.AddHotspot(c.Params("page"), patch)
		if ok {
			resp.Hotspot = &hs
		}
		return ok, nil
	})
}

func (h *StudioHandler) UpdateHotspot(c fiber.Ctx) error {
	patch, err := decodeHotspotPatch(c, false)
	if err != nil {
		return err
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.UpdateHotspot(c.Params("page"), c.Params("hotspot"), patch), nil
	})
}

func (h *StudioHandler) DeleteHotspot(c fiber.Ctx) error {
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.DeleteHotspot(c.Params("page"), c.Params("hotspot")), nil
	})
}

func (h *StudioHandler) DuplicateHotspot(c fiber.Ctx) error {
	return h.editWith(c, func(s *editor.Session, resp *projectResponse) (bool, error) {
		hs, ok := s.DuplicateHotspot(c.Params("page"), c.Params("hotspot"))
		if ok {
			resp.Hotspot = &hs
		}
		return ok, nil
	})
}

// ============================================================
// Settings
// ============================================================

func (h *StudioHandler) UpdateSettings(c fiber.Ctx) error {
	var settings models.GlobalSettings
	if err := decodeBody(c, &settings); err != nil {
		return err
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		s.UpdateSettings(settings)
		return true, nil
	})
}

// SetMusic points the background music at an uploaded audio file.
func (h *StudioHandler) SetMusic(c fiber.Ctx) error {
	u, err := h.uploadFromBody(c)
	if err != nil {
		return err
	}
	if !u.IsAudio() {
		return fiber.NewError(http.StatusBadRequest, "music must be an audio file")
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		settings := s.Project().Settings
		settings.BackgroundMusic.Source = u.Handle()
		s.UpdateSettings(settings)
		return true, nil
	})
}

// ============================================================
// Uploads
// ============================================================

// Upload сохраняет медиафайл пользователя.
func (h *StudioHandler) Upload(c fiber.Ctx) error {
	user := identity(c).ID

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "file required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	u, err := h.storage.SaveUpload(user, fileHeader.Filename, data)
	if errors.Is(err, storage.ErrUnsupported) {
		return c.Status(http.StatusUnsupportedMediaType).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		log.Printf("[STUDIO] save upload error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save file"})
	}

	log.Printf("[STUDIO] Upload %s (%s, %d bytes) for user %s", u.ID, u.MIME, u.Size, user)
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"upload": u,
		"handle": u.Handle(),
	})
}

func (h *StudioHandler) uploadFromBody(c fiber.Ctx) (storage.Upload, error) {
	var req uploadRefRequest
	if err := decodeBody(c, &req); err != nil {
		return storage.Upload{}, err
	}
	u, err := h.storage.GetUpload(identity(c).ID, req.UploadID)
	if err != nil {
		return storage.Upload{}, storageError(err)
	}
	return u, nil
}

// ============================================================
// Selection & drag
// ============================================================

type selectRequest struct {
	PageID    string `json:"pageId"`
	HotspotID string `json:"hotspotId"`
}

func (h *StudioHandler) Select(c fiber.Ctx) error {
	var req selectRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	return h.edit(c, func(s *editor.Session) (bool, error) {
		return s.Select(req.PageID, req.HotspotID), nil
	})
}

type dragBeginRequest struct {
	Kind      string         `json:"kind"`
	PageID    string         `json:"pageId"`
	HotspotID string         `json:"hotspotId"`
	Pointer   geometry.Point `json:"pointer"`
}

type dragMoveRequest struct {
	Pointer   geometry.Point `json:"pointer"`
	Container geometry.Size  `json:"container"`
}

func (h *StudioHandler) DragBegin(c fiber.Ctx) error {
	var req dragBeginRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	kind, err := geometry.ParseDragKind(req.Kind)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	return h.edit(c, func(s *editor.Session) (bool, error) {
		if err := s.BeginDrag(kind, req.PageID, req.HotspotID, req.Pointer); err != nil {
			return false, fiber.NewError(http.StatusNotFound, err.Error())
		}
		return false, nil
	})
}

// DragMove commits one frame of the active gesture.
func (h *StudioHandler) DragMove(c fiber.Ctx) error {
	var req dragMoveRequest
	if err := decodeBody(c, &req); err != nil {
		return err
	}
	return h.editWith(c, func(s *editor.Session, resp *projectResponse) (bool, error) {
		rect, ok := s.Drag(req.Pointer, req.Container)
		if ok {
			resp.Rect = &rect
		}
		return ok, nil
	})
}

// DragEnd releases the gesture; it never fails.
func (h *StudioHandler) DragEnd(c fiber.Ctx) error {
	return h.edit(c, func(s *editor.Session) (bool, error) {
		s.EndDrag()
		return false, nil
	})
}

// ============================================================
// Export & preview
// ============================================================

// Export compiles the project into a zip download. On any failure nothing
// but the JSON error is sent.
func (h *StudioHandler) Export(c fiber.Ctx) error {
	user := identity(c).ID
	name := c.Params("project")

	ps, err := h.session(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
	defer cancel()

	var bundle *exporter.Bundle
	err = ps.With(func(s *editor.Session) error {
		var err error
		bundle, err = exporter.Export(ctx, s.Project(), h.storage.Blobs(user))
		return err
	})
	if err != nil {
		log.Printf("[EXPORT] Export of %s for user %s failed: %v", name, user, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": exportMessage(err)})
	}

	log.Printf("[EXPORT] Exported %s for user %s (%d assets, %d bytes)", name, user, bundle.Assets, len(bundle.Archive))

	c.Attachment(name + ".zip")
	c.Set("Content-Type", "application/zip")
	c.Set("X-Export-Assets", strconv.Itoa(bundle.Assets))
	c.Set("X-Export-Unreachable", strings.Join(bundle.Report.Unreachable, ","))
	c.Set("X-Export-Invalid-Links", strconv.Itoa(len(bundle.Report.InvalidLinks)))
	return c.Send(bundle.Archive)
}

func exportMessage(err error) string {
	switch {
	case errors.Is(err, assets.ErrAssetRead):
		return fmt.Sprintf("export failed: could not read a media file (%v)", err)
	case errors.Is(err, exporter.ErrAssetsFolder):
		return "export failed: could not create the assets folder"
	case errors.Is(err, exporter.ErrArchive):
		return "export failed: could not write the archive"
	default:
		return "export failed: " + err.Error()
	}
}

// Preview renders a PNG thumbnail of one page.
func (h *StudioHandler) Preview(c fiber.Ctx) error {
	user := identity(c).ID
	width, _ := strconv.Atoi(c.Query("width"))

	ps, err := h.session(c)
	if err != nil {
		return err
	}

	var page models.Page
	var selected string
	found := false
	ps.With(func(s *editor.Session) error {
		p := s.Project()
		if i := p.PageIndex(c.Params("page")); i >= 0 {
			page, found = p.Pages[i].Clone(), true
		}
		_, selected = s.Selection()
		return nil
	})
	if !found {
		return fiber.NewError(http.StatusNotFound, "page not found")
	}

	var buf bytes.Buffer
	if err := preview.Render(context.Background(), &buf, page, h.storage.Blobs(user), preview.Options{Width: width, Selected: selected}); err != nil {
		log.Printf("[STUDIO] preview error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to render preview"})
	}

	c.Set("Content-Type", "image/png")
	return c.Send(buf.Bytes())
}

// ============================================================
// Helpers
// ============================================================

func (h *StudioHandler) session(c fiber.Ctx) (*ProjectSession, error) {
	user := identity(c).ID
	name := c.Params("project")
	if !storage.ValidProjectName(name) {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid project name")
	}

	ps, _, err := h.workspace.Open(user, name, func() (models.Project, error) {
		return h.storage.LoadProject(user, name)
	})
	if err != nil {
		return nil, storageError(err)
	}
	return ps, nil
}

// edit runs fn against the session under its lock and replies with the
// resulting snapshot. Rejected operations answer 200 with changed=false.
func (h *StudioHandler) edit(c fiber.Ctx, fn func(*editor.Session) (bool, error)) error {
	return h.editWith(c, func(s *editor.Session, _ *projectResponse) (bool, error) {
		return fn(s)
	})
}

func (h *StudioHandler) editWith(c fiber.Ctx, fn func(*editor.Session, *projectResponse) (bool, error)) error {
	ps, err := h.session(c)
	if err != nil {
		return err
	}

	var resp projectResponse
	err = ps.With(func(s *editor.Session) error {
		var extra projectResponse
		changed, err := fn(s, &extra)
		if err != nil {
			return err
		}
		resp = snapshot(s, changed)
		resp.Created, resp.Hotspot, resp.Rect = extra.Created, extra.Hotspot, extra.Rect
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

func decodeBody(c fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fiber.NewError(http.StatusBadRequest, "empty body")
	}
	if err := json.Unmarshal(c.Body(), v); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid json")
	}
	return nil
}

func storageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrInvalidName):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		log.Printf("[STUDIO] storage error: %v", err)
		return fiber.NewError(http.StatusInternalServerError, "storage error")
	}
}
