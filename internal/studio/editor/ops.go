package editor

import (
	"strings"

	"invite-studio/internal/studio/geometry"
	"invite-studio/internal/studio/models"
)

// Every operation in this file takes a snapshot by value and returns a new
// one. The input is never modified. Operations that cannot apply return the
// input unchanged with changed=false.

type Template string

const (
	TemplateBlank    Template = "blank"
	TemplateInternal Template = "internal"
)

type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

const (
	copySuffix         = " (copy)"
	defaultHotspotName = "new button"
	backHotspotName    = "Back"
	duplicateOffsetY   = 5.0
)

// ============================================================
// Predicates
// ============================================================

// IsProtected reports whether pages of type t can never be deleted.
func IsProtected(t models.PageType) bool {
	switch t {
	case models.PageCover, models.PageHub, models.PageVideo:
		return true
	}
	return false
}

// CanDeletePage reports whether DeletePage would remove the page.
func CanDeletePage(p models.Project, id string) bool {
	idx := p.PageIndex(id)
	if idx < 0 || len(p.Pages) <= 1 {
		return false
	}
	return !IsProtected(p.Pages[idx].Type)
}

// ============================================================
// Pages
// ============================================================

// AddPage appends a new internal page. The internal template seeds a back
// button that navigates to the hub.
func AddPage(p models.Project, ids IDSource, name string, tpl Template) (models.Project, models.Page) {
	page := models.Page{
		ID:   ids.PageID(),
		Name: name,
		Type: models.PageInternal,
		Background: models.Background{
			Kind:   models.BackgroundImage,
			Source: models.Resolved{URL: ""},
		},
		Hotspots: []models.Hotspot{},
	}

	if tpl == TemplateInternal {
		hub, ok := p.FirstPageOfType(models.PageHub)
		page.Hotspots = append(page.Hotspots, models.Hotspot{
			ID:     ids.HotspotID(),
			Name:   backHotspotName,
			Rect:   models.Rect{X: 5, Y: 5, Width: 20, Height: 8},
			Action: models.NavigateAction{TargetPageID: hub, Invalid: !ok},
		})
	}

	out := p.Clone()
	out.Pages = append(out.Pages, page)
	return out, page.Clone()
}

// DeletePage removes an unprotected page and flags every navigate action
// that pointed at it. Targets are kept so the user can see what broke.
func DeletePage(p models.Project, id string) (models.Project, bool) {
	if !CanDeletePage(p, id) {
		return p, false
	}

	out := p.Clone()
	idx := out.PageIndex(id)
	out.Pages = append(out.Pages[:idx], out.Pages[idx+1:]...)
	if out.StartPageID == id {
		out.StartPageID = ""
	}

	for i := range out.Pages {
		for j := range out.Pages[i].Hotspots {
			h := &out.Pages[i].Hotspots[j]
			if nav, ok := h.Action.(models.NavigateAction); ok && nav.TargetPageID == id {
				nav.Invalid = true
				h.Action = nav
			}
		}
	}
	return out, true
}

// DuplicatePage inserts a deep copy right after the original. The copy and
// each of its hotspots get fresh ids.
func DuplicatePage(p models.Project, ids IDSource, id string) (models.Project, models.Page, bool) {
	idx := p.PageIndex(id)
	if idx < 0 {
		return p, models.Page{}, false
	}

	page := p.Pages[idx].Clone()
	page.ID = ids.PageID()
	page.Name += copySuffix
	for i := range page.Hotspots {
		page.Hotspots[i].ID = ids.HotspotID()
	}

	out := p.Clone()
	out.Pages = append(out.Pages[:idx+1], append([]models.Page{page}, out.Pages[idx+1:]...)...)
	return out, page.Clone(), true
}

// ReorderPage swaps a page with its neighbour.
func ReorderPage(p models.Project, id string, dir Direction) (models.Project, bool) {
	idx := p.PageIndex(id)
	if idx < 0 {
		return p, false
	}

	var next int
	switch dir {
	case DirectionUp:
		next = idx - 1
	case DirectionDown:
		next = idx + 1
	default:
		return p, false
	}
	if next < 0 || next >= len(p.Pages) {
		return p, false
	}

	out := p.Clone()
	out.Pages[idx], out.Pages[next] = out.Pages[next], out.Pages[idx]
	return out, true
}

type PagePatch struct {
	Name       *string            `json:"name,omitempty"`
	Background *models.Background `json:"background,omitempty"`
}

// UpdatePage merges the non-nil patch fields into the page.
func UpdatePage(p models.Project, id string, patch PagePatch) (models.Project, bool) {
	idx := p.PageIndex(id)
	if idx < 0 {
		return p, false
	}

	out := p.Clone()
	page := &out.Pages[idx]
	if patch.Name != nil {
		page.Name = *patch.Name
	}
	if patch.Background != nil {
		page.Background = patch.Background.Clone()
		if page.Background.Source == nil {
			page.Background.Source = models.Resolved{}
		}
	}
	return out, true
}

// SetBackgroundUpload points a page background at an uploaded binary. Video
// uploads switch the page to a video background, keeping existing video
// settings; anything else becomes an image.
func SetBackgroundUpload(p models.Project, id string, upload models.PendingUpload, mime string) (models.Project, bool) {
	idx := p.PageIndex(id)
	if idx < 0 {
		return p, false
	}

	out := p.Clone()
	bg := &out.Pages[idx].Background
	bg.Source = upload

	if isVideoMIME(mime) {
		bg.Kind = models.BackgroundVideo
		if bg.VideoSettings == nil {
			vs := models.DefaultVideoSettings()
			bg.VideoSettings = &vs
		}
	} else {
		bg.Kind = models.BackgroundImage
	}
	return out, true
}

// ============================================================
// Hotspots
// ============================================================

// HotspotPatch carries the fields of a partial hotspot update. Nil fields
// are left alone.
type HotspotPatch struct {
	Name              *string
	Rect              *models.Rect
	Action            models.Action
	ShowAfterVideoEnd *bool
}

// AddHotspot appends a hotspot built from the defaults overlaid with patch.
func AddHotspot(p models.Project, ids IDSource, pageID string, patch HotspotPatch) (models.Project, models.Hotspot, bool) {
	idx := p.PageIndex(pageID)
	if idx < 0 {
		return p, models.Hotspot{}, false
	}

	h := models.Hotspot{
		ID:     ids.HotspotID(),
		Name:   defaultHotspotName,
		Rect:   models.Rect{X: 40, Y: 40, Width: 20, Height: 10},
		Action: models.ExternalLinkAction{URL: "", NewTab: true},
	}
	if patch.Action != nil {
		h.Action = patch.Action
	}
	applyHotspotPatch(&p, &h, HotspotPatch{
		Name:              patch.Name,
		Rect:              patch.Rect,
		ShowAfterVideoEnd: patch.ShowAfterVideoEnd,
	})
	h.Action = checkNavigate(&p, h.Action)

	out := p.Clone()
	out.Pages[idx].Hotspots = append(out.Pages[idx].Hotspots, h)
	return out, h, true
}

// UpdateHotspot merges patch into the hotspot. Rects are clamped. A
// settings-driven action (rsvp, map) keeps its kind.
func UpdateHotspot(p models.Project, pageID, hotspotID string, patch HotspotPatch) (models.Project, bool) {
	pi, hi := locate(&p, pageID, hotspotID)
	if hi < 0 {
		return p, false
	}

	out := p.Clone()
	applyHotspotPatch(&out, &out.Pages[pi].Hotspots[hi], patch)
	return out, true
}

// DeleteHotspot removes one hotspot from a page.
func DeleteHotspot(p models.Project, pageID, hotspotID string) (models.Project, bool) {
	pi, hi := locate(&p, pageID, hotspotID)
	if hi < 0 {
		return p, false
	}

	out := p.Clone()
	hs := out.Pages[pi].Hotspots
	out.Pages[pi].Hotspots = append(hs[:hi], hs[hi+1:]...)
	return out, true
}

// DuplicateHotspot appends a copy shifted down by five percent.
func DuplicateHotspot(p models.Project, ids IDSource, pageID, hotspotID string) (models.Project, models.Hotspot, bool) {
	pi, hi := locate(&p, pageID, hotspotID)
	if hi < 0 {
		return p, models.Hotspot{}, false
	}

	h := p.Pages[pi].Hotspots[hi]
	h.ID = ids.HotspotID()
	h.Rect = offsetCopy(h.Rect)

	out := p.Clone()
	out.Pages[pi].Hotspots = append(out.Pages[pi].Hotspots, h)
	return out, h, true
}

// offsetCopy moves a duplicate down by duplicateOffsetY, or up when the
// original already sits on the bottom edge.
func offsetCopy(r models.Rect) models.Rect {
	down := r
	down.Y += duplicateOffsetY
	down = geometry.Clamp(down)
	if down.Y != r.Y {
		return down
	}
	up := r
	up.Y -= duplicateOffsetY
	return geometry.Clamp(up)
}

// SetHotspotRect commits a rect produced by a drag frame.
func SetHotspotRect(p models.Project, pageID, hotspotID string, r models.Rect) (models.Project, bool) {
	return UpdateHotspot(p, pageID, hotspotID, HotspotPatch{Rect: &r})
}

// ============================================================
// Settings
// ============================================================

// UpdateSettings replaces the settings wholesale. Volumes are clamped into
// [0,1] and an unknown confirmation mode falls back to whatsapp.
func UpdateSettings(p models.Project, s models.GlobalSettings) models.Project {
	out := p.Clone()

	if s.ConfirmationMode != models.ConfirmForm {
		s.ConfirmationMode = models.ConfirmWhatsApp
	}
	if s.BackgroundMusic.Source == nil {
		s.BackgroundMusic.Source = models.Resolved{}
	}
	s.BackgroundMusic.Volume = unit(s.BackgroundMusic.Volume)
	s.BackgroundMusic.DuckVolume = unit(s.BackgroundMusic.DuckVolume)

	out.Settings = s
	return out
}

// ============================================================
// Helpers
// ============================================================

func locate(p *models.Project, pageID, hotspotID string) (int, int) {
	pi := p.PageIndex(pageID)
	if pi < 0 {
		return -1, -1
	}
	return pi, p.Pages[pi].HotspotIndex(hotspotID)
}

func applyHotspotPatch(p *models.Project, h *models.Hotspot, patch HotspotPatch) {
	if patch.Name != nil {
		h.Name = *patch.Name
	}
	if patch.Rect != nil {
		h.Rect = geometry.Clamp(*patch.Rect)
	}
	if patch.ShowAfterVideoEnd != nil {
		h.ShowAfterVideoEnd = *patch.ShowAfterVideoEnd
	}
	if patch.Action != nil {
		if h.Action != nil && models.SettingsDriven(h.Action) && patch.Action.Type() != h.Action.Type() {
			return
		}
		h.Action = checkNavigate(p, patch.Action)
	}
}

// checkNavigate sets the invalid flag from whether the target exists.
func checkNavigate(p *models.Project, a models.Action) models.Action {
	nav, ok := a.(models.NavigateAction)
	if !ok {
		return a
	}
	nav.Invalid = !p.HasPage(nav.TargetPageID)
	return nav
}

func unit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func isVideoMIME(mime string) bool {
	return strings.HasPrefix(mime, "video/")
}

// ============================================================
// Document-level
// ============================================================

// SetStartPage picks the landing page of the exported site. An empty id
// falls back to the first page; an unknown id is a no-op.
func SetStartPage(p models.Project, id string) (models.Project, bool) {
	if id != "" && !p.HasPage(id) {
		return p, false
	}
	if p.StartPageID == id {
		return p, false
	}
	out := p.Clone()
	out.StartPageID = id
	return out, true
}

// Normalize brings a document from outside the editor (a load or a whole
// replace) in line with the rules every edit keeps: rects are clamped and a
// start page that no longer exists is dropped. changed reports whether
// anything had to be fixed.
func Normalize(p models.Project) (out models.Project, changed bool) {
	out = p.Clone()
	for i := range out.Pages {
		for j := range out.Pages[i].Hotspots {
			h := &out.Pages[i].Hotspots[j]
			if r := geometry.Clamp(h.Rect); r != h.Rect {
				h.Rect = r
				changed = true
			}
		}
	}
	if out.StartPageID != "" && !out.HasPage(out.StartPageID) {
		out.StartPageID = ""
		changed = true
	}
	return out, changed
}
