package editor

import (
	"errors"
	"fmt"

	"invite-studio/internal/studio/geometry"
	"invite-studio/internal/studio/models"
)

var ErrHotspotNotFound = errors.New("hotspot not found")

// Session is the editing state of one open project: the current snapshot,
// the selection and the drag gesture. It is not safe for concurrent use;
// callers serialize access.
type Session struct {
	ids     IDSource
	project models.Project
	page    string
	hotspot string
	gesture geometry.Gesture
	dirty   bool
}

// NewSession opens p for editing. The document is normalized first, which
// marks the session dirty when that changed anything.
func NewSession(p models.Project, ids IDSource) *Session {
	n, changed := Normalize(p)
	s := &Session{ids: ids, project: n, dirty: changed}
	s.resetSelection()
	return s
}

// Project returns the current snapshot. Callers must treat it as read-only.
func (s *Session) Project() models.Project {
	return s.project
}

// Dirty reports whether the snapshot changed since the last MarkSaved.
func (s *Session) Dirty() bool {
	return s.dirty
}

func (s *Session) MarkSaved() {
	s.dirty = false
}

// Replace swaps in a whole new document, e.g. one uploaded by the client.
func (s *Session) Replace(p models.Project) {
	s.gesture.End()
	n, _ := Normalize(p)
	s.commit(n)
	if !s.project.HasPage(s.page) {
		s.resetSelection()
		return
	}
	if s.project.Pages[s.project.PageIndex(s.page)].HotspotIndex(s.hotspot) < 0 {
		s.hotspot = ""
	}
}

// ============================================================
// Selection
// ============================================================

func (s *Session) Selection() (pageID, hotspotID string) {
	return s.page, s.hotspot
}

// Select moves the selection. An empty hotspot id selects only the page.
func (s *Session) Select(pageID, hotspotID string) bool {
	pi := s.project.PageIndex(pageID)
	if pi < 0 {
		return false
	}
	if hotspotID != "" && s.project.Pages[pi].HotspotIndex(hotspotID) < 0 {
		return false
	}
	s.page = pageID
	s.hotspot = hotspotID
	return true
}

func (s *Session) resetSelection() {
	s.page, s.hotspot = "", ""
	if len(s.project.Pages) > 0 {
		s.page = s.project.Pages[0].ID
	}
}

// ============================================================
// Structural edits
// ============================================================

func (s *Session) AddPage(name string, tpl Template) models.Page {
	p, page := AddPage(s.project, s.ids, name, tpl)
	s.commit(p)
	return page
}

func (s *Session) DeletePage(id string) bool {
	p, ok := DeletePage(s.project, id)
	if !ok {
		return false
	}
	s.commit(p)
	if s.page == id {
		s.resetSelection()
	}
	if t, active := s.gesture.Target(); active && t.PageID == id {
		s.gesture.End()
	}
	return true
}

func (s *Session) DuplicatePage(id string) (models.Page, bool) {
	p, page, ok := DuplicatePage(s.project, s.ids, id)
	if ok {
		s.commit(p)
	}
	return page, ok
}

func (s *Session) ReorderPage(id string, dir Direction) bool {
	return s.apply(ReorderPage(s.project, id, dir))
}

func (s *Session) UpdatePage(id string, patch PagePatch) bool {
	return s.apply(UpdatePage(s.project, id, patch))
}

func (s *Session) SetBackgroundUpload(id string, upload models.PendingUpload, mime string) bool {
	return s.apply(SetBackgroundUpload(s.project, id, upload, mime))
}

// AddHotspot appends a hotspot and selects it.
func (s *Session) AddHotspot(pageID string, patch HotspotPatch) (models.Hotspot, bool) {
	p, h, ok := AddHotspot(s.project, s.ids, pageID, patch)
	if !ok {
		return h, false
	}
	s.commit(p)
	s.page, s.hotspot = pageID, h.ID
	return h, true
}

func (s *Session) UpdateHotspot(pageID, hotspotID string, patch HotspotPatch) bool {
	return s.apply(UpdateHotspot(s.project, pageID, hotspotID, patch))
}

// DeleteHotspot removes a hotspot and clears the hotspot selection.
func (s *Session) DeleteHotspot(pageID, hotspotID string) bool {
	if !s.apply(DeleteHotspot(s.project, pageID, hotspotID)) {
		return false
	}
	s.hotspot = ""
	if t, active := s.gesture.Target(); active && t.HotspotID == hotspotID {
		s.gesture.End()
	}
	return true
}

func (s *Session) DuplicateHotspot(pageID, hotspotID string) (models.Hotspot, bool) {
	p, h, ok := DuplicateHotspot(s.project, s.ids, pageID, hotspotID)
	if ok {
		s.commit(p)
	}
	return h, ok
}

func (s *Session) SetStartPage(id string) bool {
	return s.apply(SetStartPage(s.project, id))
}

func (s *Session) UpdateSettings(settings models.GlobalSettings) {
	s.commit(UpdateSettings(s.project, settings))
}

// ============================================================
// Drag gestures
// ============================================================

// BeginDrag selects the hotspot and captures its rect as the gesture origin.
func (s *Session) BeginDrag(kind geometry.DragKind, pageID, hotspotID string, origin geometry.Point) error {
	pi, hi := locate(&s.project, pageID, hotspotID)
	if hi < 0 {
		return fmt.Errorf("%w: %s/%s", ErrHotspotNotFound, pageID, hotspotID)
	}

	start := s.project.Pages[pi].Hotspots[hi].Rect
	target := geometry.Target{PageID: pageID, HotspotID: hotspotID}
	if err := s.gesture.Begin(kind, target, origin, start); err != nil {
		return err
	}
	s.page, s.hotspot = pageID, hotspotID
	return nil
}

// Drag commits one frame of the active gesture. It reports false when no
// gesture is active or the frame could not be applied.
func (s *Session) Drag(pointer geometry.Point, container geometry.Size) (models.Rect, bool) {
	rect, ok := s.gesture.Move(pointer, container)
	if !ok {
		return models.Rect{}, false
	}
	t, _ := s.gesture.Target()
	if !s.apply(SetHotspotRect(s.project, t.PageID, t.HotspotID, rect)) {
		s.gesture.End()
		return models.Rect{}, false
	}
	return rect, true
}

func (s *Session) EndDrag() {
	s.gesture.End()
}

func (s *Session) Dragging() bool {
	return s.gesture.Active()
}

func (s *Session) apply(p models.Project, changed bool) bool {
	if changed {
		s.commit(p)
	}
	return changed
}

func (s *Session) commit(p models.Project) {
	s.project = p
	s.dirty = true
}
