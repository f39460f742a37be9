package geometry

import (
	"errors"
	"fmt"

	"invite-studio/internal/studio/models"
)

// ============================================================
// Drag kinds
// ============================================================

type DragKind string

const (
	DragMove     DragKind = "move"
	DragResizeTL DragKind = "resize-tl"
	DragResizeTR DragKind = "resize-tr"
	DragResizeBL DragKind = "resize-bl"
	DragResizeBR DragKind = "resize-br"
)

var ErrUnknownDragKind = errors.New("unknown drag kind")

// ParseDragKind validates a kind received from the client.
func ParseDragKind(s string) (DragKind, error) {
	switch k := DragKind(s); k {
	case DragMove, DragResizeTL, DragResizeTR, DragResizeBL, DragResizeBR:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDragKind, s)
}

// Apply moves or resizes start by a displacement in percent and clamps the result.
func Apply(kind DragKind, start models.Rect, dx, dy float64) models.Rect {
	r := start

	switch kind {
	case DragMove:
		r.X += dx
		r.Y += dy
	case DragResizeBR:
		r.Width += dx
		r.Height += dy
	case DragResizeBL:
		r.X += dx
		r.Width -= dx
		r.Height += dy
	case DragResizeTR:
		r.Y += dy
		r.Width += dx
		r.Height -= dy
	case DragResizeTL:
		r.X += dx
		r.Y += dy
		r.Width -= dx
		r.Height -= dy
	}

	return Clamp(r)
}

// ============================================================
// Gesture state machine
// ============================================================

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the rendered size of the page container in device pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Target names the hotspot a gesture is attached to.
type Target struct {
	PageID    string
	HotspotID string
}

// Gesture is Idle until Begin and returns to Idle on End. The start rect is
// captured once so every frame is computed from the same origin.
type Gesture struct {
	active    bool
	kind      DragKind
	target    Target
	origin    Point
	startRect models.Rect
}

func (g *Gesture) Active() bool {
	return g.active
}

func (g *Gesture) Target() (Target, bool) {
	return g.target, g.active
}

// Begin starts a gesture. A gesture already in flight is replaced.
func (g *Gesture) Begin(kind DragKind, target Target, origin Point, start models.Rect) error {
	if _, err := ParseDragKind(string(kind)); err != nil {
		return err
	}

	*g = Gesture{
		active:    true,
		kind:      kind,
		target:    target,
		origin:    origin,
		startRect: start,
	}
	return nil
}

// Move converts the pointer displacement since Begin into percent of the
// container and returns the clamped rect. ok is false outside a gesture or
// when the container has no area.
func (g *Gesture) Move(pointer Point, container Size) (rect models.Rect, ok bool) {
	if !g.active || container.Width <= 0 || container.Height <= 0 {
		return models.Rect{}, false
	}

	dx := (pointer.X - g.origin.X) / container.Width * 100
	dy := (pointer.Y - g.origin.Y) / container.Height * 100
	return Apply(g.kind, g.startRect, dx, dy), true
}

// End tears the gesture down unconditionally.
func (g *Gesture) End() {
	*g = Gesture{}
}
