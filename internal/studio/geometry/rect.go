package geometry

import (
	"invite-studio/internal/studio/models"
)

// ============================================================
// Rect invariant
// ============================================================

const (
	MinSize = 5.0
	MaxExt  = 100.0
)

// Clamp brings r back inside the page: position is clamped against the
// current size first, then size against the now-fixed position. When the
// size floor lifts an edge past the page, the position is re-seated so the
// far edge stays at 100.
func Clamp(r models.Rect) models.Rect {
	r.X = clamp(r.X, 0, MaxExt-r.Width)
	r.Y = clamp(r.Y, 0, MaxExt-r.Height)
	r.Width = clamp(r.Width, MinSize, MaxExt-r.X)
	r.Height = clamp(r.Height, MinSize, MaxExt-r.Y)

	if r.X+r.Width > MaxExt {
		r.X = MaxExt - r.Width
	}
	if r.Y+r.Height > MaxExt {
		r.Y = MaxExt - r.Height
	}
	return r
}

// Valid reports whether r satisfies the invariant.
func Valid(r models.Rect) bool {
	const eps = 1e-9
	return r.X >= -eps && r.Y >= -eps &&
		r.Width >= MinSize-eps && r.Height >= MinSize-eps &&
		r.X+r.Width <= MaxExt+eps && r.Y+r.Height <= MaxExt+eps
}

// clamp applies the lower bound last so that an inverted range resolves to min.
func clamp(val, min, max float64) float64 {
	if val > max {
		val = max
	}
	if val < min {
		val = min
	}
	return val
}
