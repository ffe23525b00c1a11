// File: physics/bounds.go
package physics

import "github.com/lguibr/crypt/utils"

// Rect is an axis-aligned rectangle in world units. Y grows upward, so Top >= Bottom.
type Rect struct {
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
}

// BoxToRect returns the world rectangle of a box with the given center and half extents.
func BoxToRect(center, half utils.Vec2) Rect {
	return Rect{
		Left:   center.X - half.X,
		Right:  center.X + half.X,
		Top:    center.Y + half.Y,
		Bottom: center.Y - half.Y,
	}
}

// Overlaps reports whether r and o intersect. Touching edges count as overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.Left <= o.Right &&
		r.Right >= o.Left &&
		r.Top >= o.Bottom &&
		r.Bottom <= o.Top
}

// Valid rejects rectangles with NaN or infinite coordinates and inverted extents.
func (r Rect) Valid() bool {
	if !utils.IsFinite(r.Left) || !utils.IsFinite(r.Right) ||
		!utils.IsFinite(r.Top) || !utils.IsFinite(r.Bottom) {
		return false
	}
	return r.Left <= r.Right && r.Bottom <= r.Top
}

func (r Rect) Width() float64  { return r.Right - r.Left }
func (r Rect) Height() float64 { return r.Top - r.Bottom }

func (r Rect) Center() utils.Vec2 {
	return utils.Vec2{X: (r.Left + r.Right) / 2, Y: (r.Top + r.Bottom) / 2}
}
