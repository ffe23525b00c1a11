package utils

import "math"

// Vec2 is a 2D point or vector in world units. Y grows upward.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize returns the unit vector of v, or the zero vector when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec2) IsFinite() bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// DirectionFromString maps a client key name to a unit direction. Unknown keys map to zero.
func DirectionFromString(direction string) Vec2 {
	switch direction {
	case "ArrowLeft", "a", "A":
		return Vec2{X: -1}
	case "ArrowRight", "d", "D":
		return Vec2{X: 1}
	case "ArrowUp", "w", "W":
		return Vec2{Y: 1}
	case "ArrowDown", "s", "S":
		return Vec2{Y: -1}
	}
	return Vec2{}
}
