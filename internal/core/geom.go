// Package core provides fundamental types and utilities shared by the
// simulation and the terminal front end. It contains no external
// dependencies (especially no Bubble Tea) to keep game logic pure and testable.
package core

// Vec2 is a point in world units.
type Vec2 struct {
	X, Y float64
}

// Box is an axis-aligned bounding box in world units.
// Edges are half-open: a box covers [Min, Max) on both axes.
type Box struct {
	Min, Max Vec2
}

// NewBox creates a box from its top-left corner and dimensions.
func NewBox(x, y, w, h float64) Box {
	return Box{Min: Vec2{X: x, Y: y}, Max: Vec2{X: x + w, Y: y + h}}
}

// Width returns the horizontal extent of the box.
func (b Box) Width() float64 {
	return b.Max.X - b.Min.X
}

// Height returns the vertical extent of the box.
func (b Box) Height() float64 {
	return b.Max.Y - b.Min.Y
}

// Empty reports whether the box covers no area.
func (b Box) Empty() bool {
	return b.Max.X <= b.Min.X || b.Max.Y <= b.Min.Y
}

// Intersects returns true if this box overlaps with another.
// Uses standard AABB collision detection; touching edges do not overlap.
func (b Box) Intersects(other Box) bool {
	if b.Empty() || other.Empty() {
		return false
	}
	// No overlap if one box is completely to the left, right, above, or below
	if b.Min.X >= other.Max.X || other.Min.X >= b.Max.X {
		return false
	}
	if b.Min.Y >= other.Max.Y || other.Min.Y >= b.Max.Y {
		return false
	}
	return true
}

// ContainsBox returns true if other lies entirely inside b.
func (b Box) ContainsBox(other Box) bool {
	return other.Min.X >= b.Min.X && other.Max.X <= b.Max.X &&
		other.Min.Y >= b.Min.Y && other.Max.Y <= b.Max.Y
}

// Rect represents a rectangle of screen cells.
type Rect struct {
	X, Y int // Top-left corner position
	W, H int // Width and height
}

// NewRect creates a new rectangle with the given position and dimensions.
func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// Right returns the x-coordinate of the right edge.
func (r Rect) Right() int {
	return r.X + r.W
}

// Bottom returns the y-coordinate of the bottom edge.
func (r Rect) Bottom() int {
	return r.Y + r.H
}

// Clamp restricts a value to be within [min, max].
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// ClampF restricts a float64 value to be within [min, max].
func ClampF(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
