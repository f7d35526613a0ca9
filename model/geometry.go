package model

import "math"

// Point represents a 2D point in page coordinates.
type Point struct {
	X, Y float64
}

// BBox represents an axis-aligned bounding box in top-left page coordinates:
// Y grows downward, so Y0 is the top edge and Y1 the bottom edge.
type BBox struct {
	X0 float64 // Left
	Y0 float64 // Top
	X1 float64 // Right
	Y1 float64 // Bottom
}

// NewBBox creates a bounding box from edge coordinates.
func NewBBox(x0, y0, x1, y1 float64) BBox {
	return BBox{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// Width returns the horizontal extent of the box.
func (b BBox) Width() float64 {
	return b.X1 - b.X0
}

// Height returns the vertical extent of the box.
func (b BBox) Height() float64 {
	return b.Y1 - b.Y0
}

// Area returns the area of the bounding box.
func (b BBox) Area() float64 {
	if !b.IsValid() {
		return 0
	}
	return b.Width() * b.Height()
}

// Perimeter returns the perimeter of the bounding box.
func (b BBox) Perimeter() float64 {
	if !b.IsValid() {
		return 0
	}
	return 2 * (b.Width() + b.Height())
}

// AspectRatio returns max(width, height) / min(width, height).
// A degenerate box returns 0 rather than dividing by zero.
func (b BBox) AspectRatio() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	if w > h {
		return w / h
	}
	return h / w
}

// Center returns the center point of the box.
func (b BBox) Center() Point {
	return Point{
		X: (b.X0 + b.X1) / 2,
		Y: (b.Y0 + b.Y1) / 2,
	}
}

// Intersects checks if two bounding boxes intersect.
func (b BBox) Intersects(other BBox) bool {
	return !(b.X1 < other.X0 ||
		b.X0 > other.X1 ||
		b.Y1 < other.Y0 ||
		b.Y0 > other.Y1)
}

// Intersection returns the intersection of two bounding boxes, or a zero
// box if they do not intersect.
func (b BBox) Intersection(other BBox) BBox {
	if !b.Intersects(other) {
		return BBox{}
	}

	return BBox{
		X0: math.Max(b.X0, other.X0),
		Y0: math.Max(b.Y0, other.Y0),
		X1: math.Min(b.X1, other.X1),
		Y1: math.Min(b.Y1, other.Y1),
	}
}

// Union returns the minimal enclosing box of two bounding boxes.
func (b BBox) Union(other BBox) BBox {
	return BBox{
		X0: math.Min(b.X0, other.X0),
		Y0: math.Min(b.Y0, other.Y0),
		X1: math.Max(b.X1, other.X1),
		Y1: math.Max(b.Y1, other.Y1),
	}
}

// Contains checks if the box fully contains another box.
func (b BBox) Contains(other BBox) bool {
	return other.X0 >= b.X0 && other.X1 <= b.X1 &&
		other.Y0 >= b.Y0 && other.Y1 <= b.Y1
}

// ContainsPoint checks if a point is inside the bounding box.
func (b BBox) ContainsPoint(p Point) bool {
	return p.X >= b.X0 && p.X <= b.X1 &&
		p.Y >= b.Y0 && p.Y <= b.Y1
}

// OverlapFraction calculates the overlap fraction with another box:
// intersection area divided by the smaller of the two areas.
// Returns a value between 0 and 1; degenerate boxes yield 0.
func (b BBox) OverlapFraction(other BBox) float64 {
	if !b.Intersects(other) {
		return 0
	}

	minArea := math.Min(b.Area(), other.Area())
	if minArea == 0 {
		return 0
	}

	return b.Intersection(other).Area() / minArea
}

// Clip returns the box clipped to the given bounds. A box entirely outside
// the bounds collapses to a degenerate box on the nearest edge.
func (b BBox) Clip(bounds BBox) BBox {
	return BBox{
		X0: clamp(b.X0, bounds.X0, bounds.X1),
		Y0: clamp(b.Y0, bounds.Y0, bounds.Y1),
		X1: clamp(b.X1, bounds.X0, bounds.X1),
		Y1: clamp(b.Y1, bounds.Y0, bounds.Y1),
	}
}

// Scale multiplies all four coordinates by a factor, converting between
// coordinate spaces (e.g. PDF points to raster pixels).
func (b BBox) Scale(factor float64) BBox {
	return BBox{
		X0: b.X0 * factor,
		Y0: b.Y0 * factor,
		X1: b.X1 * factor,
		Y1: b.Y1 * factor,
	}
}

// IsValid returns true if the bounding box is non-degenerate (x0 < x1 and y0 < y1).
func (b BBox) IsValid() bool {
	return b.X0 < b.X1 && b.Y0 < b.Y1
}

// IsFinite returns true if all four coordinates are finite numbers.
func (b BBox) IsFinite() bool {
	return !math.IsNaN(b.X0) && !math.IsInf(b.X0, 0) &&
		!math.IsNaN(b.Y0) && !math.IsInf(b.Y0, 0) &&
		!math.IsNaN(b.X1) && !math.IsInf(b.X1, 0) &&
		!math.IsNaN(b.Y1) && !math.IsInf(b.Y1, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
