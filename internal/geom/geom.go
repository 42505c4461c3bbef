// Package geom holds the integer geometry shared by the confinement engine
// and the platform backends. Coordinates are in the virtual desktop space and
// may be negative when a display sits left of or above the primary one.
package geom

import "fmt"

// Point is a position in virtual desktop coordinates
type Point struct {
	X int32
	Y int32
}

// Rect is an axis-aligned rectangle. Whether Right/Bottom are exclusive or
// inclusive depends on the caller: screen bounds are exclusive, confinement
// regions handed to the OS are inclusive.
type Rect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

// NewRect builds a rectangle from an origin and an extent
func NewRect(x, y, width, height int32) Rect {
	return Rect{Left: x, Top: y, Right: x + width, Bottom: y + height}
}

// Width returns Right-Left
func (r Rect) Width() int32 {
	return r.Right - r.Left
}

// Height returns Bottom-Top
func (r Rect) Height() int32 {
	return r.Bottom - r.Top
}

// Valid reports whether the rectangle has a positive extent on both axes
func (r Rect) Valid() bool {
	return r.Width() > 0 && r.Height() > 0
}

// Contains reports whether p lies inside r, treating Right/Bottom as exclusive
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Top && p.Y < r.Bottom
}

// Clamp moves p to the nearest point inside r (Right/Bottom exclusive).
// An invalid rectangle leaves p untouched.
func (r Rect) Clamp(p Point) Point {
	if !r.Valid() {
		return p
	}
	if p.X < r.Left {
		p.X = r.Left
	}
	if p.X > r.Right-1 {
		p.X = r.Right - 1
	}
	if p.Y < r.Top {
		p.Y = r.Top
	}
	if p.Y > r.Bottom-1 {
		p.Y = r.Bottom - 1
	}
	return p
}

// Union returns the smallest rectangle covering both r and o. Invalid
// rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if !o.Valid() {
		return r
	}
	if !r.Valid() {
		return o
	}
	return Rect{
		Left:   min(r.Left, o.Left),
		Top:    min(r.Top, o.Top),
		Right:  max(r.Right, o.Right),
		Bottom: max(r.Bottom, o.Bottom),
	}
}

func (r Rect) String() string {
	return fmt.Sprintf("L=%d T=%d R=%d B=%d (%dx%d)", r.Left, r.Top, r.Right, r.Bottom, r.Width(), r.Height())
}
