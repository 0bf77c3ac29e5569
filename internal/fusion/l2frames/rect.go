package l2frames

import "github.com/golang/geo/r2"

// Rect is an axis-aligned image rectangle in pixels. Containment is
// half-open: [X, X+Width) × [Y, Y+Height).
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Shrink insets the rectangle by s/2 of its size on every side, keeping
// it centred. s = 0.1 removes 10% of the width and of the height.
func (r Rect) Shrink(s float64) Rect {
	return Rect{
		X:      r.X + s*r.Width/2.0,
		Y:      r.Y + s*r.Height/2.0,
		Width:  r.Width * (1 - s),
		Height: r.Height * (1 - s),
	}
}

// Contains reports whether p lies inside the rectangle.
func (r Rect) Contains(p r2.Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the rectangle centre.
func (r Rect) Center() r2.Point {
	return r2.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}
