package layout

import "math"

// Vec is a 2-D vector in page units.
type Vec struct {
	X, Y float64
}

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec {
	return Vec{X: v.X - o.X, Y: v.Y - o.Y}
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// Scale returns v * k.
func (v Vec) Scale(k float64) Vec {
	return Vec{X: v.X * k, Y: v.Y * k}
}

// Len returns the Euclidean length.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Perp returns v rotated by 90 degrees.
func (v Vec) Perp() Vec {
	return Vec{X: -v.Y, Y: v.X}
}

// Box is an axis-aligned rectangle in SVG orientation (Y grows downwards).
type Box struct {
	X      float64 `json:"x"` // Left
	Y      float64 `json:"y"` // Top
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// extent accumulates the min/max of a set of points.
type extent struct {
	minX, minY, maxX, maxY float64
	n                      int
}

func (e *extent) add(x, y float64) {
	if e.n == 0 {
		e.minX, e.maxX, e.minY, e.maxY = x, x, y, y
	} else {
		e.minX = math.Min(e.minX, x)
		e.maxX = math.Max(e.maxX, x)
		e.minY = math.Min(e.minY, y)
		e.maxY = math.Max(e.maxY, y)
	}
	e.n++
}
