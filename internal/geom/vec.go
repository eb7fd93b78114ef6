package geom

import "math"

// Vec2 is a point or displacement in world space. X grows right, Y grows up.
type Vec2 struct {
	X float64
	Y float64
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool         { return v.X == 0 && v.Y == 0 }
func (v Vec2) Abs() Vec2            { return Vec2{math.Abs(v.X), math.Abs(v.Y)} }
func (v Vec2) Min(o Vec2) Vec2      { return Vec2{math.Min(v.X, o.X), math.Min(v.Y, o.Y)} }
func (v Vec2) Max(o Vec2) Vec2      { return Vec2{math.Max(v.X, o.X), math.Max(v.Y, o.Y)} }
func (v Vec2) Arr() [2]float64      { return [2]float64{v.X, v.Y} }
func FromArr(a [2]float64) Vec2     { return Vec2{a[0], a[1]} }
func (v Vec2) Equal(o Vec2) bool    { return v.X == o.X && v.Y == o.Y }
func (v Vec2) Near(o Vec2, eps float64) bool {
	return math.Abs(v.X-o.X) <= eps && math.Abs(v.Y-o.Y) <= eps
}

// Normalize returns the unit vector in v's direction, or the zero vector
// when v has no length.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// Rotate rotates o by the angle of v. v is expected to be a unit vector,
// so Rotate(Vec2{1, 0}) is the identity.
func (v Vec2) Rotate(o Vec2) Vec2 {
	return Vec2{v.X*o.X - v.Y*o.Y, v.Y*o.X + v.X*o.Y}
}

// Sign returns -1, 0 or 1. Unlike math.Copysign it maps 0 to 0.
func Sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	}
	return 0
}

func Clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// BoxOverlap reports whether the axis-aligned squares of half-size ra around
// a and rb around b overlap. Touching edges do not count.
func BoxOverlap(a Vec2, ra float64, b Vec2, rb float64) bool {
	span := ra + rb
	return math.Abs(a.X-b.X) < span && math.Abs(a.Y-b.Y) < span
}
