// Package collision resolves moving bodies against the map bounds and each
// other, and detects missile hits.
package collision

import (
	"math"

	"github.com/arenashooter/arena/internal/geom"
)

// ResolveBounds keeps a body of half-size r at p inside a width x height
// map. When the body runs diagonally into a corner, the smaller correction
// is traded for movement along the wall using the direction's slope, so the
// body slides instead of freezing.
func ResolveBounds(p, dir geom.Vec2, r, width, height float64) (bool, geom.Vec2) {
	minX, maxX := r, width-r
	minY, maxY := r, height-r

	var dx, dy float64
	switch {
	case p.X < minX:
		dx = minX - p.X
	case p.X > maxX:
		dx = maxX - p.X
	}
	switch {
	case p.Y < minY:
		dy = minY - p.Y
	case p.Y > maxY:
		dy = maxY - p.Y
	}
	if dx == 0 && dy == 0 {
		return false, p
	}

	out := p
	if geom.Sign(dx)*geom.Sign(dir.X) < 0 && geom.Sign(dy)*geom.Sign(dir.Y) < 0 {
		if math.Abs(dx*dir.Y) < math.Abs(dy*dir.X) {
			out.X = geom.Clamp(out.X, minX, maxX)
			out.Y += geom.Sign(dy) * math.Abs(dx*dir.Y/dir.X)
			out.Y = geom.Clamp(out.Y, minY, maxY)
		} else {
			out.Y = geom.Clamp(out.Y, minY, maxY)
			out.X += geom.Sign(dx) * math.Abs(dy*dir.X/dir.Y)
			out.X = geom.Clamp(out.X, minX, maxX)
		}
		return true, out
	}
	out.X = geom.Clamp(out.X, minX, maxX)
	out.Y = geom.Clamp(out.Y, minY, maxY)
	return true, out
}

// ResolveBody pushes a body of half-size r1 at p, moving along dir, out of
// the box of half-size r2 at other. The axis with the smaller penetration
// relative to the direction is snapped to the contact edge, and the other
// axis advances by the same amount of travel so the body slides along the
// obstacle.
func ResolveBody(p geom.Vec2, r1 float64, dir geom.Vec2, other geom.Vec2, r2 float64) (bool, geom.Vec2) {
	total := r1 + r2
	dx := math.Abs(p.X - other.X)
	dy := math.Abs(p.Y - other.Y)
	if dx >= total || dy >= total {
		return false, p
	}
	cx := total - dx
	cy := total - dy

	out := p
	if cx*math.Abs(dir.Y) < cy*math.Abs(dir.X) {
		if dir.X > 0 {
			out.X = other.X - total
		} else {
			out.X = other.X + total
		}
		out.Y += geom.Sign(dir.Y) * cx * math.Abs(dir.Y) / math.Abs(dir.X)
	} else {
		if dir.Y > 0 {
			out.Y = other.Y - total
		} else {
			out.Y = other.Y + total
		}
		if dir.Y != 0 {
			out.X += geom.Sign(dir.X) * cy * math.Abs(dir.X) / math.Abs(dir.Y)
		}
	}
	return true, out
}

// OutOfBounds reports whether any part of the box of half-size r at p lies
// outside the map.
func OutOfBounds(p geom.Vec2, r, width, height float64) bool {
	return p.X-r < 0 || p.X+r > width || p.Y-r < 0 || p.Y+r > height
}
