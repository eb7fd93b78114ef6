package world

import "github.com/arenashooter/arena/internal/geom"

// MapPos is the integer grid address of a world position.
type MapPos struct {
	Row int
	Col int
}

// MapRegion is an inclusive rectangle of grid cells.
type MapRegion struct {
	StartRow int
	EndRow   int
	StartCol int
	EndCol   int
}

func (r MapRegion) Contains(p MapPos) bool {
	return p.Row >= r.StartRow && p.Row <= r.EndRow &&
		p.Col >= r.StartCol && p.Col <= r.EndCol
}

// Cells returns the number of cells the region covers.
func (r MapRegion) Cells() int {
	if r.EndRow < r.StartRow || r.EndCol < r.StartCol {
		return 0
	}
	return (r.EndRow - r.StartRow + 1) * (r.EndCol - r.StartCol + 1)
}

func (r MapRegion) disjoint(o MapRegion) bool {
	return r.StartRow > o.EndRow || r.EndRow < o.StartRow ||
		r.StartCol > o.EndCol || r.EndCol < o.StartCol
}

// Sub returns r minus o as disjoint rectangles: full-width bands below and
// above o first, then the left and right strips beside it.
func (r MapRegion) Sub(o MapRegion) []MapRegion {
	return r.AppendSub(nil, o)
}

// AppendSub is Sub writing into dst, for callers that reuse a buffer.
func (r MapRegion) AppendSub(dst []MapRegion, o MapRegion) []MapRegion {
	if r.disjoint(o) {
		return append(dst, r)
	}
	startRow, endRow := r.StartRow, r.EndRow
	if r.StartRow < o.StartRow {
		dst = append(dst, MapRegion{r.StartRow, o.StartRow - 1, r.StartCol, r.EndCol})
		startRow = o.StartRow
	}
	if r.EndRow > o.EndRow {
		dst = append(dst, MapRegion{o.EndRow + 1, r.EndRow, r.StartCol, r.EndCol})
		endRow = o.EndRow
	}
	if r.StartCol < o.StartCol {
		dst = append(dst, MapRegion{startRow, endRow, r.StartCol, o.StartCol - 1})
	}
	if r.EndCol > o.EndCol {
		dst = append(dst, MapRegion{startRow, endRow, o.EndCol + 1, r.EndCol})
	}
	return dst
}

// Intersect returns the overlap of r and o: one region, or none.
func (r MapRegion) Intersect(o MapRegion) []MapRegion {
	return r.AppendIntersect(nil, o)
}

func (r MapRegion) AppendIntersect(dst []MapRegion, o MapRegion) []MapRegion {
	if r.disjoint(o) {
		return dst
	}
	return append(dst, MapRegion{
		StartRow: max(r.StartRow, o.StartRow),
		EndRow:   min(r.EndRow, o.EndRow),
		StartCol: max(r.StartCol, o.StartCol),
		EndCol:   min(r.EndCol, o.EndCol),
	})
}

// RectRegion is a rectangle in continuous world space.
type RectRegion struct {
	Left   float64
	Bottom float64
	Right  float64
	Top    float64
}

// Rect builds the square of half-size span around center.
func Rect(center geom.Vec2, span float64) RectRegion {
	return RectRegion{center.X - span, center.Y - span, center.X + span, center.Y + span}
}

// Covers is half-open: the left and bottom edges belong to the rectangle,
// the right and top edges do not, matching floor-based cell addressing.
func (r RectRegion) Covers(p geom.Vec2) bool {
	return p.X >= r.Left && p.X < r.Right && p.Y >= r.Bottom && p.Y < r.Top
}

// ContainsInclusive treats every edge as inside.
func (r RectRegion) ContainsInclusive(p geom.Vec2) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Bottom && p.Y <= r.Top
}

// Union returns the smallest rectangle holding both r and o.
func (r RectRegion) Union(o RectRegion) RectRegion {
	return RectRegion{
		Left:   min(r.Left, o.Left),
		Bottom: min(r.Bottom, o.Bottom),
		Right:  max(r.Right, o.Right),
		Top:    max(r.Top, o.Top),
	}
}
