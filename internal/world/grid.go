package world

import (
	"math"
	"slices"

	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/geom"
	"go.uber.org/zap"
)

// Grid is a uniform-cell spatial index over the map. It only records which
// handles sit in which cell; object data lives in the Registry.
// Each cell keeps insertion order so queries visit handles reproducibly.
// Accessed only from the game loop goroutine, no locks.
type Grid struct {
	cellSize float64
	rows     int
	cols     int
	cells    [][]ecs.Handle // row-major, rows*cols
	log      *zap.Logger
}

func NewGrid(cellSize float64, rows, cols int, log *zap.Logger) *Grid {
	return &Grid{
		cellSize: cellSize,
		rows:     rows,
		cols:     cols,
		cells:    make([][]ecs.Handle, rows*cols),
		log:      log,
	}
}

func (g *Grid) CellSize() float64 { return g.cellSize }
func (g *Grid) Rows() int         { return g.rows }
func (g *Grid) Cols() int         { return g.cols }
func (g *Grid) Width() float64    { return float64(g.cols) * g.cellSize }
func (g *Grid) Height() float64   { return float64(g.rows) * g.cellSize }

func (g *Grid) toIndex(v float64, count int) int {
	i := int(math.Floor(v / g.cellSize))
	if i < 0 {
		return 0
	}
	if i >= count {
		return count - 1
	}
	return i
}

// MapPos returns the cell holding p, clamped to the map.
func (g *Grid) MapPos(p geom.Vec2) MapPos {
	return MapPos{Row: g.toIndex(p.Y, g.rows), Col: g.toIndex(p.X, g.cols)}
}

func (g *Grid) cell(mp MapPos) *[]ecs.Handle {
	return &g.cells[mp.Row*g.cols+mp.Col]
}

// Add inserts h into the cell holding pos and returns that cell.
func (g *Grid) Add(h ecs.Handle, pos geom.Vec2) MapPos {
	mp := g.MapPos(pos)
	g.AddAt(h, mp)
	return mp
}

func (g *Grid) AddAt(h ecs.Handle, mp MapPos) {
	c := g.cell(mp)
	*c = append(*c, h)
}

// Remove takes h out of the cell holding pos.
func (g *Grid) Remove(h ecs.Handle, pos geom.Vec2) bool {
	return g.RemoveAt(h, g.MapPos(pos))
}

// RemoveAt takes h out of cell mp. A missing handle is logged and ignored.
func (g *Grid) RemoveAt(h ecs.Handle, mp MapPos) bool {
	c := g.cell(mp)
	i := slices.Index(*c, h)
	if i < 0 {
		g.log.Warn("grid: handle not in cell",
			zap.Stringer("entity", h), zap.Int("row", mp.Row), zap.Int("col", mp.Col))
		return false
	}
	*c = slices.Delete(*c, i, i+1)
	return true
}

// Relocate moves h from the cell at from to the cell holding to and
// returns the new cell. Moves within a cell leave the grid untouched.
func (g *Grid) Relocate(h ecs.Handle, from MapPos, to geom.Vec2) MapPos {
	mp := g.MapPos(to)
	if mp == from {
		return mp
	}
	g.RemoveAt(h, from)
	g.AddAt(h, mp)
	return mp
}

// RegionForRect converts a world rectangle to the clamped cell range
// touching it. Each axis is clamped on its own, so a rectangle fully
// outside the map still yields the nearest edge cells.
func (g *Grid) RegionForRect(r RectRegion) MapRegion {
	return MapRegion{
		StartRow: g.toIndex(r.Bottom, g.rows),
		EndRow:   g.toIndex(r.Top, g.rows),
		StartCol: g.toIndex(r.Left, g.cols),
		EndCol:   g.toIndex(r.Right, g.cols),
	}
}

// Full returns the region covering the whole map.
func (g *Grid) Full() MapRegion {
	return MapRegion{0, g.rows - 1, 0, g.cols - 1}
}

// ForEachInRegion calls fn for every handle in every cell of region, rows
// then columns then insertion order. fn returns false to stop early, in
// which case ForEachInRegion returns false. fn must not mutate the grid.
func (g *Grid) ForEachInRegion(region MapRegion, fn func(ecs.Handle) bool) bool {
	for row := region.StartRow; row <= region.EndRow; row++ {
		base := row * g.cols
		for col := region.StartCol; col <= region.EndCol; col++ {
			for _, h := range g.cells[base+col] {
				if !fn(h) {
					return false
				}
			}
		}
	}
	return true
}

// ForEachInRegions runs ForEachInRegion over several regions in order.
func (g *Grid) ForEachInRegions(regions []MapRegion, fn func(ecs.Handle) bool) bool {
	for _, r := range regions {
		if !g.ForEachInRegion(r, fn) {
			return false
		}
	}
	return true
}

// Cell returns the handles stored in cell mp. The slice is owned by the grid.
func (g *Grid) Cell(mp MapPos) []ecs.Handle {
	return *g.cell(mp)
}

// Index returns every cell each handle appears in. It walks the whole map
// and is meant for consistency checks, not per-tick use.
func (g *Grid) Index() map[ecs.Handle][]MapPos {
	out := make(map[ecs.Handle][]MapPos)
	for i, c := range g.cells {
		mp := MapPos{Row: i / g.cols, Col: i % g.cols}
		for _, h := range c {
			out[h] = append(out[h], mp)
		}
	}
	return out
}
