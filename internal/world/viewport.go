package world

import (
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
)

// Viewport tracks the camera origin and the visible rectangle around it.
type Viewport struct {
	half    geom.Vec2 // half window
	span    geom.Vec2 // half window plus margin
	world   geom.Vec2 // map extent
	origin  geom.Vec2
	visible RectRegion
}

// NewViewport builds a viewport for a window of width x height with ext of
// extra margin on every side, over a map of the given extent.
func NewViewport(width, height, ext float64, worldW, worldH float64) *Viewport {
	v := &Viewport{
		half:  geom.V(width/2, height/2),
		span:  geom.V(width/2+ext, height/2+ext),
		world: geom.V(worldW, worldH),
	}
	v.SetOrigin(geom.V(worldW/2, worldH/2))
	return v
}

func clampAxis(p, half, extent float64) float64 {
	if extent <= 2*half {
		return extent / 2
	}
	return geom.Clamp(p, half, extent-half)
}

// SetOrigin centers the view on p, clamped so the window stays on the map,
// and returns the visible rectangle before and after the move.
func (v *Viewport) SetOrigin(p geom.Vec2) (before, after RectRegion) {
	before = v.visible
	v.origin = geom.V(
		clampAxis(p.X, v.half.X, v.world.X),
		clampAxis(p.Y, v.half.Y, v.world.Y),
	)
	v.visible = RectRegion{
		Left:   v.origin.X - v.span.X,
		Bottom: v.origin.Y - v.span.Y,
		Right:  v.origin.X + v.span.X,
		Top:    v.origin.Y + v.span.Y,
	}
	return before, v.visible
}

func (v *Viewport) Origin() geom.Vec2       { return v.origin }
func (v *Viewport) Span() geom.Vec2         { return v.span }
func (v *Viewport) VisibleRect() RectRegion { return v.visible }

// CheckVisible reports whether p lies in the visible rectangle, edges
// included.
func (v *Viewport) CheckVisible(p geom.Vec2) bool {
	return v.visible.ContainsInclusive(p)
}

// ScreenPos is the position relative to the origin.
func (v *Viewport) ScreenPos(p geom.Vec2) geom.Vec2 {
	return p.Sub(v.origin)
}

// Recenter moves the view to p and updates every object whose cell left,
// entered or stayed in the visible region. Missiles and effects that went
// offscreen are despawned; bots and tiles are hidden and bots deactivated.
func (w *World) Recenter(p geom.Vec2) {
	before, after := w.View.SetOrigin(p)
	oldRegion := w.Grid.RegionForRect(before)
	newRegion := w.Grid.RegionForRect(after)

	w.regionBuf = oldRegion.AppendSub(w.regionBuf[:0], newRegion)
	w.regionBuf = newRegion.AppendSub(w.regionBuf, oldRegion)
	w.regionBuf = oldRegion.AppendIntersect(w.regionBuf, newRegion)
	w.Grid.ForEachInRegions(w.regionBuf, w.cullFn)
}

func (w *World) cull(h ecs.Handle) bool {
	if w.Despawns.Contains(h) {
		return true
	}
	obj, ok := w.Objects.Get(h)
	if !ok {
		return true
	}
	w.updateVisibility(h, obj)
	if !obj.Visible && (obj.Type == data.TypeMissile || obj.Type == data.TypeEffect) {
		w.Despawn(h)
	}
	return true
}

// updateVisibility recomputes the visible flag, the AI active marker and
// the screen position of obj.
func (w *World) updateVisibility(h ecs.Handle, obj *GameObj) {
	obj.Visible = w.View.CheckVisible(obj.Pos)
	obj.ScreenPos = w.View.ScreenPos(obj.Pos)
	if obj.Type == data.TypeBot {
		obj.Active = obj.State == StateAlive && (obj.Visible || h == w.player)
	}
}

// UpdateVisibility is updateVisibility for callers outside the package
// that moved an object.
func (w *World) UpdateVisibility(h ecs.Handle) {
	if obj, ok := w.Objects.Get(h); ok {
		w.updateVisibility(h, obj)
	}
}
