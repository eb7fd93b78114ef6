package collision

import (
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/world"
	"go.uber.org/zap"
)

// MissileOutcome is what happened to a missile's intended step.
type MissileOutcome uint8

const (
	MissileMoved   MissileOutcome = iota
	MissileOffView                // left the visible region; removed quietly
	MissileHit                    // hit the map edge or an opposing body
)

// Contact classifies what a resolved move ran into.
type Contact uint8

const (
	ContactNone   Contact = iota
	ContactBody           // only other bots
	ContactStatic         // the map edge or a tile
)

func (c Contact) Collided() bool { return c != ContactNone }

// Resolver runs collision queries against a world. It keeps the visitor
// state in fields so queries do not allocate.
type Resolver struct {
	w *world.World

	self     ecs.Handle
	selfObj  *world.GameObj
	cur      geom.Vec2
	dir      geom.Vec2
	span     float64
	collided bool
	contact  Contact
	hit      ecs.Handle

	bodyFn    func(ecs.Handle) bool
	missileFn func(ecs.Handle) bool
}

func NewResolver(w *world.World) *Resolver {
	r := &Resolver{w: w}
	r.bodyFn = r.visitBody
	r.missileFn = r.visitMissile
	return r
}

// sweep is the cell region covering a body moving from a to b, grown by the
// largest span any other object can have.
func (r *Resolver) sweep(a, b geom.Vec2, span float64) world.MapRegion {
	reach := span + r.w.MaxCollideSpan
	return r.w.Grid.RegionForRect(world.Rect(a, reach).Union(world.Rect(b, reach)))
}

// ResolveMove resolves a blocking body's step from its position to next.
// Overlaps are resolved one after another in grid order against the
// running position. The result always stays inside the map.
func (r *Resolver) ResolveMove(h ecs.Handle, obj *world.GameObj, next geom.Vec2) (Contact, geom.Vec2) {
	width, height := r.w.Grid.Width(), r.w.Grid.Height()
	r.contact = ContactNone
	edge, p := ResolveBounds(next, obj.Direction, obj.CollideSpan, width, height)
	if edge {
		r.contact = ContactStatic
	}
	if obj.CollideSpan <= 0 {
		return r.contact, p
	}

	r.self, r.selfObj = h, obj
	r.cur, r.dir, r.span = p, obj.Direction, obj.CollideSpan
	r.collided = false
	r.w.Grid.ForEachInRegion(r.sweep(obj.Pos, p, obj.CollideSpan), r.bodyFn)
	r.selfObj = nil

	if !r.collided {
		return r.contact, p
	}
	if edge, p = ResolveBounds(r.cur, obj.Direction, obj.CollideSpan, width, height); edge {
		r.contact = ContactStatic
	}
	return r.contact, p
}

func (r *Resolver) visitBody(h ecs.Handle) bool {
	if h == r.self || r.w.Dying(h) {
		return true
	}
	other, ok := r.w.Objects.Get(h)
	if !ok {
		r.w.Log().Warn("collision: grid holds unknown handle", zap.Stringer("entity", h))
		return true
	}
	if !other.Collidable() {
		return true
	}
	if hit, p := ResolveBody(r.cur, r.span, r.dir, other.Pos, other.CollideSpan); hit {
		r.cur = p
		r.collided = true
		switch {
		case other.Type == data.TypeTile:
			r.contact = ContactStatic
		case r.contact == ContactNone:
			r.contact = ContactBody
		}
	}
	return true
}

// StepMissile decides a missile's step to next. A missile never moves
// partially: it either moves the whole step, or is stopped and its hit
// target (zero for the map edge) returned.
func (r *Resolver) StepMissile(h ecs.Handle, obj *world.GameObj, next geom.Vec2) (MissileOutcome, ecs.Handle) {
	if OutOfBounds(next, obj.CollideSpan, r.w.Grid.Width(), r.w.Grid.Height()) {
		return MissileHit, 0
	}
	if !r.w.View.CheckVisible(next) {
		return MissileOffView, 0
	}
	if obj.CollideSpan <= 0 {
		return MissileMoved, 0
	}

	r.self, r.selfObj = h, obj
	r.cur, r.span = next, obj.CollideSpan
	r.hit = 0
	r.w.Grid.ForEachInRegion(r.sweep(next, next, obj.CollideSpan), r.missileFn)
	r.selfObj = nil
	if r.hit != 0 {
		return MissileHit, r.hit
	}
	return MissileMoved, 0
}

func (r *Resolver) visitMissile(h ecs.Handle) bool {
	if h == r.self || r.w.Dying(h) {
		return true
	}
	other, ok := r.w.Objects.Get(h)
	if !ok {
		r.w.Log().Warn("collision: grid holds unknown handle", zap.Stringer("entity", h))
		return true
	}
	if !other.Collidable() || !r.selfObj.Side.Opposes(other.Side) {
		return true
	}
	if geom.BoxOverlap(r.cur, r.span, other.Pos, other.CollideSpan) {
		r.hit = h
		return false
	}
	return true
}

// CapturedMissiles returns the opposing missiles overlapping a bot of
// half-size span at pos, appended to dst.
func (r *Resolver) CapturedMissiles(dst []ecs.Handle, obj *world.GameObj, pos geom.Vec2) []ecs.Handle {
	region := r.sweep(pos, pos, obj.CollideSpan)
	r.w.Grid.ForEachInRegion(region, func(h ecs.Handle) bool {
		if r.w.Dying(h) {
			return true
		}
		m, ok := r.w.Objects.Get(h)
		if !ok || m.Type != data.TypeMissile || m.State != world.StateAlive || m.Side == obj.Side {
			return true
		}
		if geom.BoxOverlap(pos, obj.CollideSpan, m.Pos, m.CollideSpan) {
			dst = append(dst, h)
		}
		return true
	})
	return dst
}
