package world

import (
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"go.uber.org/zap"
)

// Kill runs the death of h at its own position.
func (w *World) Kill(h ecs.Handle) {
	if w.Despawns.Contains(h) {
		return
	}
	obj, ok := w.Objects.Get(h)
	if !ok {
		w.log.Warn("kill: object missing", zap.Stringer("entity", h), zap.Error(ErrNotFound))
		return
	}
	w.KillAt(h, obj.Pos)
}

// KillAt runs the death of h with its effects centered on at: the explosion
// config is queued there, a missile deals its damage there, and the object
// is either moved to Phaseout (bots with a phaseout time) or scheduled for
// removal. The object itself does not move. Objects already dying are
// ignored.
func (w *World) KillAt(h ecs.Handle, at geom.Vec2) {
	if w.Despawns.Contains(h) {
		return
	}
	obj, ok := w.Objects.Get(h)
	if !ok {
		w.log.Warn("kill: object missing", zap.Stringer("entity", h), zap.Error(ErrNotFound))
		return
	}
	if obj.State != StateAlive {
		return
	}
	cfg := w.Catalog.Get(obj.ConfigRef)
	if cfg == nil {
		w.Despawn(h)
		return
	}
	w.killed[h] = struct{}{}

	if cfg.ExplosionRef != data.NoRef {
		w.Spawn(NewObjRequest{ConfigRef: cfg.ExplosionRef, Pos: at, Direction: geom.V(1, 0)})
	}

	if obj.Type == data.TypeBot && cfg.Phaseout > 0 {
		obj.State = StatePhaseout
		obj.Active = false
		w.Weapons.Remove(h)
		w.Playouts.Set(h, newPlayout(PlayoutPhaseout, cfg.Phaseout))
		return
	}
	// Despawn first so the splash below cannot hit h again.
	w.Despawn(h)
	if obj.Type == data.TypeMissile && cfg.Damage > 0 {
		span := cfg.DamageSpan
		if span <= 0 {
			span = cfg.CollideSpan
		}
		w.Splash(at, obj.Side, span, cfg.Damage)
	}
}

// ApplyDamage subtracts amount from a mortal object's hp and kills it when
// hp reaches zero. It reports whether the object died.
func (w *World) ApplyDamage(h ecs.Handle, amount float64) bool {
	if w.Despawns.Contains(h) {
		return false
	}
	obj, ok := w.Objects.Get(h)
	if !ok || !obj.Mortal || obj.State != StateAlive {
		return false
	}
	obj.HP -= amount
	if obj.HP > 0 {
		return false
	}
	obj.HP = 0
	w.Kill(h)
	return true
}

// Splash damages every living bot opposing side whose box overlaps the
// square of half-size span around pos.
func (w *World) Splash(pos geom.Vec2, side data.Side, span, damage float64) {
	region := w.Grid.RegionForRect(Rect(pos, span+w.MaxCollideSpan))
	victims := w.hitBuf[:0]
	w.Grid.ForEachInRegion(region, func(h ecs.Handle) bool {
		if w.Despawns.Contains(h) {
			return true
		}
		obj, ok := w.Objects.Get(h)
		if !ok || obj.Type != data.TypeBot || obj.State != StateAlive {
			return true
		}
		if side.Opposes(obj.Side) && geom.BoxOverlap(pos, span, obj.Pos, obj.CollideSpan) {
			victims = append(victims, h)
		}
		return true
	})
	w.hitBuf = victims[:0]
	for _, h := range victims {
		w.ApplyDamage(h, damage)
	}
}
