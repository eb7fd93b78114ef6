package world

import (
	"fmt"

	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/core/event"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"go.uber.org/zap"
)

// NewObjRequest asks for an object to be created at the end of the tick.
type NewObjRequest struct {
	ConfigRef int
	Pos       geom.Vec2
	Direction geom.Vec2
	Speed     *float64 // nil = the config's default
}

// NewObjQueue buffers spawn requests until the lifecycle flush.
type NewObjQueue struct {
	reqs  []NewObjRequest
	spare []NewObjRequest
}

func NewNewObjQueue() *NewObjQueue {
	return &NewObjQueue{
		reqs:  make([]NewObjRequest, 0, 64),
		spare: make([]NewObjRequest, 0, 64),
	}
}

func (q *NewObjQueue) Push(r NewObjRequest) { q.reqs = append(q.reqs, r) }
func (q *NewObjQueue) Len() int             { return len(q.reqs) }

// drain hands out the pending requests and starts an empty queue, so
// requests pushed while the batch is processed wait for the next flush.
func (q *NewObjQueue) drain() []NewObjRequest {
	batch := q.reqs
	q.reqs = q.spare[:0]
	q.spare = batch
	return batch
}

// DespawnSet holds the handles to remove at the end of the tick. Membership
// doubles as the "already dying" guard every system checks before acting.
type DespawnSet struct {
	set   map[ecs.Handle]struct{}
	order []ecs.Handle
}

func NewDespawnSet() *DespawnSet {
	return &DespawnSet{
		set:   make(map[ecs.Handle]struct{}, 64),
		order: make([]ecs.Handle, 0, 64),
	}
}

// Insert adds h and reports whether it was new. Inserting twice is a no-op.
func (d *DespawnSet) Insert(h ecs.Handle) bool {
	if _, ok := d.set[h]; ok {
		return false
	}
	d.set[h] = struct{}{}
	d.order = append(d.order, h)
	return true
}

func (d *DespawnSet) Contains(h ecs.Handle) bool {
	_, ok := d.set[h]
	return ok
}

func (d *DespawnSet) Len() int { return len(d.order) }

func (d *DespawnSet) clear() {
	clear(d.set)
	d.order = d.order[:0]
}

// Despawn schedules h for removal at the end of the tick.
func (w *World) Despawn(h ecs.Handle) {
	w.Despawns.Insert(h)
}

// Dying reports whether h is already scheduled for removal.
func (w *World) Dying(h ecs.Handle) bool {
	return w.Despawns.Contains(h)
}

// Spawn queues a spawn request.
func (w *World) Spawn(r NewObjRequest) {
	w.NewObjs.Push(r)
}

// Flush applies the tick's structural changes: every pending despawn first,
// then every pending spawn. Removals and spawns triggered during the flush
// itself wait for the next one.
func (w *World) Flush() {
	for _, h := range w.Despawns.order {
		w.remove(h)
	}
	w.Despawns.clear()

	for _, r := range w.NewObjs.drain() {
		if _, err := w.SpawnByConfig(r.ConfigRef, r.Pos, r.Direction, r.Speed); err != nil {
			w.log.Error("spawn dropped", zap.Int("config", r.ConfigRef), zap.Error(err))
		}
	}
}

func (w *World) remove(h ecs.Handle) {
	obj, ok := w.Objects.Get(h)
	if !ok {
		w.log.Warn("despawn: object missing", zap.Stringer("entity", h), zap.Error(ErrNotFound))
		return
	}
	obj.State = StateDead
	w.Grid.RemoveAt(h, obj.Cell)
	w.Components.RemoveAll(h)
	for _, r := range w.releasers {
		r.Release(h)
	}

	ev := event.ObjectDespawned{
		Handle: h,
		Player: h == w.player,
		AIBot:  obj.Type == data.TypeBot && obj.Side == data.SideAI,
	}
	if cfg := w.Catalog.Get(obj.ConfigRef); cfg != nil {
		ev.ConfigName = cfg.Name
	}
	if _, ok := w.killed[h]; ok {
		ev.Killed = true
		delete(w.killed, h)
	}
	if ev.AIBot {
		w.aiBots--
	}
	if ev.Player {
		w.player = 0
	}
	w.Objects.Remove(h)
	event.Emit(w.Bus, ev)
}

// SpawnByConfig materializes an object immediately. It is used to build the
// initial world and by Flush; systems running inside a tick push a
// NewObjRequest instead.
func (w *World) SpawnByConfig(ref int, pos, dir geom.Vec2, speed *float64) (ecs.Handle, error) {
	cfg := w.Catalog.Get(ref)
	if cfg == nil {
		return 0, fmt.Errorf("config ref %d: %w", ref, ErrUnknownConfig)
	}
	if !w.InBounds(pos) {
		return 0, fmt.Errorf("%s at (%.1f, %.1f): %w", cfg.Name, pos.X, pos.Y, ErrOutOfBounds)
	}

	dir = dir.Normalize()
	if dir.IsZero() {
		dir = geom.V(1, 0)
	}
	obj := &GameObj{
		ConfigRef:   ref,
		Type:        cfg.Type,
		Side:        cfg.Side,
		CollideSpan: cfg.CollideSpan,
		Pos:         pos,
		Direction:   dir,
		HP:          cfg.HP,
		Mortal:      cfg.Mortal(),
		Alpha:       1,
	}
	switch {
	case speed != nil:
		obj.Speed = *speed
	case cfg.Type == data.TypeMissile:
		obj.Speed = cfg.Speed
	}

	h := w.Objects.Insert(obj)
	obj.Cell = w.Grid.Add(h, pos)
	w.updateVisibility(h, obj)

	if cfg.Weapon != nil {
		w.Weapons.Set(h, newWeapon(cfg.Weapon))
	}
	if cfg.Type == data.TypeEffect && cfg.Lifetime > 0 {
		w.Playouts.Set(h, newPlayout(PlayoutExpire, cfg.Lifetime))
	}
	if cfg.Type == data.TypeBot && cfg.Side == data.SideAI {
		w.aiBots++
	}
	for _, a := range w.attachers {
		a.Attach(h, obj, cfg)
	}
	if cfg.Type == data.TypeEffect && cfg.Damage > 0 {
		w.Splash(pos, cfg.Side, cfg.DamageSpan, cfg.Damage)
	}
	return h, nil
}

// InBounds reports whether pos lies on the map. The far edges are outside.
func (w *World) InBounds(pos geom.Vec2) bool {
	return RectRegion{Right: w.Grid.Width(), Top: w.Grid.Height()}.Covers(pos)
}
