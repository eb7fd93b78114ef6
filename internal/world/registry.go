package world

import (
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
)

// ObjState is the lifecycle stage of a game object. It only moves forward:
// Alive, then optionally Phaseout, then removal.
type ObjState uint8

const (
	StateAlive ObjState = iota
	StatePhaseout
	StateDead
)

func (s ObjState) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StatePhaseout:
		return "phaseout"
	case StateDead:
		return "dead"
	}
	return "unknown"
}

// GameObj is the simulation record of one entity.
type GameObj struct {
	ConfigRef   int
	Type        data.ObjType
	Side        data.Side
	CollideSpan float64 // 0 = never collides

	Pos       geom.Vec2
	Direction geom.Vec2 // unit
	Speed     float64   // current speed along Direction
	Cell      MapPos

	State  ObjState
	HP     float64
	Mortal bool // false = HP is ignored

	Visible   bool
	Active    bool // bots inside the view are simulated by AI
	ScreenPos geom.Vec2
	Alpha     float64 // fades from 1 to 0 during phaseout
}

func (o *GameObj) Alive() bool { return o.State == StateAlive }

// Collidable reports whether o blocks moving bodies.
func (o *GameObj) Collidable() bool {
	return o.State == StateAlive && o.CollideSpan > 0 && o.Type.Blocking()
}

// Velocity is Direction scaled by Speed.
func (o *GameObj) Velocity() geom.Vec2 { return o.Direction.Scale(o.Speed) }

// Registry maps entity handles to their GameObj records.
type Registry struct {
	pool *ecs.EntityPool
	objs *ecs.Store[GameObj]
}

func NewRegistry() *Registry {
	return &Registry{
		pool: ecs.NewEntityPool(),
		objs: ecs.NewStore[GameObj](),
	}
}

// Insert allocates a handle for obj.
func (r *Registry) Insert(obj *GameObj) ecs.Handle {
	h := r.pool.Create()
	r.objs.Set(h, obj)
	return h
}

func (r *Registry) Get(h ecs.Handle) (*GameObj, bool) {
	if !r.pool.Alive(h) {
		return nil, false
	}
	return r.objs.Get(h)
}

// Remove drops the record and retires the handle. Stale handles report false.
func (r *Registry) Remove(h ecs.Handle) bool {
	if !r.objs.Remove(h) {
		return false
	}
	r.pool.Destroy(h)
	return true
}

func (r *Registry) Len() int { return r.objs.Len() }

// Each visits objects in registry order. fn must not insert or remove.
func (r *Registry) Each(fn func(ecs.Handle, *GameObj)) {
	r.objs.Each(fn)
}

// Handles returns a snapshot of all live handles.
func (r *Registry) Handles() []ecs.Handle {
	return r.objs.Handles()
}
