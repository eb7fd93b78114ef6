package system

import (
	"time"

	"github.com/arenashooter/arena/internal/collision"
	"github.com/arenashooter/arena/internal/core/ecs"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/world"
)

// CollisionListener is told when a bot's move was blocked by the map edge
// or a tile. Bumping into another bot is not reported.
type CollisionListener interface {
	Collided(h ecs.Handle, obj *world.GameObj)
}

// MovementSystem moves the player first and recenters the view on it, then
// moves every active AI bot and missile. Phase 3 (Update).
type MovementSystem struct {
	world    *world.World
	resolver *collision.Resolver
	listener CollisionListener

	dt       float64
	captured []ecs.Handle
	moveFn   func(ecs.Handle, *world.GameObj)
}

// NewMovementSystem builds the system. listener may be nil.
func NewMovementSystem(w *world.World, listener CollisionListener) *MovementSystem {
	s := &MovementSystem{
		world:    w,
		resolver: collision.NewResolver(w),
		listener: listener,
		captured: make([]ecs.Handle, 0, 8),
	}
	s.moveFn = s.move
	return s
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	s.dt = dt.Seconds()
	s.movePlayer()
	s.world.Objects.Each(s.moveFn)
}

func (s *MovementSystem) movePlayer() {
	w := s.world
	h := w.Player()
	if h.IsZero() || w.Dying(h) {
		return
	}
	obj, ok := w.Objects.Get(h)
	if !ok || obj.State != world.StateAlive {
		return
	}

	if obj.Speed > 0 {
		step := obj.Speed * s.dt
		next := obj.Pos.Add(obj.Direction.Scale(step))
		ctl := w.Control()
		arrived := ctl.HasDestination && ctl.Destination.Dist(obj.Pos) <= step
		if arrived {
			next = ctl.Destination
		}
		_, p := s.resolver.ResolveMove(h, obj, next)
		w.MoveTo(h, obj, p)
		if arrived {
			w.RequestStop()
		}
	}
	w.Recenter(obj.Pos)
	s.capture(obj)
}

func (s *MovementSystem) move(h ecs.Handle, obj *world.GameObj) {
	w := s.world
	if h == w.Player() || obj.State != world.StateAlive || w.Dying(h) {
		return
	}
	switch obj.Type {
	case data.TypeBot:
		if !obj.Active {
			return
		}
		if obj.Speed > 0 {
			next := obj.Pos.Add(obj.Velocity().Scale(s.dt))
			contact, p := s.resolver.ResolveMove(h, obj, next)
			w.MoveTo(h, obj, p)
			if contact == collision.ContactStatic && s.listener != nil {
				s.listener.Collided(h, obj)
			}
			w.UpdateVisibility(h)
		}
		s.capture(obj)

	case data.TypeMissile:
		if obj.Speed <= 0 {
			return
		}
		next := obj.Pos.Add(obj.Velocity().Scale(s.dt))
		switch outcome, target := s.resolver.StepMissile(h, obj, next); outcome {
		case collision.MissileMoved:
			w.MoveTo(h, obj, next)
		case collision.MissileOffView:
			w.Despawn(h)
		case collision.MissileHit:
			at := obj.Pos
			if !target.IsZero() {
				at = next
			}
			w.KillAt(h, at)
		}
	}
}

// capture destroys the opposing missiles a bot ran into.
func (s *MovementSystem) capture(obj *world.GameObj) {
	s.captured = s.resolver.CapturedMissiles(s.captured[:0], obj, obj.Pos)
	for _, m := range s.captured {
		s.world.Kill(m)
	}
}
