package ai

import (
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/scripting"
	"github.com/arenashooter/arena/internal/world"
	"go.uber.org/zap"
)

// Decider chooses the next action of scripted bots.
type Decider interface {
	DecideAction(fn string, in scripting.AIInput) (scripting.AIDecision, error)
}

// Controller owns the AI and search components and runs them each tick.
type Controller struct {
	w         *world.World
	behaviors *ecs.Store[Behavior]
	searches  *ecs.Store[Search]
	decider   Decider

	ctx        Context
	decideFn   func(*Behavior, *Context) (Action, time.Duration)
	candidates []ecs.Handle
	log        *zap.Logger
}

// NewController registers the AI stores with w and attaches components to
// every object spawned from now on. decider may be nil, in which case
// scripted bots fall back to the coin flip.
func NewController(w *world.World, decider Decider, log *zap.Logger) *Controller {
	c := &Controller{
		w:          w,
		behaviors:  ecs.NewStore[Behavior](),
		searches:   ecs.NewStore[Search](),
		decider:    decider,
		candidates: make([]ecs.Handle, 0, 32),
		log:        log,
	}
	if decider != nil {
		c.decideFn = c.decide
	}
	w.Components.Register(c.behaviors)
	w.Components.Register(c.searches)
	w.AddAttacher(c)
	return c
}

// Attach implements world.Attacher.
func (c *Controller) Attach(h ecs.Handle, obj *world.GameObj, cfg *data.ObjectConfig) {
	if cfg.AI != nil && obj.Type == data.TypeBot {
		c.behaviors.Set(h, &Behavior{
			Kind:   cfg.AI.Kind,
			State:  newChaseShoot(cfg.AI),
			Script: cfg.AI.Script,
		})
	}
	if cfg.Search != nil {
		c.searches.Set(h, newSearch(cfg.Search))
	}
}

// Behavior returns the AI of h.
func (c *Controller) Behavior(h ecs.Handle) (*Behavior, bool) { return c.behaviors.Get(h) }

// Search returns the search state of h.
func (c *Controller) Search(h ecs.Handle) (*Search, bool) { return c.searches.Get(h) }

// skip reports whether h should not be simulated this tick: dying, gone,
// phasing out, or an offscreen bot.
func (c *Controller) skip(h ecs.Handle) (*world.GameObj, bool) {
	if c.w.Dying(h) {
		return nil, true
	}
	obj, ok := c.w.Objects.Get(h)
	if !ok || obj.State != world.StateAlive {
		return nil, true
	}
	if obj.Type == data.TypeBot && !obj.Active {
		return nil, true
	}
	return obj, false
}

// UpdateSearch refreshes targets and re-aims homing missiles.
func (c *Controller) UpdateSearch(dt time.Duration) {
	c.searches.Each(func(h ecs.Handle, s *Search) {
		obj, skip := c.skip(h)
		if skip {
			return
		}
		c.updateSearch(h, obj, s, dt)
		if obj.Type == data.TypeMissile {
			if pos, ok := c.searchTarget(h); ok {
				if dir := pos.Sub(obj.Pos).Normalize(); !dir.IsZero() {
					obj.Direction = dir
				}
			}
		}
	})
}

// Update runs every active AI bot's behavior.
func (c *Controller) Update(dt time.Duration) {
	c.behaviors.Each(func(h ecs.Handle, b *Behavior) {
		obj, skip := c.skip(h)
		if skip {
			return
		}
		cfg := c.w.Catalog.Get(obj.ConfigRef)
		if cfg == nil {
			c.log.Warn("ai: object has no config", zap.Stringer("entity", h), zap.Int("config", obj.ConfigRef))
			return
		}
		c.ctx = Context{
			World:  c.w,
			Handle: h,
			Obj:    obj,
			Config: cfg,
			Dt:     dt,
			Rand:   c.w.Rand,
		}
		c.ctx.Target, c.ctx.HasTarget = c.target(h)
		if b.Kind == data.AIScripted {
			c.ctx.Decide = c.decideFn
		}
		b.Run(&c.ctx)
	})
}

// target is the searched target when the bot searches, else the player.
func (c *Controller) target(h ecs.Handle) (pos geom.Vec2, ok bool) {
	if _, searches := c.searches.Get(h); searches {
		return c.searchTarget(h)
	}
	p := c.w.Player()
	if p.IsZero() || c.w.Dying(p) {
		return pos, false
	}
	obj, ok := c.w.Objects.Get(p)
	if !ok || obj.State != world.StateAlive {
		return pos, false
	}
	return obj.Pos, true
}

func (c *Controller) decide(b *Behavior, ctx *Context) (Action, time.Duration) {
	in := scripting.AIInput{
		Action:           b.State.Action.String(),
		HP:               ctx.Obj.HP,
		MaxHP:            ctx.Config.HP,
		HasTarget:        ctx.HasTarget,
		ChaseProbability: b.State.Config.ChaseProbability,
		Roll:             ctx.Rand.Float64(),
	}
	if ctx.HasTarget {
		in.TargetDist = ctx.Target.Dist(ctx.Obj.Pos)
	}
	d, err := c.decider.DecideAction(b.Script, in)
	if err != nil {
		c.log.Warn("ai script failed, using coin flip", zap.Stringer("entity", ctx.Handle), zap.Error(err))
		if in.Roll < in.ChaseProbability {
			return ActionChase, 0
		}
		return ActionShoot, 0
	}
	if d.Action == scripting.ActionShoot {
		return ActionShoot, clock.Seconds(d.Duration)
	}
	return ActionChase, clock.Seconds(d.Duration)
}

// Collided tells the AI that h's move was blocked. A chasing bot stops
// until its next redirect.
func (c *Controller) Collided(h ecs.Handle, obj *world.GameObj) {
	b, ok := c.behaviors.Get(h)
	if !ok {
		return
	}
	obj.Speed = 0
	if b.State.Action == ActionChase {
		b.State.Stuck = true
	}
}
