// Package ai drives AI bots with a timer-based Chase/Shoot state machine
// and runs periodic enemy search for bots and homing missiles.
package ai

import (
	"math/rand"
	"sort"
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/world"
)

// Action is the current behavioral state of a bot.
type Action uint8

const (
	ActionChase Action = iota
	ActionShoot
)

func (a Action) String() string {
	if a == ActionShoot {
		return "shoot"
	}
	return "chase"
}

// RollAction picks the next action: Chase with probability p.
func RollAction(rng *rand.Rand, p float64) Action {
	if rng.Float64() < p {
		return ActionChase
	}
	return ActionShoot
}

// ChaseShoot is the state of one bot's Chase/Shoot machine. The action
// timer ends the current action; the redirect timer re-aims the bot while
// the action lasts.
type ChaseShoot struct {
	Config        *data.AIConfig
	Action        Action
	ActionTimer   clock.Timer
	RedirectTimer clock.Timer
	Stuck         bool // a collision zeroed the speed until the next redirect
	started       bool
}

func newChaseShoot(cfg *data.AIConfig) *ChaseShoot {
	return &ChaseShoot{Config: cfg}
}

// Behavior is the per-bot AI. Kind selects the variant; both variants share
// the Chase/Shoot timers and differ in how the next action is chosen.
type Behavior struct {
	Kind   data.AIKind
	State  *ChaseShoot
	Script string // Lua decision function for AIScripted
}

// Context is everything a behavior needs for one tick.
type Context struct {
	World     *world.World
	Handle    ecs.Handle
	Obj       *world.GameObj
	Config    *data.ObjectConfig
	Target    geom.Vec2
	HasTarget bool
	Dt        time.Duration
	Rand      *rand.Rand
	Decide    func(b *Behavior, ctx *Context) (Action, time.Duration) // nil = coin flip
}

// Run advances the behavior by one tick.
func (b *Behavior) Run(ctx *Context) {
	switch b.Kind {
	case data.AIChaseShoot, data.AIScripted:
		b.runChaseShoot(ctx)
	}
}

func (b *Behavior) next(ctx *Context) (Action, time.Duration) {
	if b.Kind == data.AIScripted && ctx.Decide != nil {
		return ctx.Decide(b, ctx)
	}
	return RollAction(ctx.Rand, b.State.Config.ChaseProbability), 0
}

func (b *Behavior) runChaseShoot(ctx *Context) {
	s := b.State
	if !s.started {
		s.started = true
		a, d := b.next(ctx)
		b.enter(ctx, a, d)
		return
	}

	if s.ActionTimer.Tick(ctx.Dt) {
		a, d := b.next(ctx)
		b.enter(ctx, a, d)
		return
	}

	if s.RedirectTimer.Tick(ctx.Dt) {
		if s.Action == ActionChase && s.Stuck {
			redirectCardinal(ctx)
			s.Stuck = false
			ctx.Obj.Speed = ctx.Config.Speed
			return
		}
		aim(ctx)
	}
}

// enter switches to action a for duration d (0 = configured), re-aims at
// once and restarts both timers.
func (b *Behavior) enter(ctx *Context, a Action, d time.Duration) {
	s := b.State
	cfg := s.Config
	s.Action = a
	s.Stuck = false

	redirect := cfg.ChaseRedirect
	if a == ActionShoot {
		redirect = cfg.ShootRedirect
		if d <= 0 {
			d = cfg.ShootDuration
		}
		ctx.Obj.Speed = 0
	} else {
		if d <= 0 {
			d = cfg.ChaseDuration
		}
		ctx.Obj.Speed = ctx.Config.Speed
	}
	s.ActionTimer = clock.NewTimer(d, clock.Once)
	s.RedirectTimer = clock.NewTimer(redirect, clock.Repeating)
	ctx.World.SetTrigger(ctx.Handle, a == ActionShoot)
	aim(ctx)
}

// aim turns the bot toward its target.
func aim(ctx *Context) {
	if !ctx.HasTarget {
		return
	}
	if dir := ctx.Target.Sub(ctx.Obj.Pos).Normalize(); !dir.IsZero() {
		ctx.Obj.Direction = dir
	}
}

var cardinals = [4]geom.Vec2{{X: 1, Y: 0}, {X: -1, Y: 0}, {X: 0, Y: 1}, {X: 0, Y: -1}}

// cardinalWeights apply to the cardinals sorted by how well they point at
// the target, worst first.
var cardinalWeights = [4]int{1, 1, 3, 5}

// redirectCardinal sends a blocked bot along a random axis direction,
// biased toward the target so it works its way around obstacles.
func redirectCardinal(ctx *Context) {
	to := ctx.Target.Sub(ctx.Obj.Pos)
	if !ctx.HasTarget {
		to = ctx.Obj.Direction
	}
	ctx.Obj.Direction = PickCardinal(ctx.Rand, to)
}

// PickCardinal draws one of the four axis directions with weights 1,1,3,5
// over the directions ordered by their dot product with to.
func PickCardinal(rng *rand.Rand, to geom.Vec2) geom.Vec2 {
	dirs := cardinals
	sort.SliceStable(dirs[:], func(i, j int) bool {
		return dirs[i].Dot(to) < dirs[j].Dot(to)
	})
	total := 0
	for _, w := range cardinalWeights {
		total += w
	}
	n := rng.Intn(total)
	for i, w := range cardinalWeights {
		if n < w {
			return dirs[i]
		}
		n -= w
	}
	return dirs[len(dirs)-1]
}
