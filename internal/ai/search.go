package ai

import (
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/world"
)

// Search is the enemy search state of a bot or homing missile.
type Search struct {
	Config  *data.SearchConfig
	Timer   clock.Timer
	Target  ecs.Handle // zero = none
	started bool
}

func newSearch(cfg *data.SearchConfig) *Search {
	return &Search{Config: cfg, Timer: clock.NewTimer(cfg.Interval, clock.Repeating)}
}

// targetAlive reports whether the current target can still be chased.
func (c *Controller) targetAlive(s *Search) bool {
	if s.Target.IsZero() || c.w.Dying(s.Target) {
		return false
	}
	obj, ok := c.w.Objects.Get(s.Target)
	return ok && obj.State == world.StateAlive
}

// runSearch picks a new target for the searcher uniformly among the
// opposing, accepted, living objects within the search radius.
func (c *Controller) runSearch(h ecs.Handle, self *world.GameObj, s *Search) {
	radius := s.Config.Radius
	c.candidates = c.candidates[:0]
	region := c.w.Grid.RegionForRect(world.Rect(self.Pos, radius))
	c.w.Grid.ForEachInRegion(region, func(o ecs.Handle) bool {
		if o == h || c.w.Dying(o) {
			return true
		}
		obj, ok := c.w.Objects.Get(o)
		if !ok || obj.State != world.StateAlive {
			return true
		}
		if !self.Side.Opposes(obj.Side) || !s.Config.Accepts(obj.Type) {
			return true
		}
		if obj.Pos.Dist(self.Pos) <= radius {
			c.candidates = append(c.candidates, o)
		}
		return true
	})

	s.Target = 0
	if len(c.candidates) > 0 {
		s.Target = c.candidates[c.w.Rand.Intn(len(c.candidates))]
	}
}

// updateSearch refreshes the target of h: immediately when it has none
// alive or on first use, otherwise whenever the interval elapses.
func (c *Controller) updateSearch(h ecs.Handle, obj *world.GameObj, s *Search, dt time.Duration) {
	due := s.Timer.Tick(dt)
	switch {
	case !s.started:
		s.started = true
		c.runSearch(h, obj, s)
	case !s.Target.IsZero() && !c.targetAlive(s):
		c.runSearch(h, obj, s)
	case due:
		c.runSearch(h, obj, s)
	}
}

// searchTarget returns the position of h's searched target, if any.
func (c *Controller) searchTarget(h ecs.Handle) (geom.Vec2, bool) {
	s, ok := c.searches.Get(h)
	if !ok || !c.targetAlive(s) {
		return geom.Vec2{}, false
	}
	obj, _ := c.w.Objects.Get(s.Target)
	return obj.Pos, true
}
