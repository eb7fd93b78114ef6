package system

import (
	"time"

	"github.com/arenashooter/arena/internal/ai"
	"github.com/arenashooter/arena/internal/core/ecs"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/world"
)

// AISystem runs target search, bot decisions and weapon timers. Phase 2 (AI).
type AISystem struct {
	world  *world.World
	ai     *ai.Controller
	dt     time.Duration
	fireFn func(ecs.Handle, *world.Weapon)
}

func NewAISystem(w *world.World, c *ai.Controller) *AISystem {
	s := &AISystem{world: w, ai: c}
	s.fireFn = s.fire
	return s
}

func (s *AISystem) Phase() coresys.Phase { return coresys.PhaseAI }

func (s *AISystem) Update(dt time.Duration) {
	s.ai.UpdateSearch(dt)
	s.ai.Update(dt)
	s.dt = dt
	s.world.Weapons.Each(s.fireFn)
}

func (s *AISystem) fire(h ecs.Handle, _ *world.Weapon) {
	s.world.UpdateWeapon(h, s.dt)
}
