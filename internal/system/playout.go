package system

import (
	"time"

	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/world"
)

// PlayoutSystem advances effect lifetimes and phaseout fades.
// Phase 4 (PostUpdate).
type PlayoutSystem struct {
	world *world.World
}

func NewPlayoutSystem(w *world.World) *PlayoutSystem {
	return &PlayoutSystem{world: w}
}

func (s *PlayoutSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *PlayoutSystem) Update(dt time.Duration) {
	s.world.UpdatePlayouts(dt)
}
