package system

import (
	"time"

	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/world"
)

// CleanupSystem flushes the deferred despawns and spawns at tick end.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.World
}

func NewCleanupSystem(w *world.World) *CleanupSystem {
	return &CleanupSystem{world: w}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.world.Flush()
}
