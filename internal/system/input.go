package system

import (
	"time"

	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/net/packet"
	"go.uber.org/zap"
)

// InputSystem drains control commands queued since the last tick and
// dispatches them through the command registry. Phase 0 (Input).
type InputSystem struct {
	commands   <-chan packet.Command
	registry   *packet.Registry
	maxPerTick int
	log        *zap.Logger
}

// NewInputSystem reads from commands, which may be nil when no feed runs.
// maxPerTick <= 0 drains everything queued.
func NewInputSystem(commands <-chan packet.Command, registry *packet.Registry, maxPerTick int, log *zap.Logger) *InputSystem {
	return &InputSystem{
		commands:   commands,
		registry:   registry,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for n := 0; s.maxPerTick <= 0 || n < s.maxPerTick; n++ {
		select {
		case c, ok := <-s.commands:
			if !ok {
				return
			}
			if err := s.registry.Dispatch(c); err != nil {
				s.log.Warn("command failed", zap.String("op", string(c.Op)), zap.Error(err))
			}
		default:
			return
		}
	}
}
