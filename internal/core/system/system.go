package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: apply queued player intents
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseAI                      // 2: AI decisions, target search, weapon fire
	PhaseUpdate                  // 3: movement and collision resolution
	PhasePostUpdate              // 4: timers, playout, viewport culling
	PhaseOutput                  // 5: build + broadcast snapshots
	PhaseCleanup                 // 6: lifecycle flush (despawn, then spawn)
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseAI:
		return "ai"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhaseCleanup:
		return "cleanup"
	}
	return "unknown"
}

// System is the interface every simulation system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
