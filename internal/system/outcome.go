package system

import (
	"time"

	"github.com/arenashooter/arena/internal/core/event"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/world"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutcomeSystem decides when the match is over: lost when the player is
// removed, won when the last AI bot is. It learns about removals from the
// ObjectDespawned events delivered this tick, so it must be registered
// after the EventSystem. Phase 1 (PreUpdate).
type OutcomeSystem struct {
	world   *world.World
	match   uuid.UUID
	ticks   uint64 // completed ticks
	elapsed time.Duration
	kills   int
	victims map[string]int

	playerGone  bool
	botsCleared bool
	ended       bool
	done        chan event.MatchEnded

	log *zap.Logger
}

func NewOutcomeSystem(w *world.World, log *zap.Logger) *OutcomeSystem {
	s := &OutcomeSystem{
		world:   w,
		match:   uuid.New(),
		victims: make(map[string]int),
		done:    make(chan event.MatchEnded, 1),
		log:     log,
	}
	event.Subscribe(w.Bus, s.onDespawn)
	return s
}

func (s *OutcomeSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

// Match returns the id of the running match.
func (s *OutcomeSystem) Match() uuid.UUID { return s.match }

// Kills returns the number of AI bots killed so far.
func (s *OutcomeSystem) Kills() int { return s.kills }

// Done delivers the result once the match ends.
func (s *OutcomeSystem) Done() <-chan event.MatchEnded { return s.done }

func (s *OutcomeSystem) onDespawn(ev event.ObjectDespawned) {
	if ev.AIBot && ev.Killed {
		s.kills++
		s.victims[ev.ConfigName]++
	}
	if ev.Player {
		s.playerGone = true
	}
	if ev.AIBot && s.world.AIBots() == 0 {
		s.botsCleared = true
	}
}

func (s *OutcomeSystem) Update(dt time.Duration) {
	defer func() {
		s.ticks++
		s.elapsed += dt
	}()
	if s.ended {
		return
	}

	var result event.Result
	switch {
	case s.playerGone:
		result = event.ResultFail
	case s.botsCleared:
		result = event.ResultWin
	default:
		return
	}
	s.ended = true

	ev := event.MatchEnded{
		Match:    s.match,
		Map:      s.world.MapName,
		Result:   result,
		Ticks:    s.ticks,
		Duration: s.elapsed,
		Kills:    s.kills,
		Victims:  s.victims,
	}
	s.log.Info("match ended",
		zap.String("match", s.match.String()),
		zap.String("result", string(result)),
		zap.Uint64("ticks", s.ticks),
		zap.Duration("duration", s.elapsed),
		zap.Int("kills", s.kills),
	)
	event.Emit(s.world.Bus, ev)
	s.done <- ev
}
