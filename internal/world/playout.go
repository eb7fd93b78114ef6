package world

import (
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/core/ecs"
)

// PlayoutKind says what happens while a playout timer runs.
type PlayoutKind uint8

const (
	PlayoutExpire   PlayoutKind = iota // effect lives until the timer ends
	PlayoutPhaseout                    // dying bot fades out
)

// Playout removes its object when the timer ends.
type Playout struct {
	Kind  PlayoutKind
	Timer clock.Timer
}

func newPlayout(kind PlayoutKind, d time.Duration) *Playout {
	return &Playout{Kind: kind, Timer: clock.NewTimer(d, clock.Once)}
}

// UpdatePlayouts advances every playout timer, fades phasing-out bots and
// schedules the removal of objects whose timer finished.
func (w *World) UpdatePlayouts(dt time.Duration) {
	ecs.Each2(w.Playouts, w.Objects.objs, func(h ecs.Handle, p *Playout, obj *GameObj) {
		if w.Despawns.Contains(h) {
			return
		}
		done := p.Timer.Tick(dt)
		if p.Kind == PlayoutPhaseout {
			obj.Alpha = 1 - p.Timer.Fraction()
		}
		if done {
			w.Despawn(h)
		}
	})
}
