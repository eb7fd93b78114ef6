package world

import (
	"time"

	"github.com/arenashooter/arena/internal/core/clock"
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/data"
)

// Weapon is the per-bot firing state. Trigger is held by the player's fire
// intent or by an AI bot in Shoot.
type Weapon struct {
	Config  *data.WeaponConfig
	Timer   clock.Timer
	Trigger bool
}

func newWeapon(cfg *data.WeaponConfig) *Weapon {
	t := clock.NewTimer(cfg.FireInterval, clock.Once)
	t.Tick(cfg.FireInterval) // first shot is immediate
	return &Weapon{Config: cfg, Timer: t}
}

// UpdateWeapon advances the fire timer of h and fires when the trigger is
// held and the weapon is ready. It returns the number of missiles queued.
func (w *World) UpdateWeapon(h ecs.Handle, dt time.Duration) int {
	wp, ok := w.Weapons.Get(h)
	if !ok {
		return 0
	}
	if !wp.Timer.Tick(dt) || !wp.Trigger {
		return 0
	}
	obj, ok := w.Objects.Get(h)
	if !ok || obj.State != StateAlive || w.Despawns.Contains(h) {
		return 0
	}
	// Off-screen AI bots hold fire until they become active again.
	if h != w.player && !obj.Active {
		return 0
	}
	wp.Timer.Reset()
	return w.fire(obj, wp.Config)
}

// fire queues one missile per fire point. Fire points are given in the
// shooter's frame and rotated by its direction; the shooter's own velocity
// is added to the missile's. Spawns outside the view are dropped.
func (w *World) fire(obj *GameObj, cfg *data.WeaponConfig) int {
	missile := w.Catalog.Get(cfg.MissileRef)
	if missile == nil {
		return 0
	}
	n := 0
	for _, fp := range cfg.FirePoints {
		pos := obj.Pos.Add(obj.Direction.Rotate(fp.Pos))
		if !w.View.CheckVisible(pos) {
			continue
		}
		vel := obj.Direction.Rotate(fp.Direction).Scale(missile.Speed).
			Add(obj.Direction.Scale(obj.Speed))
		speed := vel.Len()
		w.Spawn(NewObjRequest{
			ConfigRef: cfg.MissileRef,
			Pos:       pos,
			Direction: vel.Normalize(),
			Speed:     &speed,
		})
		n++
	}
	return n
}

// SetTrigger holds or releases the trigger of h's weapon.
func (w *World) SetTrigger(h ecs.Handle, on bool) {
	if wp, ok := w.Weapons.Get(h); ok {
		wp.Trigger = on
	}
}
