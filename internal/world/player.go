package world

import (
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/geom"
)

// PlayerControl holds the movement target set by a destination intent.
type PlayerControl struct {
	Destination    geom.Vec2
	HasDestination bool
}

// Control returns the player's movement target.
func (w *World) Control() *PlayerControl { return &w.control }

func (w *World) playerObj() (*GameObj, bool) {
	if w.player.IsZero() || w.Despawns.Contains(w.player) {
		return nil, false
	}
	obj, ok := w.Objects.Get(w.player)
	if !ok || obj.State != StateAlive {
		return nil, false
	}
	return obj, true
}

// SetPlayerDirection makes the player walk along dir at full speed.
// A zero dir stops it.
func (w *World) SetPlayerDirection(dir geom.Vec2) {
	obj, ok := w.playerObj()
	if !ok {
		return
	}
	w.control.HasDestination = false
	dir = dir.Normalize()
	if dir.IsZero() {
		obj.Speed = 0
		return
	}
	obj.Direction = dir
	obj.Speed = w.Catalog.Get(obj.ConfigRef).Speed
}

// SetPlayerDestination makes the player walk to pos and stop there.
func (w *World) SetPlayerDestination(pos geom.Vec2) {
	obj, ok := w.playerObj()
	if !ok {
		return
	}
	dir := pos.Sub(obj.Pos).Normalize()
	if dir.IsZero() {
		w.control.HasDestination = false
		obj.Speed = 0
		return
	}
	obj.Direction = dir
	obj.Speed = w.Catalog.Get(obj.ConfigRef).Speed
	w.control = PlayerControl{Destination: pos, HasDestination: true}
}

// RequestFire holds or releases the player's trigger.
func (w *World) RequestFire(on bool) {
	if _, ok := w.playerObj(); ok {
		w.SetTrigger(w.player, on)
	}
}

// RequestStop halts the player and drops any destination.
func (w *World) RequestStop() {
	w.control.HasDestination = false
	if obj, ok := w.playerObj(); ok {
		obj.Speed = 0
	}
}

// MoveTo sets obj's position and keeps its grid cell and screen position
// in step.
func (w *World) MoveTo(h ecs.Handle, obj *GameObj, pos geom.Vec2) {
	obj.Pos = pos
	obj.Cell = w.Grid.Relocate(h, obj.Cell, pos)
	obj.ScreenPos = w.View.ScreenPos(pos)
}
