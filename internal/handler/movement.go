package handler

import (
	"math"

	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/net/packet"
	"go.uber.org/zap"
)

func finite(c packet.Command) bool {
	return !math.IsNaN(c.X) && !math.IsInf(c.X, 0) && !math.IsNaN(c.Y) && !math.IsInf(c.Y, 0)
}

// HandleDirection makes the player walk along (x, y); (0, 0) stops it.
func HandleDirection(c packet.Command, deps *Deps) {
	if !finite(c) {
		deps.Log.Warn("direction command with non-finite vector", zap.Float64("x", c.X), zap.Float64("y", c.Y))
		return
	}
	deps.World.SetPlayerDirection(geom.V(c.X, c.Y))
}

// HandleDestination makes the player walk to (x, y). Points outside the
// map are clamped to it.
func HandleDestination(c packet.Command, deps *Deps) {
	if !finite(c) {
		deps.Log.Warn("destination command with non-finite point", zap.Float64("x", c.X), zap.Float64("y", c.Y))
		return
	}
	g := deps.World.Grid
	p := geom.V(geom.Clamp(c.X, 0, g.Width()), geom.Clamp(c.Y, 0, g.Height()))
	deps.World.SetPlayerDestination(p)
}

func HandleStop(_ packet.Command, deps *Deps) {
	deps.World.RequestStop()
}
