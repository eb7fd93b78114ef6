// Package handler turns spectator control commands into player intents.
// Handlers run on the game loop, during the Input phase.
package handler

import (
	"github.com/arenashooter/arena/internal/net/packet"
	"github.com/arenashooter/arena/internal/world"
	"go.uber.org/zap"
)

// Deps holds shared dependencies injected into all command handlers.
type Deps struct {
	World *world.World
	Log   *zap.Logger
}

// RegisterAll registers every command handler into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.OpDirection, func(c packet.Command) {
		HandleDirection(c, deps)
	})
	reg.Register(packet.OpDestination, func(c packet.Command) {
		HandleDestination(c, deps)
	})
	reg.Register(packet.OpStop, func(c packet.Command) {
		HandleStop(c, deps)
	})
	reg.Register(packet.OpFire, func(c packet.Command) {
		HandleFire(c, deps)
	})
}
