package handler

import "github.com/arenashooter/arena/internal/net/packet"

// HandleFire holds the player's trigger while On is set.
func HandleFire(c packet.Command, deps *Deps) {
	deps.World.RequestFire(c.On)
}
