package event

import (
	"time"

	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/google/uuid"
)

// ObjectDespawned is emitted by the lifecycle flush for every removed object.
type ObjectDespawned struct {
	Handle     ecs.Handle
	ConfigName string
	Player     bool // the player's own bot
	AIBot      bool // an AI-controlled bot
	Killed     bool // removed by damage rather than culling or expiry
}

// Result is the outcome of a match.
type Result string

const (
	ResultWin  Result = "win"
	ResultFail Result = "fail"
)

// MatchEnded is emitted once when the player dies or the last AI bot dies.
type MatchEnded struct {
	Match    uuid.UUID
	Map      string
	Result   Result
	Ticks    uint64
	Duration time.Duration
	Kills    int
	Victims  map[string]int // AI bots killed, by config name
}
