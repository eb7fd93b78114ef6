package main

import (
	"context"
	"testing"
	"time"

	"github.com/arenashooter/arena/internal/config"
	"github.com/arenashooter/arena/internal/core/event"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/scripting"
	"github.com/arenashooter/arena/internal/system"
	"github.com/arenashooter/arena/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const objects = `
objects:
  - name: hero
    type: bot
    side: player
    collide_span: 10
    speed: 100
    hp: 10
  - name: grunt
    type: bot
    side: ai
    collide_span: 10
    hp: 10
  - name: thinker
    type: bot
    side: ai
    collide_span: 10
    ai:
      kind: scripted
      script: think
      chase_duration: 1
      shoot_duration: 1
  - name: dreamer
    type: bot
    side: ai
    collide_span: 10
    ai:
      kind: scripted
      script: dream
      chase_duration: 1
      shoot_duration: 1
`

func TestCheckScripts(t *testing.T) {
	cat, err := data.ParseCatalog([]byte(objects))
	require.NoError(t, err)

	engine, err := scripting.NewEngineFromSource(`function think(ctx) return { action = CHASE } end`, zap.NewNop())
	require.NoError(t, err)
	defer engine.Close()

	err = checkScripts(cat, engine)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.ErrorIs(t, err, scripting.ErrNoFunction)
	assert.Contains(t, err.Error(), "dreamer")

	both, err := scripting.NewEngineFromSource(`
function think(ctx) return { action = CHASE } end
function dream(ctx) return { action = SHOOT } end
`, zap.NewNop())
	require.NoError(t, err)
	defer both.Close()
	assert.NoError(t, checkScripts(cat, both))
}

type loopFixture struct {
	w       *world.World
	runner  *coresys.Runner
	outcome *system.OutcomeSystem
	grunt   int
}

func newLoop(t *testing.T) *loopFixture {
	t.Helper()
	cat, err := data.ParseCatalog([]byte(objects))
	require.NoError(t, err)
	log := zap.NewNop()
	w := world.New(cat, 10, 10, 32, world.Options{WindowWidth: 320, WindowHeight: 320}, event.NewBus(), log)

	hero, err := cat.Ref("hero")
	require.NoError(t, err)
	h, err := w.SpawnByConfig(hero, geom.V(50, 50), geom.V(1, 0), nil)
	require.NoError(t, err)
	w.SetPlayer(h)

	grunt, err := cat.Ref("grunt")
	require.NoError(t, err)

	f := &loopFixture{
		w:       w,
		runner:  coresys.NewRunner(),
		outcome: system.NewOutcomeSystem(w, log),
		grunt:   grunt,
	}
	f.runner.Register(system.NewEventSystem(w.Bus))
	f.runner.Register(f.outcome)
	f.runner.Register(system.NewCleanupSystem(w))
	return f
}

func TestGameLoopStopsAtMaxTicks(t *testing.T) {
	f := newLoop(t)
	_, err := f.w.SpawnByConfig(f.grunt, geom.V(200, 200), geom.V(1, 0), nil)
	require.NoError(t, err)

	cfg := config.SimConfig{TickRate: config.Duration{Duration: time.Millisecond}, MaxTicks: 3}
	require.NoError(t, gameLoop(context.Background(), f.runner, f.outcome, nil, cfg, zap.NewNop()))
	assert.Equal(t, uint64(3), f.runner.Ticks())
}

func TestGameLoopStopsWhenMatchEnds(t *testing.T) {
	f := newLoop(t)
	g, err := f.w.SpawnByConfig(f.grunt, geom.V(200, 200), geom.V(1, 0), nil)
	require.NoError(t, err)
	f.w.Kill(g)

	cfg := config.SimConfig{TickRate: config.Duration{Duration: time.Millisecond}, MaxTicks: 100}
	require.NoError(t, gameLoop(context.Background(), f.runner, f.outcome, nil, cfg, zap.NewNop()))
	assert.Equal(t, uint64(2), f.runner.Ticks(), "flush, then outcome on the next tick")
	assert.Equal(t, 1, f.outcome.Kills())
}

func TestGameLoopHonorsCancel(t *testing.T) {
	f := newLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := config.SimConfig{TickRate: config.Duration{Duration: time.Hour}}
	require.NoError(t, gameLoop(ctx, f.runner, f.outcome, nil, cfg, zap.NewNop()))
	assert.Zero(t, f.runner.Ticks())
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		log, err := newLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err, format)
		assert.True(t, log.Core().Enabled(zap.DebugLevel), format)
	}

	log, err := newLogger(config.LoggingConfig{Level: "bogus", Format: "console"})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel), "unknown levels fall back to info")
}
