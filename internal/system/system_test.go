package system

import (
	"testing"
	"time"

	"github.com/arenashooter/arena/internal/ai"
	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/core/event"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/arenashooter/arena/internal/handler"
	"github.com/arenashooter/arena/internal/net"
	"github.com/arenashooter/arena/internal/net/packet"
	"github.com/arenashooter/arena/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const objects = `
objects:
  - name: wall
    type: tile
    collide_span: 16
  - name: hero
    type: bot
    side: player
    collide_span: 10
    speed: 100
    hp: 15
    weapon:
      missile: bolt
      fire_interval: 0.25
  - name: turret
    type: bot
    side: ai
    collide_span: 10
    speed: 50
    hp: 100
    weapon:
      missile: spit
      fire_interval: 0.5
    ai:
      chase_probability: 0
      chase_duration: 1
      shoot_duration: 10
  - name: gunner
    type: bot
    side: ai
    collide_span: 10
    hp: 20
    weapon:
      missile: spit
      fire_interval: 0.1
      fire_points:
        - pos: [20, 0]
  - name: dummy
    type: bot
    side: ai
    collide_span: 10
    hp: 20
  - name: bolt
    type: missile
    side: player
    collide_span: 4
    speed: 500
    damage: 25
  - name: spit
    type: missile
    side: ai
    collide_span: 5
    speed: 400
    damage: 10
  - name: slug
    type: missile
    side: ai
    collide_span: 5
    speed: 300
`

const dt = 16 * time.Millisecond

type sim struct {
	w       *world.World
	runner  *coresys.Runner
	cmds    chan packet.Command
	out     *OutputSystem
	outcome *OutcomeSystem
}

func newSim(t *testing.T, rows, cols int, cell float64, opts world.Options, feed Broadcaster) *sim {
	t.Helper()
	cat, err := data.ParseCatalog([]byte(objects))
	require.NoError(t, err)
	log := zap.NewNop()
	w := world.New(cat, rows, cols, cell, opts, event.NewBus(), log)
	ctl := ai.NewController(w, nil, log)
	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{World: w, Log: log})

	s := &sim{
		w:       w,
		runner:  coresys.NewRunner(),
		cmds:    make(chan packet.Command, 16),
		out:     NewOutputSystem(w, feed, log),
		outcome: NewOutcomeSystem(w, log),
	}
	s.runner.Register(NewCleanupSystem(w))
	s.runner.Register(s.out)
	s.runner.Register(NewPlayoutSystem(w))
	s.runner.Register(NewMovementSystem(w, ctl))
	s.runner.Register(NewAISystem(w, ctl))
	s.runner.Register(NewEventSystem(w.Bus))
	s.runner.Register(s.outcome)
	s.runner.Register(NewInputSystem(s.cmds, reg, 0, log))
	return s
}

// smallSim is a fully visible 640x640 arena.
func smallSim(t *testing.T) *sim {
	return newSim(t, 20, 20, 32, world.Options{WindowWidth: 640, WindowHeight: 640}, nil)
}

func (s *sim) spawn(t *testing.T, name string, x, y float64) ecs.Handle {
	t.Helper()
	ref, err := s.w.Catalog.Ref(name)
	require.NoError(t, err)
	h, err := s.w.SpawnByConfig(ref, geom.V(x, y), geom.V(1, 0), nil)
	require.NoError(t, err)
	return h
}

func (s *sim) spawnPlayer(t *testing.T, x, y float64) ecs.Handle {
	t.Helper()
	h := s.spawn(t, "hero", x, y)
	s.w.SetPlayer(h)
	return h
}

// runUntilDone ticks until the match ends or max ticks pass.
func (s *sim) runUntilDone(t *testing.T, max int) event.MatchEnded {
	t.Helper()
	for i := 0; i < max; i++ {
		s.runner.Tick(dt)
		select {
		case ev := <-s.outcome.Done():
			return ev
		default:
		}
	}
	t.Fatalf("match still running after %d ticks", max)
	return event.MatchEnded{}
}

func TestMissileHitsMapEdge(t *testing.T) {
	s := smallSim(t)
	var gone []event.ObjectDespawned
	event.Subscribe(s.w.Bus, func(ev event.ObjectDespawned) { gone = append(gone, ev) })

	m := s.spawn(t, "slug", 638, 300)

	s.runner.Tick(dt)
	_, ok := s.w.Objects.Get(m)
	assert.False(t, ok, "removed at the end of the tick")
	assert.Zero(t, s.w.Objects.Len(), "no explosion configured")

	s.runner.Tick(dt)
	require.Len(t, gone, 1)
	assert.Equal(t, "slug", gone[0].ConfigName)
	assert.True(t, gone[0].Killed)
	assert.NoError(t, s.w.Verify())
}

func TestPlayerWalksToDestination(t *testing.T) {
	s := smallSim(t)
	h := s.spawnPlayer(t, 100, 100)
	s.cmds <- packet.Command{Op: packet.OpDestination, X: 150, Y: 100}

	for i := 0; i < 6; i++ {
		s.runner.Tick(100 * time.Millisecond)
	}
	obj, _ := s.w.Objects.Get(h)
	assert.InDelta(t, 150, obj.Pos.X, 1e-9)
	assert.InDelta(t, 100, obj.Pos.Y, 1e-9)
	assert.Zero(t, obj.Speed)
	assert.False(t, s.w.Control().HasDestination)
	assert.Equal(t, world.MapPos{Row: 3, Col: 4}, obj.Cell)
	assert.NoError(t, s.w.Verify())
}

func TestPlayerIsBlockedByWall(t *testing.T) {
	s := smallSim(t)
	h := s.spawnPlayer(t, 100, 100)
	s.spawn(t, "wall", 140, 100)
	s.cmds <- packet.Command{Op: packet.OpDirection, X: 1}

	for i := 0; i < 60; i++ {
		s.runner.Tick(dt)
	}
	obj, _ := s.w.Objects.Get(h)
	assert.InDelta(t, 114, obj.Pos.X, 1e-9, "stops at 140 - (16+10)")
	assert.Equal(t, 100.0, obj.Speed, "the player keeps pushing")
}

func TestTurretKillsPlayer(t *testing.T) {
	s := smallSim(t)
	hero := s.spawnPlayer(t, 300, 300)
	s.spawn(t, "turret", 100, 300)

	ev := s.runUntilDone(t, 500)
	assert.Equal(t, event.ResultFail, ev.Result)
	assert.Zero(t, ev.Kills)
	assert.Equal(t, s.outcome.Match(), ev.Match)
	assert.NotZero(t, ev.Ticks)
	assert.Equal(t, time.Duration(ev.Ticks)*dt, ev.Duration)

	assert.True(t, s.w.Player().IsZero())
	_, ok := s.w.Objects.Get(hero)
	assert.False(t, ok)
	assert.NoError(t, s.w.Verify())
}

func TestPlayerClearsArena(t *testing.T) {
	s := smallSim(t)
	s.spawnPlayer(t, 100, 100)
	dummy := s.spawn(t, "dummy", 300, 100)
	s.cmds <- packet.Command{Op: packet.OpFire, On: true}

	ev := s.runUntilDone(t, 500)
	assert.Equal(t, event.ResultWin, ev.Result)
	assert.Equal(t, 1, ev.Kills)
	assert.Equal(t, map[string]int{"dummy": 1}, ev.Victims)
	assert.Zero(t, s.w.AIBots())
	_, ok := s.w.Objects.Get(dummy)
	assert.False(t, ok)
}

func TestOutcomeWaitsForEvents(t *testing.T) {
	s := smallSim(t)
	s.spawnPlayer(t, 100, 100)

	for i := 0; i < 10; i++ {
		s.runner.Tick(dt)
	}
	assert.Empty(t, s.outcome.Done(), "no AI bot ever despawned")
}

type recorder struct {
	snaps []net.Snapshot
}

func (r *recorder) Broadcast(snap *net.Snapshot) error {
	c := *snap
	c.Objects = append([]net.ObjectView(nil), snap.Objects...)
	c.Released = append([]uint64(nil), snap.Released...)
	r.snaps = append(r.snaps, c)
	return nil
}

func TestSnapshots(t *testing.T) {
	rec := &recorder{}
	opts := world.Options{WindowWidth: 300, WindowHeight: 200, WindowExt: 50}
	s := newSim(t, 50, 100, 20, opts, rec)
	hero := s.spawnPlayer(t, 400, 300)
	near := s.spawn(t, "wall", 450, 300)
	s.spawn(t, "wall", 1500, 500)

	s.runner.Tick(dt)
	require.Len(t, rec.snaps, 1)
	first := rec.snaps[0]
	assert.Equal(t, uint64(1), first.Tick)
	assert.Equal(t, [2]float64{400, 300}, first.Origin)
	require.Len(t, first.Objects, 2, "offscreen objects are left out")
	ids := []uint64{first.Objects[0].ID, first.Objects[1].ID}
	assert.ElementsMatch(t, []uint64{uint64(hero), uint64(near)}, ids)
	for _, ov := range first.Objects {
		if ov.ID == uint64(near) {
			assert.Equal(t, "wall", ov.Config)
			assert.Equal(t, [2]float64{50, 0}, ov.ScreenPos)
			assert.Equal(t, "alive", ov.State)
			assert.True(t, ov.Visible)
		}
	}
	assert.Empty(t, first.Released)

	s.w.Despawn(near)
	s.runner.Tick(dt)
	assert.Len(t, rec.snaps[1].Objects, 2, "removed only by the flush after output")

	s.runner.Tick(dt)
	third := rec.snaps[2]
	assert.Equal(t, []uint64{uint64(near)}, third.Released)
	require.Len(t, third.Objects, 1)
	assert.Equal(t, uint64(hero), third.Objects[0].ID)

	s.runner.Tick(dt)
	assert.Empty(t, rec.snaps[3].Released)
}

type bumpRecorder struct{ hits []ecs.Handle }

func (b *bumpRecorder) Collided(h ecs.Handle, _ *world.GameObj) { b.hits = append(b.hits, h) }

func TestMovementReportsStaticContactsOnly(t *testing.T) {
	s := smallSim(t)
	rec := &bumpRecorder{}
	mv := NewMovementSystem(s.w, rec)
	s.spawnPlayer(t, 600, 600)
	pusher := s.spawn(t, "dummy", 100, 100)
	blocker := s.spawn(t, "dummy", 121, 100)
	walker := s.spawn(t, "dummy", 300, 300)
	s.spawn(t, "wall", 327, 300)
	for _, h := range []ecs.Handle{pusher, walker} {
		obj, _ := s.w.Objects.Get(h)
		obj.Speed = 100
	}

	mv.Update(dt)
	assert.Equal(t, []ecs.Handle{walker}, rec.hits, "bumping a bot keeps the intent")
	obj, _ := s.w.Objects.Get(pusher)
	other, _ := s.w.Objects.Get(blocker)
	assert.False(t, geom.BoxOverlap(obj.Pos, 10-1e-9, other.Pos, 10))
}

func TestOffscreenBotHoldsFire(t *testing.T) {
	// 300x200 window without margin: visible x is [250, 550] around the hero.
	s := newSim(t, 50, 100, 20, world.Options{WindowWidth: 300, WindowHeight: 200}, nil)
	s.spawnPlayer(t, 400, 300)
	hidden := s.spawn(t, "gunner", 240, 350)
	shown := s.spawn(t, "gunner", 300, 250)
	s.w.SetTrigger(hidden, true)
	s.w.SetTrigger(shown, true)
	s.w.Recenter(geom.V(400, 300))

	obj, _ := s.w.Objects.Get(hidden)
	require.False(t, obj.Active)
	require.True(t, s.w.View.CheckVisible(geom.V(260, 350)), "muzzle is on screen")

	spit, err := s.w.Catalog.Ref("spit")
	require.NoError(t, err)
	fired := 0
	for i := 0; i < 30; i++ {
		s.runner.Tick(dt)
		s.w.Objects.Each(func(_ ecs.Handle, o *world.GameObj) {
			if o.ConfigRef != spit {
				return
			}
			assert.NotEqual(t, 350.0, o.Pos.Y, "missile from the offscreen bot")
			fired++
		})
	}
	assert.Positive(t, fired, "the visible bot keeps shooting")
}

func TestInputSystemLimit(t *testing.T) {
	cmds := make(chan packet.Command, 4)
	reg := packet.NewRegistry(zap.NewNop())
	n := 0
	reg.Register(packet.OpStop, func(packet.Command) { n++ })
	in := NewInputSystem(cmds, reg, 2, zap.NewNop())

	for i := 0; i < 3; i++ {
		cmds <- packet.Command{Op: packet.OpStop}
	}
	in.Update(dt)
	assert.Equal(t, 2, n)
	assert.Len(t, cmds, 1)
	in.Update(dt)
	assert.Equal(t, 3, n)

	close(cmds)
	in.Update(dt)
	NewInputSystem(nil, reg, 0, zap.NewNop()).Update(dt)
}
