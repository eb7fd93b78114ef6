package world

import (
	"testing"
	"time"

	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/core/event"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testObjects = `
objects:
  - name: wall
    type: tile
    collide_span: 16
  - name: hero
    type: bot
    side: player
    collide_span: 10
    speed: 100
    hp: 50
    weapon:
      missile: hero_shot
      fire_interval: 0.5
      fire_points:
        - pos: [12, 0]
          direction: [1, 0]
  - name: grunt
    type: bot
    side: ai
    collide_span: 10
    speed: 50
    hp: 20
    phaseout: 0.5
    explosion: boom
  - name: hero_shot
    type: missile
    side: player
    collide_span: 5
    speed: 300
    damage: 10
  - name: boom
    type: effect
    side: ai
    lifetime: 0.2
`

func testCatalog(t *testing.T) *data.Catalog {
	t.Helper()
	cat, err := data.ParseCatalog([]byte(testObjects))
	require.NoError(t, err)
	return cat
}

// smallWorld is 640x640 with the whole map visible.
func smallWorld(t *testing.T) *World {
	t.Helper()
	opts := Options{WindowWidth: 640, WindowHeight: 640}
	return New(testCatalog(t), 20, 20, 32, opts, event.NewBus(), zap.NewNop())
}

// bigWorld is 2000x1000 with 20-unit cells and a 300x200 window plus 50 of
// margin, so the visible span is (200, 150).
func bigWorld(t *testing.T) *World {
	t.Helper()
	opts := Options{WindowWidth: 300, WindowHeight: 200, WindowExt: 50}
	return New(testCatalog(t), 50, 100, 20, opts, event.NewBus(), zap.NewNop())
}

func mustRef(t *testing.T, w *World, name string) int {
	t.Helper()
	ref, err := w.Catalog.Ref(name)
	require.NoError(t, err)
	return ref
}

func spawn(t *testing.T, w *World, name string, x, y float64) ecs.Handle {
	t.Helper()
	zero := 0.0
	h, err := w.SpawnByConfig(mustRef(t, w, name), geom.V(x, y), geom.V(1, 0), &zero)
	require.NoError(t, err)
	return h
}

func collectDespawns(w *World) *[]event.ObjectDespawned {
	var got []event.ObjectDespawned
	event.Subscribe(w.Bus, func(ev event.ObjectDespawned) { got = append(got, ev) })
	return &got
}

func deliver(w *World) {
	w.Bus.SwapBuffers()
	w.Bus.DispatchAll()
}

func TestSpawnByConfig(t *testing.T) {
	w := smallWorld(t)
	h, err := w.SpawnByConfig(mustRef(t, w, "hero"), geom.V(100, 200), geom.V(0, 2), nil)
	require.NoError(t, err)

	obj, ok := w.Objects.Get(h)
	require.True(t, ok)
	assert.Equal(t, data.TypeBot, obj.Type)
	assert.Equal(t, data.SidePlayer, obj.Side)
	assert.Equal(t, geom.V(0, 1), obj.Direction)
	assert.Zero(t, obj.Speed, "bots start at rest")
	assert.Equal(t, 50.0, obj.HP)
	assert.True(t, obj.Mortal)
	assert.True(t, obj.Visible)
	assert.Equal(t, MapPos{Row: 6, Col: 3}, obj.Cell)
	assert.True(t, w.Weapons.Has(h))

	shot, err := w.SpawnByConfig(mustRef(t, w, "hero_shot"), geom.V(300, 300), geom.V(1, 0), nil)
	require.NoError(t, err)
	m, _ := w.Objects.Get(shot)
	assert.Equal(t, 300.0, m.Speed, "missiles default to their config speed")
	assert.NoError(t, w.Verify())
}

func TestSpawnErrors(t *testing.T) {
	w := smallWorld(t)

	_, err := w.SpawnByConfig(99, geom.V(100, 100), geom.V(1, 0), nil)
	assert.ErrorIs(t, err, ErrUnknownConfig)

	wall := mustRef(t, w, "wall")
	for _, pos := range []geom.Vec2{
		geom.V(640, 100), // x == width
		geom.V(-0.5, 100),
		geom.V(100, -1),
		geom.V(100, 640),
	} {
		_, err := w.SpawnByConfig(wall, pos, geom.V(1, 0), nil)
		assert.ErrorIs(t, err, ErrOutOfBounds, "pos %v", pos)
	}

	// Only the center has to be on the map; the body may overhang an edge.
	for _, pos := range []geom.Vec2{
		geom.V(0, 0),
		geom.V(15, 100),
		geom.V(624, 100),
		geom.V(639.9, 639.9),
	} {
		_, err := w.SpawnByConfig(wall, pos, geom.V(1, 0), nil)
		assert.NoError(t, err, "pos %v", pos)
	}
	assert.Equal(t, 4, w.Objects.Len())
}

func TestDespawnSetIdempotent(t *testing.T) {
	d := NewDespawnSet()
	h := ecs.NewHandle(3, 1)
	assert.True(t, d.Insert(h))
	assert.False(t, d.Insert(h))
	assert.Equal(t, 1, d.Len())
	assert.True(t, d.Contains(h))
}

func TestFlushDespawnsBeforeSpawns(t *testing.T) {
	w := smallWorld(t)
	got := collectDespawns(w)
	shot := spawn(t, w, "hero_shot", 200, 200)

	w.Despawn(shot)
	w.Despawn(shot)
	w.Spawn(NewObjRequest{ConfigRef: mustRef(t, w, "boom"), Pos: geom.V(200, 200)})
	w.Flush()

	_, ok := w.Objects.Get(shot)
	assert.False(t, ok, "stale handle no longer resolves")
	require.Equal(t, 1, w.Objects.Len())

	var boom ecs.Handle
	w.Objects.Each(func(h ecs.Handle, _ *GameObj) { boom = h })
	assert.Equal(t, shot.Index(), boom.Index(), "slot freed by the despawn is reused")
	assert.Equal(t, shot.Generation()+1, boom.Generation())
	assert.Equal(t, 0, w.Despawns.Len())
	assert.Equal(t, 0, w.NewObjs.Len())
	assert.NoError(t, w.Verify())

	deliver(w)
	require.Len(t, *got, 1)
	assert.Equal(t, "hero_shot", (*got)[0].ConfigName)
	assert.False(t, (*got)[0].Killed)
}

func TestFlushDropsOutOfBoundsSpawn(t *testing.T) {
	w := smallWorld(t)
	w.Spawn(NewObjRequest{ConfigRef: mustRef(t, w, "wall"), Pos: geom.V(-50, 10)})
	w.Spawn(NewObjRequest{ConfigRef: mustRef(t, w, "wall"), Pos: geom.V(50, 50)})
	w.Flush()
	assert.Equal(t, 1, w.Objects.Len())
}

func TestDespawnMissingHandleIsSkipped(t *testing.T) {
	w := smallWorld(t)
	w.Despawn(ecs.NewHandle(42, 7))
	assert.NotPanics(t, w.Flush)
	assert.Equal(t, 0, w.Despawns.Len())
}

func TestKillMissileWithoutExplosion(t *testing.T) {
	w := smallWorld(t)
	shot := spawn(t, w, "hero_shot", 300, 300)

	w.Kill(shot)
	assert.True(t, w.Dying(shot))
	assert.Equal(t, 0, w.NewObjs.Len())

	w.Kill(shot)
	assert.Equal(t, 1, w.Despawns.Len())
}

func TestMissileKillDamagesOpposingBots(t *testing.T) {
	w := smallWorld(t)
	grunt := spawn(t, w, "grunt", 300, 300)
	hero := spawn(t, w, "hero", 310, 300)
	shot := spawn(t, w, "hero_shot", 305, 300)

	w.Kill(shot)
	g, _ := w.Objects.Get(grunt)
	assert.Equal(t, 10.0, g.HP)
	hObj, _ := w.Objects.Get(hero)
	assert.Equal(t, 50.0, hObj.HP, "same side is not damaged")
}

func TestKillAtUsesTheCollisionPoint(t *testing.T) {
	w := smallWorld(t)
	grunt := spawn(t, w, "grunt", 400, 300)
	shot := spawn(t, w, "hero_shot", 300, 300)

	w.KillAt(shot, geom.V(392, 300))
	obj, _ := w.Objects.Get(shot)
	assert.Equal(t, geom.V(300, 300), obj.Pos, "the missile does not move")
	g, _ := w.Objects.Get(grunt)
	assert.Equal(t, 10.0, g.HP, "splash centered on the collision point")

	w.Kill(shot)
	assert.Equal(t, 10.0, g.HP, "dying objects are not killed twice")
}

func TestExplosionAgainstMapCorner(t *testing.T) {
	w := smallWorld(t)
	grunt := spawn(t, w, "grunt", 10, 10)
	w.Kill(grunt)
	w.Flush()

	boom := mustRef(t, w, "boom")
	var found bool
	w.Objects.Each(func(_ ecs.Handle, obj *GameObj) {
		if obj.ConfigRef == boom {
			found = true
			assert.Equal(t, geom.V(10, 10), obj.Pos)
		}
	})
	assert.True(t, found, "explosion spawned where the bot died")
	assert.NoError(t, w.Verify())
}

func TestPhaseoutThenRemoval(t *testing.T) {
	w := smallWorld(t)
	got := collectDespawns(w)
	grunt := spawn(t, w, "grunt", 300, 300)
	require.Equal(t, 1, w.AIBots())

	assert.False(t, w.ApplyDamage(grunt, 5))
	assert.True(t, w.ApplyDamage(grunt, 15))
	obj, _ := w.Objects.Get(grunt)
	assert.Equal(t, StatePhaseout, obj.State)
	assert.False(t, obj.Active)
	assert.False(t, w.Dying(grunt), "phasing out bots stay until the timer ends")
	assert.Equal(t, 1, w.NewObjs.Len(), "explosion queued")
	assert.False(t, w.ApplyDamage(grunt, 100), "no damage during phaseout")

	w.UpdatePlayouts(300 * time.Millisecond)
	assert.InDelta(t, 0.4, obj.Alpha, 1e-9)
	assert.False(t, w.Dying(grunt))

	w.UpdatePlayouts(300 * time.Millisecond)
	assert.True(t, w.Dying(grunt))

	w.Flush()
	assert.Equal(t, 0, w.AIBots())
	assert.Equal(t, 1, w.Objects.Len(), "only the explosion is left")
	assert.Equal(t, 1, w.Playouts.Len(), "explosion lifetime")

	deliver(w)
	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Killed)
	assert.True(t, (*got)[0].AIBot)
}

func TestEffectLifetime(t *testing.T) {
	w := smallWorld(t)
	boom := spawn(t, w, "boom", 100, 100)
	w.UpdatePlayouts(100 * time.Millisecond)
	assert.False(t, w.Dying(boom))
	w.UpdatePlayouts(100 * time.Millisecond)
	assert.True(t, w.Dying(boom))
}

func TestWeaponFire(t *testing.T) {
	w := smallWorld(t)
	hero := spawn(t, w, "hero", 100, 100)
	obj, _ := w.Objects.Get(hero)
	obj.Direction = geom.V(0, 1)
	obj.Speed = 20

	assert.Equal(t, 0, w.UpdateWeapon(hero, 16*time.Millisecond), "trigger released")
	w.SetTrigger(hero, true)
	require.Equal(t, 1, w.UpdateWeapon(hero, 16*time.Millisecond))

	req := w.NewObjs.reqs[0]
	assert.True(t, req.Pos.Near(geom.V(100, 112), 1e-9), "fire point rotated into the shooter frame")
	assert.True(t, req.Direction.Near(geom.V(0, 1), 1e-9))
	require.NotNil(t, req.Speed)
	assert.InDelta(t, 320.0, *req.Speed, 1e-9, "shooter velocity is added")

	assert.Equal(t, 0, w.UpdateWeapon(hero, 100*time.Millisecond))
	assert.Equal(t, 1, w.UpdateWeapon(hero, 400*time.Millisecond))
}

func TestWeaponSpawnOutsideViewIsDropped(t *testing.T) {
	w := bigWorld(t)
	w.View.SetOrigin(geom.V(400, 300))
	hero := spawn(t, w, "hero", 595, 300)
	w.SetTrigger(hero, true)
	assert.Equal(t, 0, w.UpdateWeapon(hero, time.Millisecond))
	assert.Equal(t, 0, w.NewObjs.Len())
}

func TestPlayerIntents(t *testing.T) {
	w := smallWorld(t)
	hero := spawn(t, w, "hero", 100, 100)
	w.SetPlayer(hero)
	obj, _ := w.Objects.Get(hero)

	w.SetPlayerDirection(geom.V(3, 4))
	assert.True(t, obj.Direction.Near(geom.V(0.6, 0.8), 1e-12))
	assert.Equal(t, 100.0, obj.Speed)

	w.RequestStop()
	assert.Zero(t, obj.Speed)

	w.SetPlayerDestination(geom.V(100, 300))
	assert.Equal(t, geom.V(0, 1), obj.Direction)
	assert.True(t, w.Control().HasDestination)
	w.SetPlayerDirection(geom.V(-1, 0))
	assert.False(t, w.Control().HasDestination)

	w.RequestFire(true)
	wp, _ := w.Weapons.Get(hero)
	assert.True(t, wp.Trigger)
}

func TestPlayerDespawnClearsHandle(t *testing.T) {
	w := smallWorld(t)
	got := collectDespawns(w)
	hero := spawn(t, w, "hero", 100, 100)
	w.SetPlayer(hero)

	w.Kill(hero)
	w.Flush()
	assert.True(t, w.Player().IsZero())
	w.SetPlayerDirection(geom.V(1, 0))

	deliver(w)
	require.Len(t, *got, 1)
	assert.True(t, (*got)[0].Player)
}

func TestLoad(t *testing.T) {
	m, err := data.ParseMap([]byte(`
name: test
rows: 20
cols: 20
cell_size: 32
player:
  config: hero
  pos: [100, 100]
objects:
  - config: wall
    pos: [200, 200]
  - config: grunt
    pos: [400, 400]
    direction: [0, -1]
`))
	require.NoError(t, err)
	opts := Options{WindowWidth: 300, WindowHeight: 200, WindowExt: 50}
	w, err := Load(m, testCatalog(t), opts, event.NewBus(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, w.Objects.Len())
	assert.Equal(t, 1, w.AIBots())
	assert.False(t, w.Player().IsZero())
	assert.Equal(t, geom.V(150, 100), w.View.Origin(), "origin clamped to half the window")
	p, _ := w.Objects.Get(w.Player())
	assert.True(t, p.Active)
	assert.NoError(t, w.Verify())
}

func TestLoadReportsEveryBadPlacement(t *testing.T) {
	m := &data.MapFile{
		Name: "bad", Rows: 10, Cols: 10, CellSize: 32,
		Player: data.Placement{Config: "hero", Pos: [2]float64{100, 100}},
		Objects: []data.Placement{
			{Config: "dragon", Pos: [2]float64{50, 50}},
			{Config: "wall", Pos: [2]float64{5000, 50}},
		},
	}
	_, err := Load(m, testCatalog(t), Options{WindowWidth: 100, WindowHeight: 100}, event.NewBus(), zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfig)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}
