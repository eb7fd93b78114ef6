package world

import (
	"fmt"
	"math/rand"

	"github.com/arenashooter/arena/internal/core/ecs"
	"github.com/arenashooter/arena/internal/core/event"
	"github.com/arenashooter/arena/internal/data"
	"github.com/arenashooter/arena/internal/geom"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Attacher creates per-entity components for a freshly spawned object.
// Side stores it fills must be registered with World.Components so the
// lifecycle flush clears them.
type Attacher interface {
	Attach(h ecs.Handle, obj *GameObj, cfg *data.ObjectConfig)
}

// Releaser frees presentation resources held for a removed object.
type Releaser interface {
	Release(h ecs.Handle)
}

// Options sizes the world.
type Options struct {
	CellSize       float64 // used when the map does not set one
	WindowWidth    float64
	WindowHeight   float64
	WindowExt      float64
	MaxCollideSpan float64 // raised to the catalog's largest span
	Seed           int64
}

// World owns all simulation state: the grid, the object registry, the
// lifecycle queues and the viewport. Single-goroutine access only.
type World struct {
	Grid       *Grid
	Objects    *Registry
	NewObjs    *NewObjQueue
	Despawns   *DespawnSet
	View       *Viewport
	Catalog    *data.Catalog
	Components *ecs.Registry
	Bus        *event.Bus
	Rand       *rand.Rand

	Weapons  *ecs.Store[Weapon]
	Playouts *ecs.Store[Playout]

	MapName        string
	MaxCollideSpan float64

	player    ecs.Handle
	control   PlayerControl
	aiBots    int
	killed    map[ecs.Handle]struct{}
	attachers []Attacher
	releasers []Releaser

	// reusable query buffers
	regionBuf []MapRegion
	hitBuf    []ecs.Handle
	cullFn    func(ecs.Handle) bool

	log *zap.Logger
}

// New builds an empty world of rows x cols cells.
func New(cat *data.Catalog, rows, cols int, cellSize float64, opts Options, bus *event.Bus, log *zap.Logger) *World {
	grid := NewGrid(cellSize, rows, cols, log)
	w := &World{
		Grid:           grid,
		Objects:        NewRegistry(),
		NewObjs:        NewNewObjQueue(),
		Despawns:       NewDespawnSet(),
		View:           NewViewport(opts.WindowWidth, opts.WindowHeight, opts.WindowExt, grid.Width(), grid.Height()),
		Catalog:        cat,
		Components:     ecs.NewRegistry(),
		Bus:            bus,
		Rand:           rand.New(rand.NewSource(opts.Seed)),
		Weapons:        ecs.NewStore[Weapon](),
		Playouts:       ecs.NewStore[Playout](),
		MaxCollideSpan: max(opts.MaxCollideSpan, cat.MaxCollideSpan()),
		killed:         make(map[ecs.Handle]struct{}),
		regionBuf:      make([]MapRegion, 0, 8),
		hitBuf:         make([]ecs.Handle, 0, 16),
		log:            log,
	}
	w.cullFn = w.cull
	w.Components.Register(w.Weapons)
	w.Components.Register(w.Playouts)
	return w
}

// Load builds a world from a map and populates it.
func Load(m *data.MapFile, cat *data.Catalog, opts Options, bus *event.Bus, log *zap.Logger) (*World, error) {
	w, err := NewForMap(m, cat, opts, bus, log)
	if err != nil {
		return nil, err
	}
	if err := w.Populate(m); err != nil {
		return nil, err
	}
	return w, nil
}

// NewForMap builds an empty world sized for m. Attachers added before
// Populate see every placement.
func NewForMap(m *data.MapFile, cat *data.Catalog, opts Options, bus *event.Bus, log *zap.Logger) (*World, error) {
	cellSize := m.CellSize
	if cellSize <= 0 {
		cellSize = opts.CellSize
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("map %q: no cell size", m.Name)
	}
	w := New(cat, m.Rows, m.Cols, cellSize, opts, bus, log)
	w.MapName = m.Name
	return w, nil
}

// Populate spawns the player first, with the view centered on it, then
// every placement. All placement errors are reported together.
func (w *World) Populate(m *data.MapFile) error {
	pos := geom.FromArr(m.Player.Pos)
	w.View.SetOrigin(pos)
	h, err := w.spawnPlacement(m.Player)
	if err != nil {
		return fmt.Errorf("map %q: player: %w", m.Name, err)
	}
	w.SetPlayer(h)

	var errs error
	for i, p := range m.Objects {
		if _, err := w.spawnPlacement(p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("map %q: object %d: %w", m.Name, i, err))
		}
	}
	if errs != nil {
		return errs
	}
	w.log.Info("world loaded",
		zap.String("map", m.Name),
		zap.Int("rows", m.Rows),
		zap.Int("cols", m.Cols),
		zap.Float64("cell_size", w.Grid.CellSize()),
		zap.Int("objects", w.Objects.Len()),
		zap.Int("ai_bots", w.aiBots),
	)
	return nil
}

func (w *World) spawnPlacement(p data.Placement) (ecs.Handle, error) {
	ref, err := w.Catalog.Ref(p.Config)
	if err != nil {
		return 0, err
	}
	return w.SpawnByConfig(ref, geom.FromArr(p.Pos), geom.FromArr(p.Direction), nil)
}

func (w *World) AddAttacher(a Attacher) { w.attachers = append(w.attachers, a) }
func (w *World) AddReleaser(r Releaser) { w.releasers = append(w.releasers, r) }

// Player returns the player's handle, or the zero handle once it is gone.
func (w *World) Player() ecs.Handle { return w.player }

// SetPlayer marks h as the player's bot. The player is always active.
func (w *World) SetPlayer(h ecs.Handle) {
	w.player = h
	if obj, ok := w.Objects.Get(h); ok {
		obj.Active = true
	}
}

// AIBots returns the number of AI bots that have not been removed.
func (w *World) AIBots() int { return w.aiBots }

func (w *World) Log() *zap.Logger { return w.log }

// Verify checks that every object sits in exactly one grid cell and that
// the cell matches its position.
func (w *World) Verify() error {
	index := w.Grid.Index()
	var errs error
	w.Objects.Each(func(h ecs.Handle, obj *GameObj) {
		cells := index[h]
		want := w.Grid.MapPos(obj.Pos)
		switch {
		case len(cells) != 1:
			errs = multierr.Append(errs, fmt.Errorf("%s: in %d cells", h, len(cells)))
		case cells[0] != want || obj.Cell != want:
			errs = multierr.Append(errs, fmt.Errorf("%s: cell %v, recorded %v, position maps to %v", h, cells[0], obj.Cell, want))
		}
		delete(index, h)
	})
	for h := range index {
		errs = multierr.Append(errs, fmt.Errorf("%s: in grid but not registered", h))
	}
	return errs
}
