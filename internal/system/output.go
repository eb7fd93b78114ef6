package system

import (
	"time"

	"github.com/arenashooter/arena/internal/core/ecs"
	coresys "github.com/arenashooter/arena/internal/core/system"
	"github.com/arenashooter/arena/internal/net"
	"github.com/arenashooter/arena/internal/world"
	"go.uber.org/zap"
)

// Broadcaster sends a snapshot to every spectator. The snapshot is only
// valid during the call.
type Broadcaster interface {
	Broadcast(snap *net.Snapshot) error
}

// OutputSystem builds the per-tick snapshot of the visible objects and
// hands it to the feed. It also collects the handles removed by the
// lifecycle flush so the next snapshot can report them. Phase 5 (Output).
type OutputSystem struct {
	world    *world.World
	feed     Broadcaster
	tick     uint64
	snap     net.Snapshot
	released []uint64
	viewFn   func(ecs.Handle) bool
	log      *zap.Logger
}

// NewOutputSystem registers the system as a releaser of w. feed may be nil.
func NewOutputSystem(w *world.World, feed Broadcaster, log *zap.Logger) *OutputSystem {
	s := &OutputSystem{
		world:    w,
		feed:     feed,
		released: make([]uint64, 0, 32),
		log:      log,
	}
	s.snap.Objects = make([]net.ObjectView, 0, 128)
	s.viewFn = s.view
	w.AddReleaser(s)
	return s
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.tick++
	if s.feed == nil {
		s.released = s.released[:0]
		return
	}
	if err := s.feed.Broadcast(s.Build()); err != nil {
		s.log.Error("broadcast snapshot", zap.Error(err))
	}
	s.released = s.released[:0]
}

// Release implements world.Releaser.
func (s *OutputSystem) Release(h ecs.Handle) {
	s.released = append(s.released, uint64(h))
}

// Build fills the reusable snapshot for the current tick.
func (s *OutputSystem) Build() *net.Snapshot {
	v := s.world.View
	s.snap.Tick = s.tick
	s.snap.Origin = v.Origin().Arr()
	s.snap.Objects = s.snap.Objects[:0]
	s.snap.Released = s.released
	s.world.Grid.ForEachInRegion(s.world.Grid.RegionForRect(v.VisibleRect()), s.viewFn)
	return &s.snap
}

func (s *OutputSystem) view(h ecs.Handle) bool {
	obj, ok := s.world.Objects.Get(h)
	if !ok || !obj.Visible {
		return true
	}
	ov := net.ObjectView{
		ID:        uint64(h),
		Pos:       obj.Pos.Arr(),
		Direction: obj.Direction.Arr(),
		ScreenPos: obj.ScreenPos.Arr(),
		Visible:   obj.Visible,
		State:     obj.State.String(),
		Alpha:     obj.Alpha,
	}
	if cfg := s.world.Catalog.Get(obj.ConfigRef); cfg != nil {
		ov.Config = cfg.Name
	}
	s.snap.Objects = append(s.snap.Objects, ov)
	return true
}
