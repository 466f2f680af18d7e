// Simulation ties the board, fields, resources and effects to the trigger
// bus and runs them phase by phase.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/effect"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/resource"
	"github.com/talgya/trigrid/internal/trigger"
)

// ErrBlocked is returned when an entity cannot be placed.
var ErrBlocked = errors.New("engine: placement blocked")

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// World is the board surface the simulation drives.
type World interface {
	board.Query
	effect.Stats
	Cells(ref board.EntityRef) (grid.Shape, bool)
	Contains(c grid.Coord) bool
	Dead() []board.EntityRef
}

// Recorder receives every trigger the bus broadcasts.
type Recorder interface {
	Record(t trigger.Trigger)
}

// Simulation holds the complete simulation state and wires systems together.
type Simulation struct {
	World   World
	Bus     *trigger.Bus
	Fields  *field.Accumulator
	Flow    *resource.Flow
	Effects *effect.Registry
	Events  []Event // Recent events, oldest first
	Stats   SimStats

	logged uint64 // events logged since creation, including trimmed ones

	// OnCycle runs after every PlayerTurn broadcast.
	OnCycle func(cycle uint64)
}

// Event is a notable occurrence on the board.
type Event struct {
	Cycle       uint64 `json:"cycle"`
	Phase       string `json:"phase"`
	Description string `json:"description"`
	Category    string `json:"category"` // "spawn", "death", "removal", "growth"
}

// SimStats tracks aggregate simulation statistics.
type SimStats struct {
	Cycles      uint64 `json:"cycles"`
	Spawned     int    `json:"spawned"`
	Grown       int    `json:"grown"`
	Killed      int    `json:"killed"`
	Removed     int    `json:"removed"`
	Allocations int    `json:"allocations"`
}

var _ trigger.Subscriber = (*Simulation)(nil)

// NewSimulation creates a simulation over w with a fresh bus, field
// accumulator, resource flow and effect registry.
func NewSimulation(w World) *Simulation {
	s := &Simulation{
		World:  w,
		Bus:    trigger.NewBus(),
		Fields: field.NewAccumulator(w, w),
		Flow:   resource.NewFlow(),
	}
	s.Flow.Hooks = resource.Hooks{
		OnAllocate: func(resource.Resource) { s.Stats.Allocations++ },
		OnAmount:   s.applyAmount,
	}
	s.Flow.Attach(s.Bus)

	// Registered before any effect so board bookkeeping runs first.
	for _, k := range []trigger.Kind{trigger.EntitySpawned, trigger.EntityKilled, trigger.EntitySpawnedOther, trigger.EntityRemoved} {
		s.Bus.Subscribe(k, s)
	}

	s.Effects = effect.NewRegistry(s.Bus, &effect.Env{
		Board:   w,
		Stats:   w,
		Fields:  s.Fields,
		Flow:    s.Flow,
		Spawned: s.grown,
	})
	return s
}

// Attach forwards every broadcast trigger to r.
func (s *Simulation) Attach(r Recorder) {
	s.Bus.Observe(r.Record)
}

// CurrentCycle returns the cycle the bus is in.
func (s *Simulation) CurrentCycle() uint64 {
	return s.Bus.Cycle()
}

// AdvancePhase enters the next phase. Entities whose health ran out are
// removed once the Damage broadcast completes.
func (s *Simulation) AdvancePhase() trigger.Trigger {
	t := s.Bus.AdvancePhase()
	switch t.Kind {
	case trigger.Damage:
		s.reap()
	case trigger.PlayerTurn:
		s.Stats.Cycles = t.Cycle
		if s.OnCycle != nil {
			s.OnCycle(t.Cycle)
		}
	}
	return t
}

// RunCycles advances through n complete cycles, stopping on PlayerTurn.
func (s *Simulation) RunCycles(n int) {
	for range n {
		for s.AdvancePhase().Kind != trigger.PlayerTurn {
		}
	}
}

// FireLocal broadcasts a local trigger for owner.
func (s *Simulation) FireLocal(kind trigger.Kind, owner board.EntityRef) bool {
	return s.Bus.FireLocal(kind, owner)
}

// FireGlobal broadcasts a global trigger, tagging it with the causer's
// kind while the causer is still on the board.
func (s *Simulation) FireGlobal(kind trigger.Kind, causer board.EntityRef, locations grid.Shape) bool {
	if kind.Family() != trigger.FamilyGlobal {
		return false
	}
	causerKind, _ := s.World.KindOf(causer)
	return s.Bus.Emit(trigger.Trigger{Kind: kind, Causer: causer, CauserKind: causerKind, Locations: locations})
}

// Spawn places a new entity and broadcasts EntitySpawned.
func (s *Simulation) Spawn(kind board.Kind, t board.Transform) (board.EntityRef, error) {
	ref, ok := s.World.SpawnEntity(kind, t)
	if !ok {
		return board.NoEntity, fmt.Errorf("spawn %s at %v: %w", kind, t.Anchor, ErrBlocked)
	}
	cells, _ := s.World.Cells(ref)
	s.Stats.Spawned++
	s.logEvent(fmt.Sprintf("%s spawned at %v", kind, t.Anchor), "spawn")
	s.Bus.Emit(trigger.Trigger{Kind: trigger.EntitySpawned, Causer: ref, CauserKind: kind, Locations: cells})
	return ref, nil
}

// Kill removes ref from the board and broadcasts EntityKilled.
func (s *Simulation) Kill(ref board.EntityRef) bool {
	return s.remove(ref, trigger.EntityKilled)
}

// Remove takes ref off the board and broadcasts EntityRemoved.
func (s *Simulation) Remove(ref board.EntityRef) bool {
	return s.remove(ref, trigger.EntityRemoved)
}

func (s *Simulation) remove(ref board.EntityRef, kind trigger.Kind) bool {
	cells, ok := s.World.Cells(ref)
	if !ok {
		return false
	}
	entKind, _ := s.World.KindOf(ref)
	s.World.DestroyEntity(ref)
	s.Fields.Invalidate()

	if kind == trigger.EntityKilled {
		s.Stats.Killed++
		s.logEvent(fmt.Sprintf("%s %v died", entKind, ref), "death")
	} else {
		s.Stats.Removed++
		s.logEvent(fmt.Sprintf("%s %v removed", entKind, ref), "removal")
	}
	s.Bus.Emit(trigger.Trigger{Kind: kind, Causer: ref, CauserKind: entKind, Locations: cells})
	return true
}

// OnTrigger keeps board-derived state in step with global triggers. A
// killed or removed entity loses its effects, faucets and sinks.
func (s *Simulation) OnTrigger(t trigger.Trigger) {
	s.Fields.Invalidate()
	switch t.Kind {
	case trigger.EntityKilled, trigger.EntityRemoved:
		effects := s.Effects.UnregisterOwnedBy(t.Causer)
		flows := s.Flow.RemoveOwnedBy(t.Causer)
		if effects > 0 || flows > 0 {
			slog.Debug("released entity", "entity", t.Causer, "effects", effects, "flows", flows)
		}
	}
}

func (s *Simulation) reap() {
	for _, ref := range s.World.Dead() {
		s.Kill(ref)
	}
}

// grown handles entities placed by effects.
func (s *Simulation) grown(owner, ref board.EntityRef) {
	s.Fields.Invalidate()
	kind, _ := s.World.KindOf(ref)
	cells, _ := s.World.Cells(ref)
	s.Stats.Grown++
	s.logEvent(fmt.Sprintf("%s grew from %v", kind, owner), "growth")
	s.Bus.Emit(trigger.Trigger{Kind: trigger.EntitySpawnedOther, Causer: ref, CauserKind: kind, Locations: cells})
}

func (s *Simulation) applyAmount(_ resource.SinkID, owner board.EntityRef, kind resource.AllocationKind, delta int) {
	switch kind {
	case resource.HealthIncrement:
		s.World.AdjustStat(owner, board.StatHealth, delta)
	case resource.RangeIncrement:
		s.World.AdjustStat(owner, board.StatRange, delta)
	}
}

// RegisterEffect registers an effect. An empty footprint defaults to the
// owner's cells.
func (s *Simulation) RegisterEffect(cfg effect.Config) (effect.ID, error) {
	if cfg.Footprint.Len() == 0 {
		if cells, ok := s.World.Cells(cfg.Owner); ok {
			cfg.Footprint = cells
		}
	}
	return s.Effects.Register(cfg)
}

// UnregisterEffect destroys an effect, reversing what it holds.
func (s *Simulation) UnregisterEffect(id effect.ID) bool {
	return s.Effects.Unregister(id)
}

// FieldStrengthAt returns the strength of ft at c.
func (s *Simulation) FieldStrengthAt(ft field.Type, c grid.Coord) int {
	return s.Fields.StrengthAt(ft, c)
}

// EntitiesInField returns the entities standing on ft with their strongest
// value.
func (s *Simulation) EntitiesInField(ft field.Type) map[board.EntityRef]int {
	return s.Fields.EntitiesInField(ft)
}

// SeedField adds fixed strengths to ft, such as terrain fertility.
func (s *Simulation) SeedField(ft field.Type, strengths map[grid.Coord]int) {
	for c, v := range strengths {
		s.Fields.AddStrength(ft, v, grid.NewShape(c))
	}
}

// AddFaucet creates a faucet owned by owner.
func (s *Simulation) AddFaucet(owner board.EntityRef, typ resource.Type, amount int, recycle bool) (resource.FaucetID, error) {
	return s.Flow.AddFaucet(owner, typ, amount, recycle)
}

// AddSink creates a sink for owner located on the owner's cells.
func (s *Simulation) AddSink(owner board.EntityRef, cfg resource.SinkConfig) (resource.SinkID, error) {
	cells, ok := s.World.Cells(owner)
	if !ok {
		return 0, fmt.Errorf("add sink for %v: unknown entity", owner)
	}
	id, err := s.Flow.AddSink(owner, cfg)
	if err != nil {
		return 0, err
	}
	s.Flow.SetSinkLocations(id, cells)
	return id, nil
}

// Allocate binds a resource to a sink.
func (s *Simulation) Allocate(res resource.ResourceID, sink resource.SinkID) bool {
	return s.Flow.Allocate(res, sink)
}

// Free releases an allocated resource.
func (s *Simulation) Free(res resource.ResourceID) {
	s.Flow.Free(res)
}

func (s *Simulation) logEvent(desc, category string) {
	s.logged++
	s.Events = append(s.Events, Event{
		Cycle:       s.Bus.Cycle(),
		Phase:       s.Bus.Current().String(),
		Description: desc,
		Category:    category,
	})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// EventsSince returns a copy of the retained events logged after mark, plus the mark
// to pass on the next call. Start with a mark of zero.
func (s *Simulation) EventsSince(mark uint64) ([]Event, uint64) {
	newer := uint64(0)
	if s.logged > mark {
		newer = s.logged - mark
	}
	if newer > uint64(len(s.Events)) {
		newer = uint64(len(s.Events))
	}
	return slices.Clone(s.Events[len(s.Events)-int(newer):]), s.logged
}

// RecentEvents returns a copy of up to n of the newest events, oldest
// first.
func (s *Simulation) RecentEvents(n int) []Event {
	if n <= 0 || n > len(s.Events) {
		n = len(s.Events)
	}
	return slices.Clone(s.Events[len(s.Events)-n:])
}
