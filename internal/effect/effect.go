// Package effect implements trigger-driven area effects. An effect covers
// its owner's footprint grown by a range, re-resolves the cells and
// entities under that area whenever one of its triggers fires, and applies
// its variant to newcomers while reversing it for targets that left.
package effect

import (
	"log/slog"
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/resource"
	"github.com/talgya/trigrid/internal/trigger"
)

// Stats reads and adjusts entity statistics.
type Stats interface {
	Stat(ref board.EntityRef, stat board.Stat) (int, bool)
	AdjustStat(ref board.EntityRef, stat board.Stat, delta int) bool
}

// Env holds the collaborators effects act through. Any of them may be nil,
// in which case the part of a variant that needs it is skipped.
type Env struct {
	Board  board.Query
	Stats  Stats
	Fields *field.Accumulator
	Flow   *resource.Flow
	// Spawned is called for every entity an effect places on the board.
	Spawned func(owner, ref board.EntityRef)
}

// Config describes an effect.
type Config struct {
	Owner board.EntityRef
	// Footprint is the set of cells the area grows from, usually the
	// owner's cells.
	Footprint grid.Shape
	// Range is the number of ScaleUp layers added around the footprint.
	Range int
	// RangeFromOwner adds the owner's range stat to Range.
	RangeFromOwner bool
	// Chop restricts growth to cells directly across boundary edges.
	Chop    bool
	Variant Variant

	ActivateOn   []trigger.Kind
	DeactivateOn []trigger.Kind
	// InvalidCauserKinds lists entity kinds whose global triggers this
	// effect ignores.
	InvalidCauserKinds []board.Kind
	// IncludeOwner lets the owner's own cells and entity be targets.
	IncludeOwner bool
}

type kindSet uint32

func newKindSet(kinds []trigger.Kind) kindSet {
	var s kindSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s kindSet) has(k trigger.Kind) bool {
	return s&(1<<k) != 0
}

// entry is one affected entity: the cells it was seen on, and the resource
// given to it when the variant provides one.
type entry struct {
	cells    grid.Shape
	resource resource.ResourceID
	sink     resource.SinkID
}

// resolution is the current target set of an effect.
type resolution struct {
	area     grid.Shape
	cells    grid.Shape
	entities map[board.EntityRef]grid.Shape
}

// Effect is one registered area effect. Create effects through a Registry.
type Effect struct {
	id           ID
	cfg          Config
	env          *Env
	activateOn   kindSet
	deactivateOn kindSet

	active    bool
	destroyed bool
	cells     grid.Shape
	entities  map[board.EntityRef]*entry
}

var _ trigger.Subscriber = (*Effect)(nil)

func newEffect(id ID, cfg Config, env *Env) *Effect {
	if env == nil {
		env = &Env{}
	}
	return &Effect{
		id:           id,
		cfg:          cfg,
		env:          env,
		activateOn:   newKindSet(cfg.ActivateOn),
		deactivateOn: newKindSet(cfg.DeactivateOn),
		cells:        make(grid.Shape),
		entities:     make(map[board.EntityRef]*entry),
	}
}

// ID returns the registry handle of the effect.
func (e *Effect) ID() ID { return e.id }

// Owner returns the entity the effect belongs to.
func (e *Effect) Owner() board.EntityRef { return e.cfg.Owner }

// Variant returns the effect's action.
func (e *Effect) Variant() Variant { return e.cfg.Variant }

// Active reports whether the effect has been activated and not fully
// deactivated since.
func (e *Effect) Active() bool { return e.active }

// Destroyed reports whether the effect has been torn down.
func (e *Effect) Destroyed() bool { return e.destroyed }

// AffectedLocations returns the cells the effect currently holds.
func (e *Effect) AffectedLocations() grid.Shape {
	return e.cells.Clone()
}

// AffectedEntities returns the entities the effect currently holds, ordered
// by ref.
func (e *Effect) AffectedEntities() []board.EntityRef {
	out := make([]board.EntityRef, 0, len(e.entities))
	for ref := range e.entities {
		out = append(out, ref)
	}
	slices.SortFunc(out, board.CompareRefs)
	return out
}

// SetFootprint replaces the cells the area grows from. The new area is
// picked up on the next activation.
func (e *Effect) SetFootprint(footprint grid.Shape) {
	e.cfg.Footprint = footprint.Clone()
}

// Area returns the cells currently under the effect's range.
func (e *Effect) Area() grid.Shape {
	return grid.ScaleUp(e.cfg.Footprint, e.layers(), e.cfg.Chop).Clone()
}

// OnTrigger routes a broadcast to Activate or Deactivate. Local triggers
// for other owners are ignored. A kind listed for both activation and
// deactivation activates.
func (e *Effect) OnTrigger(t trigger.Trigger) {
	if e.destroyed {
		return
	}
	if t.Kind.Family() == trigger.FamilyLocal && t.Owner != e.cfg.Owner {
		return
	}
	switch {
	case e.activateOn.has(t.Kind):
		e.Activate(t)
	case e.deactivateOn.has(t.Kind):
		e.Deactivate(t)
	}
}

// Activate resolves the current targets, applies the variant to targets
// not yet affected and reverses it for affected targets that are no longer
// covered. It returns false when the effect refuses the trigger because of
// its causer.
func (e *Effect) Activate(t trigger.Trigger) bool {
	if e.destroyed {
		return false
	}
	if t.Kind.Family() == trigger.FamilyGlobal && e.refuses(t) {
		slog.Debug("effect refused trigger", "effect", e.id, "trigger", t.Kind, "causer", t.Causer)
		return false
	}
	e.sync(e.resolve())
	e.active = true
	return true
}

// Deactivate reverses the effect. Phase and local triggers clear every
// target. Global triggers only drop targets inside the trigger's locations
// that a fresh resolution no longer covers, leaving the effect active.
func (e *Effect) Deactivate(t trigger.Trigger) {
	if e.destroyed {
		return
	}
	if t.Kind.Family() != trigger.FamilyGlobal {
		e.clear()
		e.active = false
		return
	}

	fresh := e.resolve()
	for _, c := range e.cells.Intersect(t.Locations).Sorted() {
		if !fresh.cells.Has(c) {
			e.retireCell(c)
		}
	}
	for _, ref := range e.AffectedEntities() {
		if _, still := fresh.entities[ref]; still {
			continue
		}
		if e.entities[ref].cells.Intersects(t.Locations) {
			e.retireEntity(ref)
		}
	}
}

// Destroy reverses everything the effect holds and stops it from reacting
// to further triggers.
func (e *Effect) Destroy() {
	if e.destroyed {
		return
	}
	e.clear()
	e.active = false
	e.destroyed = true
}

func (e *Effect) refuses(t trigger.Trigger) bool {
	if len(e.cfg.InvalidCauserKinds) == 0 {
		return false
	}
	kind := t.CauserKind
	if kind == "" && e.env.Board != nil {
		kind, _ = e.env.Board.KindOf(t.Causer)
	}
	return kind != "" && slices.Contains(e.cfg.InvalidCauserKinds, kind)
}

func (e *Effect) layers() int {
	n := e.cfg.Range
	if e.cfg.RangeFromOwner && e.env.Stats != nil {
		if r, ok := e.env.Stats.Stat(e.cfg.Owner, board.StatRange); ok {
			n += r
		}
	}
	return max(n, 0)
}

func (e *Effect) resolve() resolution {
	area := grid.ScaleUp(e.cfg.Footprint, e.layers(), e.cfg.Chop)
	res := resolution{
		area:     area,
		cells:    make(grid.Shape),
		entities: make(map[board.EntityRef]grid.Shape),
	}
	mode := targetOf(e.cfg.Variant)
	for c := range area {
		var ref board.EntityRef
		occupied := false
		if e.env.Board != nil {
			ref, occupied = e.env.Board.Occupant(c)
		}
		if occupied && ref == e.cfg.Owner && !e.cfg.IncludeOwner {
			continue
		}
		switch {
		case mode == targetCells, mode == targetEmptyCells && !occupied:
			res.cells.Add(c)
		case mode == targetEntities && occupied:
			cells, ok := res.entities[ref]
			if !ok {
				cells = make(grid.Shape)
				res.entities[ref] = cells
			}
			cells.Add(c)
		}
	}
	return res
}

func (e *Effect) sync(res resolution) {
	if targetOf(e.cfg.Variant) != targetEntities {
		for _, c := range res.cells.Difference(e.cells).Sorted() {
			e.applyCell(c)
		}
		for _, c := range e.cells.Difference(res.cells).Sorted() {
			e.retireCell(c)
		}
		return
	}

	if v, ok := e.cfg.Variant.(ProvideResource); ok && e.env.Flow != nil {
		e.env.Flow.SetFaucetLocations(v.Faucet, res.area)
	}
	refs := make([]board.EntityRef, 0, len(res.entities))
	for ref := range res.entities {
		refs = append(refs, ref)
	}
	slices.SortFunc(refs, board.CompareRefs)
	for _, ref := range refs {
		if held, ok := e.entities[ref]; ok {
			held.cells = res.entities[ref]
			continue
		}
		e.applyEntity(ref, res.entities[ref])
	}
	for _, ref := range e.AffectedEntities() {
		if _, ok := res.entities[ref]; !ok {
			e.retireEntity(ref)
		}
	}
}

func (e *Effect) applyCell(c grid.Coord) {
	switch v := e.cfg.Variant.(type) {
	case ApplyField:
		if e.env.Fields != nil {
			e.env.Fields.AddStrength(v.Field, v.Strength, grid.NewShape(c))
		}
	case SpawnEntities:
		if e.env.Board != nil {
			if ref, ok := e.env.Board.SpawnEntity(v.Kind, board.Transform{Anchor: c}); ok && e.env.Spawned != nil {
				e.env.Spawned(e.cfg.Owner, ref)
			}
		}
	}
	e.cells.Add(c)
}

func (e *Effect) retireCell(c grid.Coord) {
	if v, ok := e.cfg.Variant.(ApplyField); ok && e.env.Fields != nil {
		e.env.Fields.AddStrength(v.Field, -v.Strength, grid.NewShape(c))
	}
	e.cells.Remove(c)
}

func (e *Effect) applyEntity(ref board.EntityRef, cells grid.Shape) {
	held := &entry{cells: cells}
	switch v := e.cfg.Variant.(type) {
	case DamageEntities:
		if e.env.Stats != nil {
			e.env.Stats.AdjustStat(ref, board.StatHealth, -v.Amount)
		}
	case ModifyRange:
		if e.env.Stats != nil {
			e.env.Stats.AdjustStat(ref, board.StatRange, v.Delta)
		}
	case ProvideResource:
		if !e.provide(v, ref, held) {
			// Not recorded, so a later activation can try again.
			return
		}
	}
	e.entities[ref] = held
}

func (e *Effect) provide(v ProvideResource, ref board.EntityRef, held *entry) bool {
	flow := e.env.Flow
	if flow == nil {
		// Tracked with a zero resource; retiring it frees nothing.
		return true
	}
	for _, sid := range flow.SinksOwnedBy(ref) {
		rid, err := flow.CreateResource(v.Faucet)
		if err != nil {
			slog.Warn("effect cannot draw from faucet", "effect", e.id, "faucet", v.Faucet, "error", err)
			return true
		}
		if flow.Allocate(rid, sid) {
			held.resource = rid
			held.sink = sid
			return true
		}
	}
	return false
}

func (e *Effect) retireEntity(ref board.EntityRef) {
	held := e.entities[ref]
	switch v := e.cfg.Variant.(type) {
	case ModifyRange:
		if e.env.Stats != nil {
			e.env.Stats.AdjustStat(ref, board.StatRange, -v.Delta)
		}
	case ProvideResource:
		if e.env.Flow != nil {
			if r, ok := e.env.Flow.Resource(held.resource); ok && r.Sink == held.sink && r.Allocated() {
				e.env.Flow.Free(held.resource)
			}
		}
	}
	delete(e.entities, ref)
}

func (e *Effect) clear() {
	for _, c := range e.cells.Sorted() {
		e.retireCell(c)
	}
	for _, ref := range e.AffectedEntities() {
		e.retireEntity(ref)
	}
}
