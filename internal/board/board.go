// Package board holds the entities placed on the triangular lattice and the
// occupancy index the simulation queries.
package board

import (
	"fmt"
	"slices"

	"github.com/talgya/trigrid/internal/grid"
)

// Query is the occupancy view the simulation core depends on.
type Query interface {
	// Occupant returns the entity covering c, if any.
	Occupant(c grid.Coord) (EntityRef, bool)
	// Occupants returns the distinct entities covering any cell of s,
	// ordered by ref.
	Occupants(s grid.Shape) []EntityRef
	KindOf(ref EntityRef) (Kind, bool)
	SpawnEntity(kind Kind, t Transform) (EntityRef, bool)
	DestroyEntity(ref EntityRef) bool
}

type slot struct {
	gen    uint32
	entity *Entity
}

// Board is an arena of entities on a lattice. A board built with New is
// unbounded; NewBounded restricts placement to the given cells.
type Board struct {
	geom      grid.Geometry
	cells     map[grid.Coord]*Cell
	bounded   bool
	kinds     map[Kind]KindSpec
	slots     []slot
	free      []uint32
	occupancy map[grid.Coord]EntityRef
	live      int
}

var _ Query = (*Board)(nil)

// New creates an unbounded board.
func New(geom grid.Geometry) *Board {
	return &Board{
		geom:      geom,
		cells:     make(map[grid.Coord]*Cell),
		kinds:     make(map[Kind]KindSpec),
		occupancy: make(map[grid.Coord]EntityRef),
	}
}

// NewBounded creates a board restricted to cells, all initialised as soil.
func NewBounded(geom grid.Geometry, cells grid.Shape) *Board {
	b := New(geom)
	b.bounded = true
	for c := range cells {
		b.cells[c] = &Cell{Coord: c}
	}
	return b
}

// Geometry returns the lattice geometry the board was built with.
func (b *Board) Geometry() grid.Geometry {
	return b.geom
}

// Contains reports whether c lies on the board.
func (b *Board) Contains(c grid.Coord) bool {
	if !b.bounded {
		return true
	}
	_, ok := b.cells[c]
	return ok
}

// SetCell stores static cell state. On a bounded board it also extends the
// bounds.
func (b *Board) SetCell(cell Cell) {
	c := cell
	b.cells[cell.Coord] = &c
}

// Cell returns the static state of c. Cells never set on an unbounded board
// report as soil.
func (b *Board) Cell(c grid.Coord) (Cell, bool) {
	if cell, ok := b.cells[c]; ok {
		return *cell, true
	}
	if !b.bounded {
		return Cell{Coord: c}, true
	}
	return Cell{}, false
}

// Bounds returns the cells of a bounded board, or nil for an unbounded one.
func (b *Board) Bounds() grid.Shape {
	if !b.bounded {
		return nil
	}
	out := make(grid.Shape, len(b.cells))
	for c := range b.cells {
		out.Add(c)
	}
	return out
}

// CellCount returns the number of stored cells.
func (b *Board) CellCount() int {
	return len(b.cells)
}

// DefineKind registers the template used when spawning kind.
func (b *Board) DefineKind(kind Kind, spec KindSpec) {
	b.kinds[kind] = spec
}

// Footprint returns the cells kind would cover at t.
func (b *Board) Footprint(kind Kind, t Transform) grid.Shape {
	fp := b.kinds[kind].Footprint
	if len(fp) == 0 {
		return grid.NewShape(t.Anchor)
	}
	return b.geom.Place(t.Anchor, t.Facing, fp)
}

// CanPlace reports whether every cell of shape is on the board, passable
// and unoccupied.
func (b *Board) CanPlace(shape grid.Shape) bool {
	for c := range shape {
		cell, ok := b.Cell(c)
		if !ok || !cell.Passable() {
			return false
		}
		if _, taken := b.occupancy[c]; taken {
			return false
		}
	}
	return true
}

// SpawnEntity places a new entity of kind at t. It fails when the footprint
// leaves the board or overlaps water or another entity.
func (b *Board) SpawnEntity(kind Kind, t Transform) (EntityRef, bool) {
	cells := b.Footprint(kind, t)
	if !b.CanPlace(cells) {
		return NoEntity, false
	}

	var idx uint32
	if n := len(b.free); n > 0 {
		idx = b.free[n-1]
		b.free = b.free[:n-1]
	} else {
		idx = uint32(len(b.slots))
		b.slots = append(b.slots, slot{})
	}
	s := &b.slots[idx]
	s.gen++
	ref := EntityRef{Index: idx, Gen: s.gen}

	spec := b.kinds[kind]
	s.entity = &Entity{
		Ref:       ref,
		Kind:      kind,
		Transform: t,
		Cells:     cells,
		Health:    spec.MaxHealth,
		MaxHealth: spec.MaxHealth,
		Range:     spec.Range,
	}
	for c := range cells {
		b.occupancy[c] = ref
	}
	b.live++
	return ref, true
}

// DestroyEntity removes ref from the board. Stale refs are ignored.
func (b *Board) DestroyEntity(ref EntityRef) bool {
	e := b.lookup(ref)
	if e == nil {
		return false
	}
	for c := range e.Cells {
		delete(b.occupancy, c)
	}
	b.slots[ref.Index].entity = nil
	b.free = append(b.free, ref.Index)
	b.live--
	return true
}

func (b *Board) lookup(ref EntityRef) *Entity {
	if ref.IsZero() || int(ref.Index) >= len(b.slots) {
		return nil
	}
	s := b.slots[ref.Index]
	if s.gen != ref.Gen {
		return nil
	}
	return s.entity
}

// Entity returns a copy of the entity named by ref.
func (b *Board) Entity(ref EntityRef) (Entity, bool) {
	e := b.lookup(ref)
	if e == nil {
		return Entity{}, false
	}
	out := *e
	out.Cells = e.Cells.Clone()
	return out, true
}

// Exists reports whether ref names a live entity.
func (b *Board) Exists(ref EntityRef) bool {
	return b.lookup(ref) != nil
}

// Cells returns the cells covered by ref.
func (b *Board) Cells(ref EntityRef) (grid.Shape, bool) {
	e := b.lookup(ref)
	if e == nil {
		return nil, false
	}
	return e.Cells.Clone(), true
}

// KindOf returns the kind of ref.
func (b *Board) KindOf(ref EntityRef) (Kind, bool) {
	e := b.lookup(ref)
	if e == nil {
		return "", false
	}
	return e.Kind, true
}

// Occupant returns the entity covering c.
func (b *Board) Occupant(c grid.Coord) (EntityRef, bool) {
	ref, ok := b.occupancy[c]
	return ref, ok
}

// Occupants returns the distinct entities covering cells of s.
func (b *Board) Occupants(s grid.Shape) []EntityRef {
	seen := make(map[EntityRef]struct{})
	for c := range s {
		if ref, ok := b.occupancy[c]; ok {
			seen[ref] = struct{}{}
		}
	}
	out := make([]EntityRef, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	slices.SortFunc(out, CompareRefs)
	return out
}

// Entities returns every live entity ref in slot order.
func (b *Board) Entities() []EntityRef {
	out := make([]EntityRef, 0, b.live)
	for i, s := range b.slots {
		if s.entity != nil {
			out = append(out, EntityRef{Index: uint32(i), Gen: s.gen})
		}
	}
	return out
}

// EntityCount returns the number of live entities.
func (b *Board) EntityCount() int {
	return b.live
}

// Stat returns the current value of stat for ref. Health is only reported
// for kinds that track it.
func (b *Board) Stat(ref EntityRef, stat Stat) (int, bool) {
	e := b.lookup(ref)
	if e == nil {
		return 0, false
	}
	switch stat {
	case StatHealth:
		if e.MaxHealth == 0 {
			return 0, false
		}
		return e.Health, true
	case StatRange:
		return e.Range, true
	default:
		return 0, false
	}
}

// AdjustStat adds delta to stat on ref. Values are not clamped so that
// every adjustment can be reversed exactly.
func (b *Board) AdjustStat(ref EntityRef, stat Stat, delta int) bool {
	e := b.lookup(ref)
	if e == nil {
		return false
	}
	switch stat {
	case StatHealth:
		if e.MaxHealth == 0 {
			return false
		}
		e.Health += delta
	case StatRange:
		e.Range += delta
	default:
		return false
	}
	return true
}

// Dead returns the health-tracking entities whose health is exhausted.
func (b *Board) Dead() []EntityRef {
	var out []EntityRef
	for _, ref := range b.Entities() {
		if e := b.lookup(ref); !e.Alive() {
			out = append(out, ref)
		}
	}
	return out
}

// String returns a summary of the board.
func (b *Board) String() string {
	return fmt.Sprintf("Board(cells=%d, entities=%d)", len(b.cells), b.live)
}
