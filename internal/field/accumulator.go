// Package field accumulates integer field strengths on lattice cells.
// Several sources may add strength to the same cell; a cell whose strength
// drops to zero or below is removed from the field.
package field

import (
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/grid"
)

// Type names a field, such as "fertility" or "shade".
type Type string

// Occupancy resolves the entity covering a cell.
type Occupancy interface {
	Occupant(c grid.Coord) (board.EntityRef, bool)
}

// Domain restricts the cells a field may hold.
type Domain interface {
	Contains(c grid.Coord) bool
}

// Accumulator stores per-cell strengths for each field type and caches the
// strongest cell under each entity.
type Accumulator struct {
	occupancy Occupancy
	domain    Domain

	strengths map[Type]map[grid.Coord]int
	// entities caches, per field, the maximum strength across each
	// entity's cells. A missing entry means the cache must be rebuilt.
	entities map[Type]map[board.EntityRef]int
}

// NewAccumulator creates an accumulator. occupancy and domain may be nil; a
// nil occupancy leaves every field without entities and a nil domain
// accepts every cell.
func NewAccumulator(occupancy Occupancy, domain Domain) *Accumulator {
	return &Accumulator{
		occupancy: occupancy,
		domain:    domain,
		strengths: make(map[Type]map[grid.Coord]int),
		entities:  make(map[Type]map[board.EntityRef]int),
	}
}

// AddStrength adds delta to ft at every location. Entries are created only
// by positive deltas and deleted once their strength falls to zero or
// below. It returns the number of cells that changed.
func (a *Accumulator) AddStrength(ft Type, delta int, locations grid.Shape) int {
	if delta == 0 || len(locations) == 0 {
		return 0
	}
	cells := a.strengths[ft]
	changed := 0
	for c := range locations {
		if a.domain != nil && !a.domain.Contains(c) {
			continue
		}
		cur, ok := cells[c]
		if !ok && delta < 0 {
			continue
		}
		if cells == nil {
			cells = make(map[grid.Coord]int)
			a.strengths[ft] = cells
		}
		if next := cur + delta; next > 0 {
			cells[c] = next
		} else {
			delete(cells, c)
		}
		changed++
	}
	if changed > 0 {
		delete(a.entities, ft)
		if len(cells) == 0 {
			delete(a.strengths, ft)
		}
	}
	return changed
}

// StrengthAt returns the strength of ft at c, zero when absent.
func (a *Accumulator) StrengthAt(ft Type, c grid.Coord) int {
	return a.strengths[ft][c]
}

// EntitiesInField returns every entity standing on ft with the strongest
// value across its cells.
func (a *Accumulator) EntitiesInField(ft Type) map[board.EntityRef]int {
	cache := a.entityCache(ft)
	out := make(map[board.EntityRef]int, len(cache))
	for ref, s := range cache {
		out[ref] = s
	}
	return out
}

// StrengthAtEntity returns the strongest value of ft across ref's cells.
func (a *Accumulator) StrengthAtEntity(ft Type, ref board.EntityRef) int {
	return a.entityCache(ft)[ref]
}

func (a *Accumulator) entityCache(ft Type) map[board.EntityRef]int {
	if cache, ok := a.entities[ft]; ok {
		return cache
	}
	cache := make(map[board.EntityRef]int)
	if a.occupancy != nil {
		for c, s := range a.strengths[ft] {
			ref, ok := a.occupancy.Occupant(c)
			if !ok {
				continue
			}
			if s > cache[ref] {
				cache[ref] = s
			}
		}
	}
	a.entities[ft] = cache
	return cache
}

// Invalidate drops every cached entity lookup. Call it whenever occupancy
// changes.
func (a *Accumulator) Invalidate() {
	clear(a.entities)
}

// Types returns the field types holding at least one cell, sorted.
func (a *Accumulator) Types() []Type {
	out := make([]Type, 0, len(a.strengths))
	for ft := range a.strengths {
		out = append(out, ft)
	}
	slices.Sort(out)
	return out
}

// Snapshot returns a copy of every cell strength of ft.
func (a *Accumulator) Snapshot(ft Type) map[grid.Coord]int {
	cells := a.strengths[ft]
	out := make(map[grid.Coord]int, len(cells))
	for c, s := range cells {
		out[c] = s
	}
	return out
}

// Total returns the sum of all strengths of ft.
func (a *Accumulator) Total(ft Type) int {
	total := 0
	for _, s := range a.strengths[ft] {
		total += s
	}
	return total
}
