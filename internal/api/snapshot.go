package api

import (
	"slices"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/grid"
)

// recentEvents is how many events a snapshot carries.
const recentEvents = 50

// Snapshot is an immutable view of the board taken at the end of a cycle.
// Handlers only ever read snapshots, never the live simulation.
type Snapshot struct {
	Cycle    uint64                 `json:"cycle"`
	Phase    string                 `json:"phase"`
	SimTime  string                 `json:"sim_time"`
	Cells    int                    `json:"cells"`
	Effects  int                    `json:"effects"`
	Stats    engine.SimStats        `json:"stats"`
	Entities []EntityView           `json:"entities"`
	Fields   map[string][]FieldCell `json:"fields"`
	Events   []engine.Event         `json:"recent_events"`
}

// EntityView is the JSON form of a placed entity.
type EntityView struct {
	Ref       string       `json:"ref"`
	Kind      string       `json:"kind"`
	Anchor    grid.Coord   `json:"anchor"`
	Facing    string       `json:"facing"`
	Cells     []grid.Coord `json:"cells"`
	Health    int          `json:"health"`
	MaxHealth int          `json:"max_health,omitempty"`
	Range     int          `json:"range"`
}

// FieldCell is one non-zero cell of a field.
type FieldCell struct {
	Coord    grid.Coord `json:"coord"`
	Strength int        `json:"strength"`
}

// Capture builds a snapshot of sim, whose world is b.
func Capture(sim *engine.Simulation, b *board.Board) *Snapshot {
	phase := sim.Bus.Current()
	snap := &Snapshot{
		Cycle:   sim.CurrentCycle(),
		Phase:   phase.String(),
		SimTime: engine.PhaseTime(sim.CurrentCycle(), phase),
		Cells:   b.CellCount(),
		Effects: sim.Effects.Len(),
		Stats:   sim.Stats,
		Fields:  make(map[string][]FieldCell),
		Events:  slices.Clone(sim.RecentEvents(recentEvents)),
	}

	for _, ref := range b.Entities() {
		e, ok := b.Entity(ref)
		if !ok {
			continue
		}
		snap.Entities = append(snap.Entities, EntityView{
			Ref:       ref.String(),
			Kind:      string(e.Kind),
			Anchor:    e.Transform.Anchor,
			Facing:    e.Transform.Facing.String(),
			Cells:     e.Cells.Sorted(),
			Health:    e.Health,
			MaxHealth: e.MaxHealth,
			Range:     e.Range,
		})
	}

	for _, ft := range sim.Fields.Types() {
		snap.Fields[string(ft)] = fieldCells(sim.Fields, ft)
	}
	return snap
}

func fieldCells(acc *field.Accumulator, ft field.Type) []FieldCell {
	strengths := acc.Snapshot(ft)
	shape := grid.NewShape()
	for c := range strengths {
		shape.Add(c)
	}
	cells := make([]FieldCell, 0, len(strengths))
	for _, c := range shape.Sorted() {
		cells = append(cells, FieldCell{Coord: c, Strength: strengths[c]})
	}
	return cells
}
