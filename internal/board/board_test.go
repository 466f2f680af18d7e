package board

import (
	"testing"

	"github.com/talgya/trigrid/internal/grid"
)

func TestSpawnAndDestroy(t *testing.T) {
	b := New(grid.NewGeometry(1))
	b.DefineKind("plant", KindSpec{MaxHealth: 3, Range: 1})

	ref, ok := b.SpawnEntity("plant", Transform{Anchor: grid.Coord{Col: 0, Row: 0}})
	if !ok {
		t.Fatal("expected spawn to succeed")
	}
	if ref.IsZero() {
		t.Fatal("expected a non-zero ref")
	}
	if got, ok := b.Occupant(grid.Coord{Col: 0, Row: 0}); !ok || got != ref {
		t.Fatalf("expected occupant %v, got %v", ref, got)
	}
	if kind, _ := b.KindOf(ref); kind != "plant" {
		t.Fatalf("expected kind plant, got %q", kind)
	}
	if _, ok := b.SpawnEntity("plant", Transform{Anchor: grid.Coord{Col: 0, Row: 0}}); ok {
		t.Fatal("expected spawn on an occupied cell to fail")
	}

	if !b.DestroyEntity(ref) {
		t.Fatal("expected destroy to succeed")
	}
	if b.DestroyEntity(ref) {
		t.Fatal("expected second destroy to fail")
	}
	if _, ok := b.Occupant(grid.Coord{Col: 0, Row: 0}); ok {
		t.Fatal("expected cell to be free after destroy")
	}
	if b.EntityCount() != 0 {
		t.Fatalf("expected 0 entities, got %d", b.EntityCount())
	}
}

func TestStaleRefAfterSlotReuse(t *testing.T) {
	b := New(grid.NewGeometry(1))
	first, _ := b.SpawnEntity("rock", Transform{Anchor: grid.Coord{Col: 0, Row: 0}})
	b.DestroyEntity(first)
	second, ok := b.SpawnEntity("rock", Transform{Anchor: grid.Coord{Col: 2, Row: 0}})
	if !ok {
		t.Fatal("expected spawn to succeed")
	}
	if second.Index != first.Index {
		t.Fatalf("expected slot %d to be reused, got %d", first.Index, second.Index)
	}
	if b.Exists(first) {
		t.Fatal("expected stale ref to be dead")
	}
	if !b.Exists(second) {
		t.Fatal("expected new ref to be live")
	}
}

func TestFootprintPlacement(t *testing.T) {
	b := New(grid.NewGeometry(1))
	b.DefineKind("log", KindSpec{Footprint: []grid.Coord{{Col: 0, Row: 0}, {Col: 1, Row: 0}}})

	ref, ok := b.SpawnEntity("log", Transform{Anchor: grid.Coord{Col: 0, Row: 0}, Facing: grid.DownRight})
	if !ok {
		t.Fatal("expected spawn to succeed")
	}
	cells, _ := b.Cells(ref)
	want := grid.NewShape(grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 0, Row: 1})
	if !cells.Equal(want) {
		t.Fatalf("expected %v, got %v", want, cells)
	}
	occ := b.Occupants(grid.NewShape(grid.Coord{Col: 0, Row: 1}, grid.Coord{Col: 0, Row: 0}, grid.Coord{Col: 5, Row: 5}))
	if len(occ) != 1 || occ[0] != ref {
		t.Fatalf("expected single occupant %v, got %v", ref, occ)
	}
}

func TestBoundedBoardRejectsOutside(t *testing.T) {
	b := NewBounded(grid.NewGeometry(1), grid.NewShape(grid.Coord{Col: 0, Row: 0}))
	if _, ok := b.SpawnEntity("plant", Transform{Anchor: grid.Coord{Col: 1, Row: 0}}); ok {
		t.Fatal("expected spawn outside bounds to fail")
	}
	b.SetCell(Cell{Coord: grid.Coord{Col: 0, Row: 0}, Terrain: TerrainWater})
	if _, ok := b.SpawnEntity("plant", Transform{Anchor: grid.Coord{Col: 0, Row: 0}}); ok {
		t.Fatal("expected spawn on water to fail")
	}
}

func TestAdjustStat(t *testing.T) {
	b := New(grid.NewGeometry(1))
	b.DefineKind("plant", KindSpec{MaxHealth: 2, Range: 1})
	plant, _ := b.SpawnEntity("plant", Transform{Anchor: grid.Coord{Col: 0, Row: 0}})
	rock, _ := b.SpawnEntity("rock", Transform{Anchor: grid.Coord{Col: 4, Row: 0}})

	if !b.AdjustStat(plant, StatRange, 2) {
		t.Fatal("expected range adjustment to succeed")
	}
	if v, _ := b.Stat(plant, StatRange); v != 3 {
		t.Fatalf("expected range 3, got %d", v)
	}
	if b.AdjustStat(rock, StatHealth, -1) {
		t.Fatal("expected health adjustment on an untracked kind to fail")
	}

	b.AdjustStat(plant, StatHealth, -2)
	dead := b.Dead()
	if len(dead) != 1 || dead[0] != plant {
		t.Fatalf("expected %v to be dead, got %v", plant, dead)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	geom := grid.NewGeometry(1)
	cfg := SmallTestConfig()
	a := Generate(geom, cfg)
	b := Generate(geom, cfg)

	if a.CellCount() == 0 {
		t.Fatal("expected generated cells")
	}
	if a.CellCount() != b.CellCount() {
		t.Fatalf("expected equal cell counts, got %d and %d", a.CellCount(), b.CellCount())
	}
	for c := range a.Bounds() {
		ca, _ := a.Cell(c)
		cb, ok := b.Cell(c)
		if !ok || ca != cb {
			t.Fatalf("cell %v differs between runs: %+v vs %+v", c, ca, cb)
		}
		if ca.Elevation < 0 || ca.Elevation > 1 {
			t.Fatalf("elevation out of range at %v: %v", c, ca.Elevation)
		}
		if ca.Terrain != TerrainSoil && ca.Fertility() != 0 {
			t.Fatalf("expected no fertility off soil at %v", c)
		}
	}

	total := 0
	for _, n := range TerrainCounts(a) {
		total += n
	}
	if total != a.CellCount() {
		t.Fatalf("terrain counts sum to %d, want %d", total, a.CellCount())
	}
	if !a.Contains(grid.Coord{Col: 0, Row: 0}) || a.Contains(grid.Coord{Col: cfg.Radius + 2, Row: 0}) {
		t.Fatal("unexpected board bounds")
	}
}
