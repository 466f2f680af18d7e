package main

import (
	"testing"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/grid"
)

func TestPlantGarden(t *testing.T) {
	b := board.Generate(grid.NewGeometry(1), board.SmallTestConfig())
	defineKinds(b)
	sim := engine.NewSimulation(b)
	seedFertility(sim, b)

	placed, err := plantGarden(sim, b, 42)
	if err != nil {
		t.Fatalf("plant garden: %v", err)
	}
	if placed == 0 || placed != b.EntityCount() {
		t.Fatalf("expected %d entities on the board, got %d", placed, b.EntityCount())
	}

	perKind := map[board.Kind]int{}
	for _, ref := range b.Entities() {
		kind, _ := b.KindOf(ref)
		perKind[kind]++
	}
	if perKind[kindPlant] > plantCount || perKind[kindTrash] > trashCount || perKind[kindWell] > wellCount {
		t.Fatalf("too many entities placed: %v", perKind)
	}
	want := 2*perKind[kindPlant] + 2*perKind[kindTrash] + perKind[kindWell]
	if got := sim.Effects.Len(); got != want {
		t.Fatalf("expected %d effects, got %d", want, got)
	}
	if perKind[kindPlant] > 0 && sim.Fields.Total(fieldShade) == 0 {
		t.Fatal("expected activated plants to cast shade")
	}

	sim.RunCycles(3)
	if sim.CurrentCycle() != 3 || !sim.Bus.IsPlayerTurn() {
		t.Fatalf("expected to stop on cycle 3 PlayerTurn, got cycle %d", sim.CurrentCycle())
	}
}
