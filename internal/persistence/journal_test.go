package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/trigger"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	if _, err := j.BeginRun(context.Background(), 7); err != nil {
		t.Fatalf("begin run: %v", err)
	}
	return j
}

func TestFlushWritesTriggers(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	if j.RunID() == "" {
		t.Fatal("expected a run id")
	}

	sim := engine.NewSimulation(board.New(grid.NewGeometry(1)))
	sim.Attach(j)
	ref, err := sim.Spawn("plant", board.Transform{Anchor: grid.Coord{Col: 2, Row: 0}})
	if err != nil {
		t.Fatal(err)
	}
	sim.RunCycles(1)

	if got := j.Pending(); got != 1+trigger.PhaseCount {
		t.Fatalf("expected %d pending triggers, got %d", 1+trigger.PhaseCount, got)
	}
	n, err := j.Flush(ctx)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 1+trigger.PhaseCount || j.Pending() != 0 {
		t.Fatalf("expected %d written and none pending, got %d and %d", 1+trigger.PhaseCount, n, j.Pending())
	}

	rows, err := j.RecentTriggers(ctx, 100)
	if err != nil {
		t.Fatalf("recent triggers: %v", err)
	}
	if len(rows) != n {
		t.Fatalf("expected %d rows, got %d", n, len(rows))
	}
	if rows[0].Kind != "PlayerTurn" || rows[0].Cycle != 1 {
		t.Fatalf("expected newest row to be PlayerTurn of cycle 1, got %+v", rows[0])
	}
	spawned := rows[len(rows)-1]
	if spawned.Kind != "EntitySpawned" || spawned.Causer != ref.String() {
		t.Fatalf("expected oldest row to be the spawn of %v, got %+v", ref, spawned)
	}
	locs, err := DecodeLocations(spawned.Locations)
	if err != nil {
		t.Fatal(err)
	}
	if !locs.Equal(grid.NewShape(grid.Coord{Col: 2, Row: 0})) {
		t.Fatalf("expected spawn location (2,0), got %v", locs)
	}

	if n, err := j.Flush(ctx); err != nil || n != 0 {
		t.Fatalf("expected empty flush, got %d %v", n, err)
	}
}

func TestFieldSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	cells := map[grid.Coord]int{{Col: 0, Row: 0}: 2, {Col: 1, Row: -1}: 5}

	if err := j.SnapshotField(ctx, 3, "shade", cells); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if err := j.SnapshotField(ctx, 3, "shade", cells); err != nil {
		t.Fatalf("second snapshot: %v", err)
	}
	got, err := j.FieldSnapshot(ctx, 3, "shade")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(got) != 2 || got[grid.Coord{Col: 1, Row: -1}] != 5 {
		t.Fatalf("unexpected snapshot %v", got)
	}
	empty, err := j.FieldSnapshot(ctx, 4, "shade")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty snapshot, got %v %v", empty, err)
	}
}

func TestMeta(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	if err := j.SaveMeta(ctx, "seed", "42"); err != nil {
		t.Fatal(err)
	}
	if err := j.SaveMeta(ctx, "seed", "43"); err != nil {
		t.Fatal(err)
	}
	v, err := j.GetMeta(ctx, "seed")
	if err != nil || v != "43" {
		t.Fatalf("expected 43, got %q %v", v, err)
	}
	if _, err := j.GetMeta(ctx, "missing"); err == nil {
		t.Fatal("expected an error for a missing key")
	}
}

func TestSaveCycle(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)
	b := board.New(grid.NewGeometry(1))
	sim := engine.NewSimulation(b)
	sim.Attach(j)
	ref, _ := sim.Spawn("plant", board.Transform{Anchor: grid.Coord{Col: 0, Row: 0}})
	sim.Kill(ref)
	sim.RunCycles(1)

	if err := j.SaveCycle(ctx, sim, sim.Events); err != nil {
		t.Fatalf("save cycle: %v", err)
	}
	events, err := j.RecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("recent events: %v", err)
	}
	if len(events) != 2 || events[0].Category != "death" || events[1].Category != "spawn" {
		t.Fatalf("unexpected events %+v", events)
	}
	last, err := j.GetMeta(ctx, "last_cycle")
	if err != nil || last != "1" {
		t.Fatalf("expected last_cycle 1, got %q %v", last, err)
	}
}
