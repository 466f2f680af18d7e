package main

import (
	"fmt"
	"math/rand"

	"github.com/talgya/trigrid/internal/board"
	"github.com/talgya/trigrid/internal/effect"
	"github.com/talgya/trigrid/internal/engine"
	"github.com/talgya/trigrid/internal/field"
	"github.com/talgya/trigrid/internal/grid"
	"github.com/talgya/trigrid/internal/resource"
	"github.com/talgya/trigrid/internal/trigger"
)

const (
	fieldShade     field.Type = "shade"
	fieldFertility field.Type = "fertility"

	kindPlant  board.Kind = "plant"
	kindSprout board.Kind = "sprout"
	kindTrash  board.Kind = "trash"
	kindWell   board.Kind = "well"

	water resource.Type = "water"
)

// Garden population per board.
const (
	plantCount = 6
	trashCount = 3
	wellCount  = 2
)

func defineKinds(b *board.Board) {
	b.DefineKind(kindPlant, board.KindSpec{MaxHealth: 4, Range: 1})
	b.DefineKind(kindSprout, board.KindSpec{MaxHealth: 2})
	b.DefineKind(kindTrash, board.KindSpec{Range: 1})
	b.DefineKind(kindWell, board.KindSpec{Footprint: []grid.Coord{{Col: 0, Row: 0}, {Col: 1, Row: 0}}, Range: 2})
}

// seedFertility copies terrain fertility into the fertility field.
func seedFertility(sim *engine.Simulation, b *board.Board) {
	strengths := make(map[grid.Coord]int)
	for _, c := range board.SoilCells(b) {
		cell, _ := b.Cell(c)
		if f := cell.Fertility(); f > 0 {
			strengths[c] = f
		}
	}
	sim.SeedField(fieldFertility, strengths)
}

// plantGarden scatters plants, trash and wells over soil cells and wires
// their effects, faucets and sinks. It returns the number placed.
func plantGarden(sim *engine.Simulation, b *board.Board, seed int64) (int, error) {
	rng := rand.New(rand.NewSource(seed + 100))
	cells := board.SoilCells(b)
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	wants := []struct {
		kind  board.Kind
		count int
		wire  func(*engine.Simulation, board.EntityRef) error
	}{
		{kindWell, wellCount, wireWell},
		{kindPlant, plantCount, wirePlant},
		{kindTrash, trashCount, wireTrash},
	}

	placed := 0
	next := 0
	for _, w := range wants {
		for n := 0; n < w.count && next < len(cells); next++ {
			ref, err := sim.Spawn(w.kind, board.Transform{Anchor: cells[next], Facing: grid.Direction(rng.Intn(grid.DirectionCount))})
			if err != nil {
				continue
			}
			if err := w.wire(sim, ref); err != nil {
				return placed, fmt.Errorf("wire %s: %w", w.kind, err)
			}
			sim.FireLocal(trigger.Activated, ref)
			placed++
			n++
		}
	}
	return placed, nil
}

func wirePlant(sim *engine.Simulation, ref board.EntityRef) error {
	if _, err := sim.AddSink(ref, resource.SinkConfig{
		Kind:       resource.HealthIncrement,
		Accepts:    water,
		MaxPerTurn: 1,
		ApplyOn:    trigger.Growth,
	}); err != nil {
		return err
	}
	if _, err := sim.RegisterEffect(effect.Config{
		Owner:          ref,
		RangeFromOwner: true,
		Chop:           true,
		Variant:        effect.ApplyField{Field: fieldShade, Strength: 1},
		ActivateOn:     []trigger.Kind{trigger.Activated, trigger.PlantActive},
	}); err != nil {
		return err
	}
	_, err := sim.RegisterEffect(effect.Config{
		Owner:              ref,
		Range:              1,
		Chop:               true,
		Variant:            effect.SpawnEntities{Kind: kindSprout},
		ActivateOn:         []trigger.Kind{trigger.Growth, trigger.EntityKilled},
		InvalidCauserKinds: []board.Kind{kindSprout},
	})
	return err
}

func wireTrash(sim *engine.Simulation, ref board.EntityRef) error {
	if _, err := sim.RegisterEffect(effect.Config{
		Owner:        ref,
		Range:        1,
		Variant:      effect.DamageEntities{Amount: 1},
		ActivateOn:   []trigger.Kind{trigger.Damage},
		DeactivateOn: []trigger.Kind{trigger.TrashActive},
	}); err != nil {
		return err
	}
	_, err := sim.RegisterEffect(effect.Config{
		Owner:      ref,
		Range:      1,
		Chop:       true,
		Variant:    effect.ModifyRange{Delta: -1},
		ActivateOn: []trigger.Kind{trigger.TrashActive},
	})
	return err
}

func wireWell(sim *engine.Simulation, ref board.EntityRef) error {
	faucet, err := sim.AddFaucet(ref, water, 1, true)
	if err != nil {
		return err
	}
	_, err = sim.RegisterEffect(effect.Config{
		Owner:          ref,
		RangeFromOwner: true,
		Variant:        effect.ProvideResource{Faucet: faucet},
		ActivateOn:     []trigger.Kind{trigger.Spawn},
		DeactivateOn:   []trigger.Kind{trigger.EntityKilled, trigger.EntityRemoved},
	})
	return err
}
