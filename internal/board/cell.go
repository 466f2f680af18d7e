package board

import (
	"math"

	"github.com/talgya/trigrid/internal/grid"
)

// Terrain classifies a board cell.
type Terrain uint8

const (
	TerrainSoil  Terrain = iota // Plantable ground
	TerrainRock                 // Passable, barren
	TerrainWater                // Blocks placement
)

// Cell is the static state of one board location.
type Cell struct {
	Coord     grid.Coord `json:"coord"`
	Terrain   Terrain    `json:"terrain"`
	Elevation float64    `json:"elevation"` // 0.0 to 1.0
	Moisture  float64    `json:"moisture"`  // 0.0 to 1.0
}

// Passable reports whether entities may be placed on the cell.
func (c Cell) Passable() bool {
	return c.Terrain != TerrainWater
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainSoil:
		return "Soil"
	case TerrainRock:
		return "Rock"
	case TerrainWater:
		return "Water"
	default:
		return "Unknown"
	}
}

// Fertility is the seed strength of the fertility field on this cell: zero
// off soil, otherwise moisture scaled to 0..4.
func (c Cell) Fertility() int {
	if c.Terrain != TerrainSoil {
		return 0
	}
	return int(math.Round(c.Moisture * 4))
}
