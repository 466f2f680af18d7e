// Board generation using layered simplex noise.
// Elevation and moisture maps are sampled at cell centroids and terrain is
// derived from them.
package board

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/trigrid/internal/grid"
)

// GenConfig holds board generation parameters.
type GenConfig struct {
	Radius     int     // Board radius in cell heights
	Seed       int64   // Random seed (0 = random)
	WaterLevel float64 // Elevation below which cells are water (0.0–1.0)
	RockLevel  float64 // Elevation above which cells are rock (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:     12,
		Seed:       0,
		WaterLevel: 0.22,
		RockLevel:  0.78,
	}
}

// SmallTestConfig returns a tiny board for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Radius:     4,
		Seed:       42,
		WaterLevel: 0.20,
		RockLevel:  0.80,
	}
}

// Generate creates a bounded board with terrain for every cell within
// cfg.Radius of the origin.
func Generate(geom grid.Geometry, cfg GenConfig) *Board {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	elevNoise := opensimplex.NewNormalized(seed)
	moistNoise := opensimplex.NewNormalized(seed + 1)

	b := NewBounded(geom, grid.LocationsInRadius(grid.Coord{}, float64(cfg.Radius)))
	h := geom.CellHeight
	if h <= 0 {
		h = grid.DefaultCellHeight
	}

	for c := range b.cells {
		p := geom.WorldPosition(c)
		// Sample in cell-height units so terrain does not depend on scale.
		x, y := p.X/h, p.Y/h

		elev := octaveNoise(elevNoise, x, y, 4, 0.12, 0.5)
		moist := octaveNoise(moistNoise, x, y, 3, 0.09, 0.5)

		b.cells[c] = &Cell{
			Coord:     c,
			Terrain:   deriveTerrain(elev, cfg),
			Elevation: elev,
			Moisture:  moist,
		}
	}
	return b
}

func deriveTerrain(elev float64, cfg GenConfig) Terrain {
	switch {
	case elev < cfg.WaterLevel:
		return TerrainWater
	case elev > cfg.RockLevel:
		return TerrainRock
	default:
		return TerrainSoil
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return math.Min(1, math.Max(0, total/maxVal))
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(b *Board) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, cell := range b.cells {
		counts[cell.Terrain]++
	}
	return counts
}

// SoilCells returns the soil cells of b ordered by column, then row.
func SoilCells(b *Board) []grid.Coord {
	var out []grid.Coord
	for _, c := range b.Bounds().Sorted() {
		if b.cells[c].Terrain == TerrainSoil {
			out = append(out, c)
		}
	}
	return out
}
