// Package grid provides the triangular lattice the board is built on.
// Cells are addressed by (column, row). Columns advance along world X in
// steps of one triangle height, rows advance along world Y in steps of half
// a triangle side, and neighbouring cells alternate orientation.
package grid

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Coord identifies a single triangular cell.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// Add returns the component-wise sum of two coordinates.
func (c Coord) Add(o Coord) Coord {
	return Coord{Col: c.Col + o.Col, Row: c.Row + o.Row}
}

// Sub returns the component-wise difference of two coordinates.
func (c Coord) Sub(o Coord) Coord {
	return Coord{Col: c.Col - o.Col, Row: c.Row - o.Row}
}

// Flipped reports whether the cell points toward +X. See IsFlipped.
func (c Coord) Flipped() bool {
	return IsFlipped(c)
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// IsFlipped returns the orientation parity of a cell: the XOR of column and
// row parity. Unflipped cells point toward -X with their flat edge facing +X;
// flipped cells are the mirror image.
func IsFlipped(c Coord) bool {
	return (abs(c.Col)%2)^(abs(c.Row)%2) == 1
}

// Less orders coordinates by column, then row.
func Less(a, b Coord) bool {
	if a.Col != b.Col {
		return a.Col < b.Col
	}
	return a.Row < b.Row
}

func abs[T constraints.Signed](v T) T {
	if v < 0 {
		return -v
	}
	return v
}

func sign[T constraints.Signed | constraints.Float](v T) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
