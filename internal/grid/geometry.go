package grid

import "math"

// DefaultCellHeight is the triangle height used when none is configured.
const DefaultCellHeight = 1.0

// WorldPoint is a cell centroid in world space plus the rotation, in
// degrees, that orients a triangle mesh onto the cell.
type WorldPoint struct {
	X         float64
	Y         float64
	RotationY float64
}

// Geometry converts between lattice coordinates and world space for a
// given triangle height.
type Geometry struct {
	CellHeight float64
}

// NewGeometry returns a geometry for cellHeight, falling back to
// DefaultCellHeight for non-positive values.
func NewGeometry(cellHeight float64) Geometry {
	if cellHeight <= 0 || math.IsNaN(cellHeight) || math.IsInf(cellHeight, 0) {
		cellHeight = DefaultCellHeight
	}
	return Geometry{CellHeight: cellHeight}
}

func (g Geometry) height() float64 {
	if g.CellHeight <= 0 {
		return DefaultCellHeight
	}
	return g.CellHeight
}

// Side returns the triangle side length, 2h/√3.
func (g Geometry) Side() float64 {
	return 2 * g.height() / math.Sqrt(3)
}

// WorldPosition returns the centroid of c. Unflipped cells have their apex
// at the left of the column band and sit at rotation 0; flipped cells have
// their apex on the right and sit at rotation 180.
func (g Geometry) WorldPosition(c Coord) WorldPoint {
	h := g.height()
	p := WorldPoint{
		X: float64(c.Col)*h + 2*h/3,
		Y: float64(c.Row) * g.Side() / 2,
	}
	if IsFlipped(c) {
		p.X = float64(c.Col)*h + h/3
		p.RotationY = 180
	}
	return p
}

// GridCoordinate returns the cell containing the world point (x, y). Points
// exactly on a shared edge resolve to the cell of the row band they fall in.
func (g Geometry) GridCoordinate(x, y float64) Coord {
	h := g.height()
	half := g.Side() / 2

	fc := x / h
	col := math.Floor(fc)
	fx := fc - col

	fr := y / half
	row := math.Floor(fr + 0.5)
	fy := fr - row

	c := Coord{Col: int(col), Row: int(row)}
	limit := fx
	if IsFlipped(c) {
		limit = 1 - fx
	}
	if math.Abs(fy) <= limit {
		return c
	}
	c.Row += sign(fy)
	return c
}

// PointInDirection rotates a footprint offset authored for an unflipped
// anchor facing Up so that it applies to an anchor facing d. Even
// directions are rotations about the anchor centroid. Odd directions belong
// to flipped anchors and are the mirror image of the matching even facing.
func (g Geometry) PointInDirection(d Direction, rel Coord) Coord {
	if !d.Valid() {
		return rel
	}
	facing := d
	mirrored := d.odd()
	if mirrored {
		facing = d.mirror()
	}

	out := rel
	if turns := int(facing) / 2; turns != 0 {
		pivot := g.WorldPosition(Coord{})
		p := g.WorldPosition(rel)
		dx, dy := p.X-pivot.X, p.Y-pivot.Y
		sin, cos := math.Sincos(float64(turns) * 2 * math.Pi / 3)
		out = g.GridCoordinate(pivot.X+dx*cos-dy*sin, pivot.Y+dx*sin+dy*cos)
	}
	if mirrored {
		out.Col = -out.Col
	}
	return out
}

// Place maps a relative footprint onto anchor facing facing. A facing that
// is not valid at anchor is flipped to its valid counterpart first.
func (g Geometry) Place(anchor Coord, facing Direction, footprint []Coord) Shape {
	if !IsDirectionValid(facing, anchor) {
		facing = FlipDirection(facing)
	}
	out := make(Shape, len(footprint))
	for _, rel := range footprint {
		out.Add(anchor.Add(g.PointInDirection(facing, rel)))
	}
	return out
}
