package grid

// Direction is one of the six edge normals of the lattice, listed clockwise
// starting at +X. Even directions are edge normals of unflipped cells, odd
// directions of flipped cells; every cell therefore has exactly three valid
// directions.
type Direction uint8

const (
	Up        Direction = iota // +X
	UpRight                    // 60°
	DownRight                  // 120°
	Down                       // -X
	DownLeft                   // 240°
	UpLeft                     // 300°
)

// DirectionCount is the number of lattice directions.
const DirectionCount = 6

var directionNames = [DirectionCount]string{
	Up:        "Up",
	UpRight:   "UpRight",
	DownRight: "DownRight",
	Down:      "Down",
	DownLeft:  "DownLeft",
	UpLeft:    "UpLeft",
}

// stepOffsets holds the neighbour offset for each direction at a cell where
// that direction is valid.
var stepOffsets = [DirectionCount]Coord{
	Up:        {Col: 1, Row: 0},
	UpRight:   {Col: 0, Row: 1},
	DownRight: {Col: 0, Row: 1},
	Down:      {Col: -1, Row: 0},
	DownLeft:  {Col: 0, Row: -1},
	UpLeft:    {Col: 0, Row: -1},
}

func (d Direction) String() string {
	if !d.Valid() {
		return "Invalid"
	}
	return directionNames[d]
}

// Valid reports whether d is one of the six defined directions.
func (d Direction) Valid() bool {
	return d < DirectionCount
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	return d.rotate(3)
}

// Degrees returns the clockwise angle of d measured from +X.
func (d Direction) Degrees() float64 {
	return float64(d) * 60
}

func (d Direction) odd() bool {
	return d%2 == 1
}

func (d Direction) rotate(steps int) Direction {
	return Direction(((int(d)+steps)%DirectionCount + DirectionCount) % DirectionCount)
}

// mirror reflects a direction through the column axis: Up and Down swap,
// and each diagonal swaps with its counterpart of the other parity.
func (d Direction) mirror() Direction {
	return Direction((3 - int(d) + DirectionCount) % DirectionCount)
}

// IsDirectionValid reports whether d is an edge normal of c. Callers holding
// an invalid direction are expected to FlipDirection it first.
func IsDirectionValid(d Direction, c Coord) bool {
	return d.Valid() && d.odd() == IsFlipped(c)
}

// FlipDirection toggles the low bit of d, yielding the adjacent direction of
// the opposite parity.
func FlipDirection(d Direction) Direction {
	return d ^ 1
}

// NextDirection rotates d by one shared-vertex step (120°) while keeping its
// parity. Reaching the neighbour of the other orientation takes two calls
// with a FlipDirection in between.
func NextDirection(d Direction, counterClockwise bool) Direction {
	if counterClockwise {
		return d.rotate(-2)
	}
	return d.rotate(2)
}

// ValidDirections returns the three valid directions of c in clockwise order.
func ValidDirections(c Coord) [3]Direction {
	first := Up
	if IsFlipped(c) {
		first = UpRight
	}
	return [3]Direction{first, first.rotate(2), first.rotate(4)}
}

// Step returns the edge neighbour of c in direction d. ok is false when d is
// not valid at c, in which case c is returned unchanged.
func Step(c Coord, d Direction) (Coord, bool) {
	if !IsDirectionValid(d, c) {
		return c, false
	}
	return c.Add(stepOffsets[d]), true
}

// step is Step for callers that already know d is valid at c.
func step(c Coord, d Direction) Coord {
	return c.Add(stepOffsets[d])
}

// Adjacent returns the three edge neighbours of c keyed by direction.
func Adjacent(c Coord) map[Direction]Coord {
	out := make(map[Direction]Coord, 3)
	for _, d := range ValidDirections(c) {
		out[d] = step(c, d)
	}
	return out
}

// DirectionTo returns the direction from c to an edge neighbour n.
func DirectionTo(c, n Coord) (Direction, bool) {
	for _, d := range ValidDirections(c) {
		if step(c, d) == n {
			return d, true
		}
	}
	return 0, false
}
