package grid

// LineLocations walks a strip of cells perpendicular to the edge normal
// perpendicular. The strip zig-zags, alternating orientation at every cell,
// and advances along the edge shared by consecutive cells. A positive
// length walks forward (clockwise of the normal), a negative one backward.
// startOffset shifts the first cell along the same line before walking.
//
// The result holds |length|+1 cells, first cell first. A zero length yields
// only origin.
func LineLocations(origin Coord, perpendicular Direction, length, startOffset int) []Coord {
	if length == 0 || !perpendicular.Valid() {
		return []Coord{origin}
	}
	p := perpendicular
	if !IsDirectionValid(p, origin) {
		p = FlipDirection(p)
	}

	start := origin
	for range abs(startOffset) {
		start = lineStep(start, p, startOffset > 0)
	}

	forward := length > 0
	cells := make([]Coord, 0, abs(length)+1)
	cells = append(cells, start)
	cur := start
	for range abs(length) {
		cur = lineStep(cur, p, forward)
		cells = append(cells, cur)
	}
	return cells
}

// lineStep moves one cell along the line whose normal is p. Cells sharing
// p's parity leave through p+2 (forward) or p+4 (backward); cells of the
// other parity leave through p+1 or p+5.
func lineStep(c Coord, p Direction, forward bool) Coord {
	var d Direction
	switch {
	case IsDirectionValid(p, c) && forward:
		d = p.rotate(2)
	case IsDirectionValid(p, c):
		d = p.rotate(4)
	case forward:
		d = p.rotate(1)
	default:
		d = p.rotate(5)
	}
	return step(c, d)
}
