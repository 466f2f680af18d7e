package grid

// edgeDetail records one boundary edge of a shape: the inside cell, the
// outward normal, and whether the corner clockwise of that edge is open and
// needs an extra cell to close the ring.
type edgeDetail struct {
	anchor Coord
	dir    Direction
	capped bool
}

// ScaleUp grows shape by layers rings. Every boundary edge contributes a
// band of lines parallel to it; ring i of a band is 3+2i cells long and the
// band is capped at open corners so consecutive bands meet. With chop the
// line ends and corner caps are dropped, which keeps growth to the cells
// directly across each edge. A single cell grown by one layer becomes the
// cell plus its three edge neighbours (4 cells) with chop, and 13 cells
// without. A layer count below one returns shape as is.
func ScaleUp(shape Shape, layers int, chop bool) Shape {
	if layers < 1 {
		return shape
	}
	out := shape.Clone()
	for _, detail := range boundaryEdges(shape) {
		start := ringStart(detail)
		for ring := range layers {
			out.AddAll(detail.ring(start, ring, chop))
			start = step(step(start, detail.dir), detail.dir.rotate(5))
		}
	}
	return out
}

func boundaryEdges(shape Shape) []edgeDetail {
	var details []edgeDetail
	for _, a := range shape.Sorted() {
		for _, d := range ValidDirections(a) {
			if shape.Has(step(a, d)) {
				continue
			}
			corner := step(a, NextDirection(d, false))
			details = append(details, edgeDetail{anchor: a, dir: d, capped: !shape.Has(corner)})
		}
	}
	return details
}

// ringStart returns the first cell of the innermost ring: one step across
// the edge, then one step backward along the edge.
func ringStart(detail edgeDetail) Coord {
	across := step(detail.anchor, detail.dir)
	return step(across, detail.dir.rotate(5))
}

func (detail edgeDetail) ring(start Coord, ring int, chop bool) []Coord {
	cells := LineLocations(start, detail.dir, 2+2*ring, 0)
	if chop {
		return cells[1 : len(cells)-1]
	}
	if detail.capped {
		cells = append(cells, lineStep(cells[len(cells)-1], detail.dir, true))
	}
	return cells
}
