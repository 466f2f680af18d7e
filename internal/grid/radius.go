package grid

import "math"

var quadrants = [4]Coord{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

// LocationsInRadius returns the cells whose offset from origin satisfies
// dc² + dr²/3 < radius². Rows are half a side apart, so dividing dr² by
// three approximates euclidean distance in units of cell height. A
// non-positive radius yields an empty shape.
func LocationsInRadius(origin Coord, radius float64) Shape {
	out := make(Shape)
	if radius <= 0 || math.IsNaN(radius) {
		return out
	}
	maxCol := int(math.Ceil(radius))
	maxRow := int(math.Ceil(radius * math.Sqrt(3)))
	r2 := radius * radius
	for dc := 0; dc <= maxCol; dc++ {
		for dr := 0; dr <= maxRow; dr++ {
			if float64(dc*dc)+float64(dr*dr)/3 >= r2 {
				continue
			}
			for _, q := range quadrants {
				out.Add(Coord{Col: origin.Col + q.Col*dc, Row: origin.Row + q.Row*dr})
			}
		}
	}
	return out
}
