package grid

import (
	"slices"
	"strings"
)

// Shape is an unordered set of cells.
type Shape map[Coord]struct{}

// NewShape returns a shape holding cells.
func NewShape(cells ...Coord) Shape {
	s := make(Shape, len(cells))
	for _, c := range cells {
		s.Add(c)
	}
	return s
}

// Add inserts c.
func (s Shape) Add(c Coord) {
	s[c] = struct{}{}
}

// AddAll inserts every cell of cells.
func (s Shape) AddAll(cells []Coord) {
	for _, c := range cells {
		s[c] = struct{}{}
	}
}

// Remove deletes c.
func (s Shape) Remove(c Coord) {
	delete(s, c)
}

// Has reports whether c is in the shape. A nil shape is empty.
func (s Shape) Has(c Coord) bool {
	_, ok := s[c]
	return ok
}

// Len returns the number of cells.
func (s Shape) Len() int {
	return len(s)
}

// Clone returns an independent copy.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// Union returns the cells in either shape.
func (s Shape) Union(o Shape) Shape {
	out := s.Clone()
	for c := range o {
		out[c] = struct{}{}
	}
	return out
}

// Difference returns the cells of s that are not in o.
func (s Shape) Difference(o Shape) Shape {
	out := make(Shape)
	for c := range s {
		if !o.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Intersect returns the cells present in both shapes.
func (s Shape) Intersect(o Shape) Shape {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Shape)
	for c := range small {
		if large.Has(c) {
			out[c] = struct{}{}
		}
	}
	return out
}

// Intersects reports whether the shapes share at least one cell.
func (s Shape) Intersects(o Shape) bool {
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	for c := range small {
		if large.Has(c) {
			return true
		}
	}
	return false
}

// Equal reports whether both shapes hold the same cells.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for c := range s {
		if !o.Has(c) {
			return false
		}
	}
	return true
}

// Translate returns the shape shifted by offset. Offsets whose column and
// row sum is odd change cell orientation, so callers placing footprints
// should use Geometry.Place instead.
func (s Shape) Translate(offset Coord) Shape {
	out := make(Shape, len(s))
	for c := range s {
		out[c.Add(offset)] = struct{}{}
	}
	return out
}

// Sorted returns the cells ordered by column, then row.
func (s Shape) Sorted() []Coord {
	out := make([]Coord, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Coord) int {
		if a.Col != b.Col {
			return a.Col - b.Col
		}
		return a.Row - b.Row
	})
	return out
}

func (s Shape) String() string {
	cells := s.Sorted()
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}
