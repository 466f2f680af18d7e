package grid

import (
	"math"
	"testing"
)

func TestIsFlipped(t *testing.T) {
	cases := []struct {
		c    Coord
		want bool
	}{
		{Coord{0, 0}, false},
		{Coord{1, 0}, true},
		{Coord{0, 1}, true},
		{Coord{1, 1}, false},
		{Coord{-1, 0}, true},
		{Coord{-3, -5}, false},
		{Coord{-2, 7}, true},
	}
	for _, tc := range cases {
		if got := IsFlipped(tc.c); got != tc.want {
			t.Errorf("IsFlipped(%v) = %v, want %v", tc.c, got, tc.want)
		}
	}
	for col := -9; col <= 9; col++ {
		for row := -9; row <= 9; row++ {
			c := Coord{col, row}
			if IsFlipped(c) != IsFlipped(c.Add(Coord{2, 0})) {
				t.Errorf("IsFlipped(%v) differs from two columns over", c)
			}
			if IsFlipped(c) == IsFlipped(c.Add(Coord{1, 0})) {
				t.Errorf("IsFlipped(%v) matches its column neighbour", c)
			}
		}
	}
}

func TestDirectionValidity(t *testing.T) {
	unflipped := Coord{0, 0}
	flipped := Coord{1, 0}
	for d := Direction(0); d < DirectionCount; d++ {
		even := d%2 == 0
		if IsDirectionValid(d, unflipped) != even {
			t.Errorf("%v valid at unflipped cell = %v, want %v", d, !even, even)
		}
		if IsDirectionValid(d, flipped) == even {
			t.Errorf("%v valid at flipped cell = %v, want %v", d, even, !even)
		}
	}
	if IsDirectionValid(Direction(9), unflipped) {
		t.Fatal("out of range direction should never be valid")
	}
}

func TestDirectionAlgebra(t *testing.T) {
	for d := Direction(0); d < DirectionCount; d++ {
		if d.Opposite().Opposite() != d {
			t.Errorf("Opposite is not an involution for %v", d)
		}
		if FlipDirection(FlipDirection(d)) != d {
			t.Errorf("FlipDirection is not an involution for %v", d)
		}
		if FlipDirection(d)%2 == d%2 {
			t.Errorf("FlipDirection(%v) kept parity", d)
		}
		next := NextDirection(d, false)
		if next%2 != d%2 {
			t.Errorf("NextDirection(%v) changed parity", d)
		}
		if NextDirection(next, true) != d {
			t.Errorf("NextDirection clockwise then counter-clockwise did not return %v", d)
		}
	}
	if Up.Opposite() != Down || UpRight.Opposite() != DownLeft {
		t.Fatal("unexpected opposite directions")
	}
	if NextDirection(Up, false) != DownRight || NextDirection(Up, true) != DownLeft {
		t.Fatal("unexpected next directions from Up")
	}
}

func TestAdjacency(t *testing.T) {
	got := Adjacent(Coord{0, 0})
	want := map[Direction]Coord{
		Up:        {1, 0},
		DownRight: {0, 1},
		DownLeft:  {0, -1},
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 neighbours, got %d", len(got))
	}
	for d, c := range want {
		if got[d] != c {
			t.Errorf("neighbour %v of origin = %v, want %v", d, got[d], c)
		}
	}

	flipped := Adjacent(Coord{1, 0})
	wantFlipped := map[Direction]Coord{
		UpRight: {1, 1},
		Down:    {0, 0},
		UpLeft:  {1, -1},
	}
	for d, c := range wantFlipped {
		if flipped[d] != c {
			t.Errorf("neighbour %v of (1,0) = %v, want %v", d, flipped[d], c)
		}
	}
}

func TestAdjacencyIsSymmetric(t *testing.T) {
	for col := -4; col <= 4; col++ {
		for row := -4; row <= 4; row++ {
			c := Coord{col, row}
			for d, n := range Adjacent(c) {
				if IsFlipped(n) == IsFlipped(c) {
					t.Fatalf("neighbour %v of %v has the same orientation", n, c)
				}
				back, ok := Step(n, d.Opposite())
				if !ok || back != c {
					t.Fatalf("stepping %v from %v did not return to %v", d.Opposite(), n, c)
				}
			}
		}
	}
}

func TestStepInvalidDirection(t *testing.T) {
	c := Coord{2, 2}
	got, ok := Step(c, UpRight)
	if ok || got != c {
		t.Fatalf("expected invalid step to be a no-op, got %v %v", got, ok)
	}
}

func TestWorldPosition(t *testing.T) {
	g := NewGeometry(3)
	p := g.WorldPosition(Coord{0, 0})
	if !near(p.X, 2) || !near(p.Y, 0) || p.RotationY != 0 {
		t.Fatalf("unexpected origin centroid %+v", p)
	}
	q := g.WorldPosition(Coord{1, 0})
	if !near(q.X, 4) || q.RotationY != 180 {
		t.Fatalf("unexpected flipped centroid %+v", q)
	}
	r := g.WorldPosition(Coord{0, 2})
	if !near(r.Y, g.Side()) {
		t.Fatalf("expected two rows to span one side, got %v", r.Y)
	}
}

func TestNewGeometryDefaults(t *testing.T) {
	if g := NewGeometry(0); g.CellHeight != DefaultCellHeight {
		t.Fatalf("expected default height, got %v", g.CellHeight)
	}
	if g := NewGeometry(-2); g.CellHeight != DefaultCellHeight {
		t.Fatalf("expected default height, got %v", g.CellHeight)
	}
}

func TestGridCoordinateRoundTrip(t *testing.T) {
	for _, h := range []float64{1, 0.5, 3.7} {
		g := NewGeometry(h)
		for col := -6; col <= 6; col++ {
			for row := -6; row <= 6; row++ {
				c := Coord{col, row}
				p := g.WorldPosition(c)
				if got := g.GridCoordinate(p.X, p.Y); got != c {
					t.Fatalf("h=%v: round trip of %v gave %v", h, c, got)
				}
			}
		}
	}
}

func TestGridCoordinateEdges(t *testing.T) {
	g := NewGeometry(1)
	half := g.Side() / 2
	// Just inside the slanted edge shared by (0,0) and (0,1).
	if got := g.GridCoordinate(0.6, 0.55*half); got != (Coord{0, 0}) {
		t.Fatalf("expected (0,0), got %v", got)
	}
	if got := g.GridCoordinate(0.4, 0.55*half); got != (Coord{0, 1}) {
		t.Fatalf("expected (0,1), got %v", got)
	}
	if got := g.GridCoordinate(-0.5, -0.1*half); got != (Coord{-1, 0}) {
		t.Fatalf("expected (-1,0), got %v", got)
	}
}

func TestPointInDirectionMatchesAdjacency(t *testing.T) {
	g := NewGeometry(1)
	forward := Coord{1, 0}
	for _, anchor := range []Coord{{0, 0}, {0, 1}, {3, -1}, {-2, 4}} {
		for _, d := range ValidDirections(anchor) {
			got := anchor.Add(g.PointInDirection(d, forward))
			want, _ := Step(anchor, d)
			if got != want {
				t.Errorf("anchor %v facing %v: got %v, want %v", anchor, d, got, want)
			}
		}
	}
}

func TestPointInDirectionPreservesFootprintSize(t *testing.T) {
	g := NewGeometry(1)
	footprint := []Coord{{0, 0}, {1, 0}, {1, 1}, {1, -1}, {2, 0}}
	for d := Direction(0); d < DirectionCount; d++ {
		seen := NewShape()
		for _, rel := range footprint {
			seen.Add(g.PointInDirection(d, rel))
		}
		if seen.Len() != len(footprint) {
			t.Fatalf("facing %v collapsed footprint to %v", d, seen)
		}
	}
	if got := g.PointInDirection(Up, Coord{2, 1}); got != (Coord{2, 1}) {
		t.Fatalf("facing Up should be the identity, got %v", got)
	}
}

func TestPlaceSnapsFacing(t *testing.T) {
	g := NewGeometry(1)
	footprint := []Coord{{0, 0}, {1, 0}}
	got := g.Place(Coord{0, 0}, UpRight, footprint)
	want := NewShape(Coord{0, 0}, Coord{1, 0})
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	flipped := g.Place(Coord{0, 1}, Down, footprint)
	if !flipped.Equal(NewShape(Coord{0, 1}, Coord{-1, 1})) {
		t.Fatalf("unexpected flipped placement %v", flipped)
	}
}

func TestLineLocations(t *testing.T) {
	got := LineLocations(Coord{0, 0}, Up, 3, 0)
	want := []Coord{{0, 0}, {0, 1}, {0, 2}, {0, 3}}
	assertCoords(t, got, want)

	back := LineLocations(Coord{0, 0}, Up, -2, 0)
	assertCoords(t, back, []Coord{{0, 0}, {0, -1}, {0, -2}})

	offset := LineLocations(Coord{0, 0}, Up, 1, 2)
	assertCoords(t, offset, []Coord{{0, 2}, {0, 3}})

	if got := LineLocations(Coord{4, 4}, DownLeft, 0, 5); len(got) != 1 || got[0] != (Coord{4, 4}) {
		t.Fatalf("expected zero length line to hold only its origin, got %v", got)
	}
}

func TestLineLocationsInvalidPerpendicular(t *testing.T) {
	// UpRight is not valid at (0,0) and is flipped to Up.
	got := LineLocations(Coord{0, 0}, UpRight, 2, 0)
	assertCoords(t, got, []Coord{{0, 0}, {0, 1}, {0, 2}})
}

func TestLineCellsAreAdjacent(t *testing.T) {
	for d := Direction(0); d < DirectionCount; d++ {
		cells := LineLocations(Coord{1, 2}, d, 6, 0)
		if len(cells) != 7 {
			t.Fatalf("expected 7 cells, got %d", len(cells))
		}
		for i := 1; i < len(cells); i++ {
			if _, ok := DirectionTo(cells[i-1], cells[i]); !ok {
				t.Fatalf("direction %v: %v and %v are not neighbours", d, cells[i-1], cells[i])
			}
		}
	}
}

func TestScaleUpSingleCell(t *testing.T) {
	origin := NewShape(Coord{0, 0})
	chopped := ScaleUp(origin, 1, true)
	want := NewShape(Coord{0, 0}, Coord{1, 0}, Coord{0, 1}, Coord{0, -1})
	if !chopped.Equal(want) {
		t.Fatalf("expected %v, got %v", want, chopped)
	}

	full := ScaleUp(origin, 1, false)
	wantFull := NewShape(
		Coord{0, 0},
		Coord{1, -2}, Coord{1, -1}, Coord{1, 0}, Coord{1, 1}, Coord{1, 2},
		Coord{0, -2}, Coord{0, -1}, Coord{0, 1}, Coord{0, 2},
		Coord{-1, -1}, Coord{-1, 0}, Coord{-1, 1},
	)
	if !full.Equal(wantFull) {
		t.Fatalf("expected %v, got %v", wantFull, full)
	}
}

func TestScaleUpZeroLayers(t *testing.T) {
	shape := NewShape(Coord{2, 0}, Coord{3, 0})
	if got := ScaleUp(shape, 0, false); !got.Equal(shape) {
		t.Fatalf("expected input back, got %v", got)
	}
	if got := ScaleUp(shape, -3, true); !got.Equal(shape) {
		t.Fatalf("expected input back, got %v", got)
	}
}

func TestScaleUpIsMonotonic(t *testing.T) {
	shape := NewShape(Coord{0, 0}, Coord{1, 0})
	prev := shape
	for layers := 1; layers <= 3; layers++ {
		for _, chop := range []bool{true, false} {
			grown := ScaleUp(shape, layers, chop)
			for c := range shape {
				if !grown.Has(c) {
					t.Fatalf("layers=%d chop=%v lost input cell %v", layers, chop, c)
				}
			}
		}
		next := ScaleUp(shape, layers, false)
		if next.Len() <= prev.Len() {
			t.Fatalf("layers=%d did not grow the shape", layers)
		}
		prev = next
	}
}

func TestScaleUpStaysConnected(t *testing.T) {
	grown := ScaleUp(NewShape(Coord{0, 0}), 2, false)
	visited := NewShape(Coord{0, 0})
	queue := []Coord{{0, 0}}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range Adjacent(c) {
			if grown.Has(n) && !visited.Has(n) {
				visited.Add(n)
				queue = append(queue, n)
			}
		}
	}
	if visited.Len() != grown.Len() {
		t.Fatalf("expected %d connected cells, reached %d", grown.Len(), visited.Len())
	}
}

func TestLocationsInRadius(t *testing.T) {
	if got := LocationsInRadius(Coord{0, 0}, 0); got.Len() != 0 {
		t.Fatalf("expected empty shape, got %v", got)
	}
	one := LocationsInRadius(Coord{5, 5}, 1)
	want := NewShape(Coord{5, 5}, Coord{5, 4}, Coord{5, 6})
	if !one.Equal(want) {
		t.Fatalf("expected %v, got %v", want, one)
	}
	two := LocationsInRadius(Coord{0, 0}, 2)
	for c := range two {
		if float64(c.Col*c.Col)+float64(c.Row*c.Row)/3 >= 4 {
			t.Fatalf("%v lies outside radius 2", c)
		}
		if !two.Has(Coord{-c.Col, c.Row}) || !two.Has(Coord{c.Col, -c.Row}) {
			t.Fatalf("radius shape is not symmetric around %v", c)
		}
	}
	if !two.Has(Coord{1, 2}) || two.Has(Coord{2, 0}) {
		t.Fatalf("unexpected radius 2 membership %v", two)
	}
}

func TestShapeSetOperations(t *testing.T) {
	a := NewShape(Coord{0, 0}, Coord{1, 0}, Coord{2, 0})
	b := NewShape(Coord{2, 0}, Coord{3, 0})
	if !a.Intersects(b) {
		t.Fatal("expected shapes to intersect")
	}
	if got := a.Intersect(b); !got.Equal(NewShape(Coord{2, 0})) {
		t.Fatalf("unexpected intersection %v", got)
	}
	if got := a.Difference(b); got.Len() != 2 || got.Has(Coord{2, 0}) {
		t.Fatalf("unexpected difference %v", got)
	}
	if got := a.Union(b); got.Len() != 4 {
		t.Fatalf("expected 4 cells in union, got %d", got.Len())
	}
	if got := a.String(); got != "{(0,0) (1,0) (2,0)}" {
		t.Fatalf("unexpected string %q", got)
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func assertCoords(t *testing.T, got, want []Coord) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
