package canvas

import "testing"

func TestOverlapsSymmetry(t *testing.T) {
	pairs := []struct {
		name string
		a    Rect
		b    Rect
	}{
		{name: "overlapping", a: Rect{X: 0, Y: 0, Width: 10, Height: 10}, b: Rect{X: 5, Y: 5, Width: 10, Height: 10}},
		{name: "disjoint", a: Rect{X: 0, Y: 0, Width: 10, Height: 10}, b: Rect{X: 20, Y: 20, Width: 5, Height: 5}},
		{name: "edge-adjacent", a: Rect{X: 0, Y: 0, Width: 10, Height: 10}, b: Rect{X: 10, Y: 0, Width: 10, Height: 10}},
		{name: "contained", a: Rect{X: 0, Y: 0, Width: 100, Height: 100}, b: Rect{X: 40, Y: 40, Width: 10, Height: 10}},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			if tt.a.Overlaps(tt.b) != tt.b.Overlaps(tt.a) {
				t.Fatalf("overlap is not symmetric for %+v and %+v", tt.a, tt.b)
			}
		})
	}
}

func TestOverlapsStrictness(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}

	sharingEdge := Rect{X: 10, Y: 0, Width: 10, Height: 10}
	if a.Overlaps(sharingEdge) {
		t.Fatalf("rectangles sharing only an edge must not overlap")
	}

	shifted := Rect{X: 9, Y: 0, Width: 10, Height: 10}
	if !a.Overlaps(shifted) {
		t.Fatalf("expected overlap after shifting one unit into the neighbor")
	}

	sharingCorner := Rect{X: 10, Y: 10, Width: 10, Height: 10}
	if a.Overlaps(sharingCorner) {
		t.Fatalf("rectangles sharing only a corner must not overlap")
	}
}

func TestContainsInclusiveBoundaries(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 20}

	tests := []struct {
		name   string
		x, y   float64
		inside bool
	}{
		{name: "interior", x: 15, y: 15, inside: true},
		{name: "left-edge", x: 10, y: 15, inside: true},
		{name: "right-edge", x: 30, y: 15, inside: true},
		{name: "top-edge", x: 15, y: 10, inside: true},
		{name: "bottom-edge", x: 15, y: 30, inside: true},
		{name: "corner", x: 30, y: 30, inside: true},
		{name: "just-outside", x: 30.5, y: 15, inside: false},
		{name: "far-away", x: 100, y: 100, inside: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.x, tt.y); got != tt.inside {
				t.Fatalf("Contains(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.inside)
			}
		})
	}
}
