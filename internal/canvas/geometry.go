package canvas

// Rect is an axis-aligned rectangle on the canvas surface.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Overlaps reports whether two rectangles intersect on both axes. The
// inequalities are strict: rectangles that only touch along an edge do not
// overlap. This is the predicate behind the reservation non-overlap
// invariant; it is intentionally different from Contains.
func (r Rect) Overlaps(other Rect) bool {
	return r.X < other.X+other.Width &&
		r.X+r.Width > other.X &&
		r.Y < other.Y+other.Height &&
		r.Y+r.Height > other.Y
}

// Contains reports whether the point lies within the closed rectangle.
// Boundaries are inclusive on all four edges: a point exactly on an edge
// counts as inside. Used only for visibility derivation.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}
