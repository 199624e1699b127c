package canvas

import "testing"

func TestPaletteRoundRobin(t *testing.T) {
	palette := NewPalette()

	first := palette.Next()
	second := palette.Next()
	if first == second {
		t.Fatalf("consecutive colors should differ, both were %s", first)
	}

	// A full rotation returns to the start.
	for i := 0; i < len(paletteColors)-2; i++ {
		palette.Next()
	}
	if wrapped := palette.Next(); wrapped != first {
		t.Fatalf("expected palette to wrap to %s, got %s", first, wrapped)
	}
}

func TestPaletteInstancesAreIndependent(t *testing.T) {
	a := NewPalette()
	b := NewPalette()

	a.Next()
	a.Next()
	if got := b.Next(); got != paletteColors[0] {
		t.Fatalf("fresh palette should start at the first color, got %s", got)
	}
}
