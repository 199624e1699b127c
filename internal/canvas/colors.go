package canvas

import "sync"

var paletteColors = []string{
	"#FF6B6B", // red
	"#4ECDC4", // teal
	"#45B7D1", // sky blue
	"#96CEB4", // sage
	"#FFEAA7", // yellow
	"#DDA0DD", // plum
	"#98D8C8", // mint
	"#F7DC6F", // gold
	"#BB8FCE", // purple
	"#85C1E9", // light blue
	"#F8B500", // amber
	"#00CED1", // dark cyan
	"#FF7F50", // coral
	"#9370DB", // medium purple
	"#20B2AA", // light sea green
}

// Palette hands out participant colors from a fixed list in round-robin
// order, so colors are evenly distributed across concurrently active
// sessions. Each protocol instance owns its own Palette.
type Palette struct {
	mu    sync.Mutex
	index int
}

// NewPalette returns a palette starting at the first color.
func NewPalette() *Palette {
	return &Palette{}
}

// Next returns the next color in rotation.
func (p *Palette) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	color := paletteColors[p.index%len(paletteColors)]
	p.index++
	return color
}
