package descriptor

// Rect is a pixel rectangle as written by the packer.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Size is a width/height pair.
type Size struct {
	W int
	H int
}

// Frame holds one packed frame from the "frames" object.
type Frame struct {
	Frame            Rect // physical atlas rectangle as packed
	Rotated          bool
	Trimmed          bool
	SourceSize       Size // original untrimmed sprite size
	SpriteSourceSize Rect // trimmed content within the original sprite canvas
}

// Meta holds the "meta" object. Only the canvas size is used.
type Meta struct {
	Image string
	Size  Size
}

// Atlas is a parsed descriptor: canvas size plus frames keyed by name.
type Atlas struct {
	Frames map[string]Frame
	Meta   Meta
}

// CanvasWidth returns the physical width of the packed atlas image.
func (a *Atlas) CanvasWidth() int { return a.Meta.Size.W }

// CanvasHeight returns the physical height of the packed atlas image.
func (a *Atlas) CanvasHeight() int { return a.Meta.Size.H }
