package imageio

import (
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Atlas is a decoded atlas image. It is shared read-only between workers.
type Atlas struct {
	Path  string
	Image *image.NRGBA

	rotOnce sync.Once
	rotated *image.NRGBA
}

// NewAtlas wraps an already decoded image.
func NewAtlas(path string, img image.Image) *Atlas {
	return &Atlas{Path: path, Image: ToNRGBA(img)}
}

// Bounds returns the atlas rectangle.
func (a *Atlas) Bounds() image.Rectangle { return a.Image.Bounds() }

// Rotated returns the whole atlas rotated 90° counter-clockwise. It is
// computed on first use and never mutated afterwards.
func (a *Atlas) Rotated() *image.NRGBA {
	a.rotOnce.Do(func() {
		a.rotated = imaging.Rotate90(a.Image)
	})
	return a.rotated
}

// Crop copies r out of src into a new image anchored at the origin.
func Crop(src image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(src, r)
}

// Pad places img on a transparent canvas enlarged by the given margins.
// Content is copied unscaled with its top-left corner at (left, top).
func Pad(img image.Image, left, top, right, bottom int) *image.NRGBA {
	b := img.Bounds()
	if left == 0 && top == 0 && right == 0 && bottom == 0 {
		return imaging.Clone(img)
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, b.Dx()+left+right, b.Dy()+top+bottom))
	return imaging.Paste(canvas, img, image.Pt(left, top))
}
