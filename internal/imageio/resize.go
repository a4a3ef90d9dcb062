package imageio

import (
	"image"

	"golang.org/x/image/draw"
)

// Stretch resizes img to exactly w×h without preserving aspect ratio.
// The kernel runs on a premultiplied RGBA target so transparent texels do
// not bleed their color into opaque neighbours; ToNRGBA unpremultiplies.
func Stretch(img *image.NRGBA, w, h int) *image.NRGBA {
	if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return ToNRGBA(dst)
}
