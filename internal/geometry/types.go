package geometry

import (
	"fmt"
	"image"
)

// Region is the pixel rectangle cropped from the (possibly rotated) atlas.
type Region struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Padding is the transparent margin restored around a cropped frame.
type Padding struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Valid reports whether no side is negative.
func (p Padding) Valid() bool {
	return p.Left >= 0 && p.Top >= 0 && p.Right >= 0 && p.Bottom >= 0
}

// Sprite is the resolved extraction geometry of one frame.
type Sprite struct {
	Region  Region
	Padding Padding
	Rotated bool // extractor must pre-rotate the atlas before cropping
}

// PaddedSize returns the canvas size after padding.
func (s Sprite) PaddedSize() (w, h int) {
	return s.Region.Width + s.Padding.Left + s.Padding.Right,
		s.Region.Height + s.Padding.Top + s.Padding.Bottom
}

// RegionOutOfBoundsError reports a region that does not fit the atlas.
type RegionOutOfBoundsError struct {
	Name   string
	Region Region
	Bounds image.Rectangle
}

func (e *RegionOutOfBoundsError) Error() string {
	return fmt.Sprintf("geometry: region %v of %q outside atlas bounds %v", e.Region.Rect(), e.Name, e.Bounds)
}

// CheckBounds verifies that the region lies inside the working image. For
// rotated sprites the working image is the atlas rotated 90°, so the bounds
// are transposed.
func CheckBounds(name string, s Sprite, atlas image.Rectangle, rotated bool) error {
	bounds := image.Rect(0, 0, atlas.Dx(), atlas.Dy())
	if rotated {
		bounds = image.Rect(0, 0, atlas.Dy(), atlas.Dx())
	}
	r := s.Region.Rect()
	if s.Region.Width <= 0 || s.Region.Height <= 0 || r.Min.X < 0 || r.Min.Y < 0 || !r.In(bounds) {
		return &RegionOutOfBoundsError{Name: name, Region: s.Region, Bounds: bounds}
	}
	return nil
}
