package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

// gradient returns an opaque image whose pixel (x, y) encodes its position.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 7, A: 255})
		}
	}
	return img
}

func TestRotatedIsCounterClockwise(t *testing.T) {
	const w, h = 5, 3
	a := NewAtlas("a.png", gradient(w, h))
	rot := a.Rotated()

	if b := rot.Bounds(); b.Dx() != h || b.Dy() != w {
		t.Fatalf("rotated bounds = %v, want %dx%d", b, h, w)
	}
	// Counter-clockwise: source (x, y) lands at (y, w-1-x).
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if got, want := rot.NRGBAAt(y, w-1-x), a.Image.NRGBAAt(x, y); got != want {
				t.Fatalf("rotated(%d,%d) = %v, want %v", y, w-1-x, got, want)
			}
		}
	}
	if a.Rotated() != rot {
		t.Error("Rotated() recomputed the view")
	}
}

func TestCropAndPad(t *testing.T) {
	src := gradient(10, 10)
	c := Crop(src, image.Rect(2, 3, 6, 8))
	if c.Bounds() != image.Rect(0, 0, 4, 5) {
		t.Fatalf("Crop bounds = %v", c.Bounds())
	}
	if got := c.NRGBAAt(0, 0); got != src.NRGBAAt(2, 3) {
		t.Errorf("Crop(0,0) = %v, want %v", got, src.NRGBAAt(2, 3))
	}

	p := Pad(c, 1, 2, 3, 4)
	if p.Bounds() != image.Rect(0, 0, 4+1+3, 5+2+4) {
		t.Fatalf("Pad bounds = %v", p.Bounds())
	}
	for y := 0; y < p.Bounds().Dy(); y++ {
		for x := 0; x < p.Bounds().Dx(); x++ {
			inside := x >= 1 && x < 5 && y >= 2 && y < 7
			got := p.NRGBAAt(x, y)
			if inside && got != c.NRGBAAt(x-1, y-2) {
				t.Fatalf("Pad(%d,%d) = %v, want content %v", x, y, got, c.NRGBAAt(x-1, y-2))
			}
			if !inside && got.A != 0 {
				t.Fatalf("Pad(%d,%d) = %v, want transparent", x, y, got)
			}
		}
	}

	// Zero padding still returns an independent copy.
	z := Pad(c, 0, 0, 0, 0)
	z.SetNRGBA(0, 0, color.NRGBA{})
	if c.NRGBAAt(0, 0).A == 0 {
		t.Error("Pad with zero margins aliases its input")
	}
}

func TestToNRGBAAnchorsAtOrigin(t *testing.T) {
	src := gradient(8, 8).SubImage(image.Rect(2, 2, 6, 6))
	n := ToNRGBA(src)
	if n.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("bounds = %v", n.Bounds())
	}
	if got := n.NRGBAAt(0, 0); got.R != 2 || got.G != 2 {
		t.Errorf("pixel(0,0) = %v, want source (2,2)", got)
	}
}

func TestStretch(t *testing.T) {
	src := gradient(4, 4)
	if Stretch(src, 4, 4) != src {
		t.Error("Stretch to same size copied the image")
	}
	dst := Stretch(src, 9, 3)
	if dst.Bounds() != image.Rect(0, 0, 9, 3) {
		t.Errorf("Stretch bounds = %v, want 9x3", dst.Bounds())
	}
	if a := dst.NRGBAAt(4, 1).A; a != 255 {
		t.Errorf("opaque source stretched to alpha %d", a)
	}

	// Fully transparent red next to opaque blue: no red may leak.
	edge := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := color.NRGBA{R: 255}
			if x >= 2 {
				c = color.NRGBA{B: 255, A: 255}
			}
			edge.SetNRGBA(x, y, c)
		}
	}
	up := Stretch(edge, 8, 8)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if c := up.NRGBAAt(x, y); c.A > 0 && c.R != 0 {
				t.Fatalf("Stretch(%d,%d) = %v, transparent color bled in", x, y, c)
			}
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: PNG},
		{in: "PNG", want: PNG},
		{in: " webp ", want: WebP},
		{in: "tga", want: TGA},
		{in: "gif", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
	if PNG.Ext() != "png" || Format("").Ext() != "png" || WebP.Ext() != "webp" {
		t.Error("Ext() mismatch")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := gradient(6, 4)
	src.SetNRGBA(1, 1, color.NRGBA{R: 9, G: 8, B: 7, A: 0})

	for _, f := range []Format{PNG, TGA} {
		path := filepath.Join(dir, "atlas."+f.Ext())
		if err := Save(path, src, f); err != nil {
			t.Fatalf("Save(%s) error = %v", f, err)
		}
		a, err := Load(path)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", f, err)
		}
		if a.Bounds() != src.Bounds() {
			t.Fatalf("%s bounds = %v, want %v", f, a.Bounds(), src.Bounds())
		}
		if f != PNG {
			continue
		}
		if got, want := a.Image.NRGBAAt(3, 2), src.NRGBAAt(3, 2); got != want {
			t.Errorf("%s pixel = %v, want %v", f, got, want)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, src, WebP); err != nil {
		t.Fatalf("Encode(webp) error = %v", err)
	}
	img, err := Decode(".webp", buf.Bytes())
	if err != nil {
		t.Fatalf("Decode(webp) error = %v", err)
	}
	if img.Bounds() != src.Bounds() {
		t.Errorf("webp bounds = %v", img.Bounds())
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("Load(missing) succeeded")
	}
}

func TestSupported(t *testing.T) {
	for path, want := range map[string]bool{
		"a.png": true, "b.PNG": true, "c.webp": true, "d.tga": true, "e.json": false, "f": false,
	} {
		if got := Supported(path); got != want {
			t.Errorf("Supported(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestDecodeEveryExtension(t *testing.T) {
	src := gradient(5, 3)
	encoders := map[string]func(io.Writer, image.Image) error{
		".png":  func(w io.Writer, m image.Image) error { return Encode(w, m, PNG) },
		".jpg":  func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) },
		".jpeg": func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) },
		".bmp":  bmp.Encode,
		".webp": func(w io.Writer, m image.Image) error { return Encode(w, m, WebP) },
		".tga":  func(w io.Writer, m image.Image) error { return Encode(w, m, TGA) },
	}
	if len(encoders) != len(Extensions) {
		t.Fatalf("Extensions = %v, test covers %d formats", Extensions, len(encoders))
	}

	dir := t.TempDir()
	for _, ext := range Extensions {
		t.Run(ext, func(t *testing.T) {
			enc, ok := encoders[ext]
			if !ok {
				t.Fatalf("no encoder for %s", ext)
			}
			var buf bytes.Buffer
			if err := enc(&buf, src); err != nil {
				t.Fatalf("encode: %v", err)
			}

			img, err := Decode(ext, buf.Bytes())
			if err != nil {
				t.Fatalf("Decode(%s) error = %v", ext, err)
			}
			if img.Bounds() != src.Bounds() {
				t.Errorf("Decode(%s) bounds = %v, want %v", ext, img.Bounds(), src.Bounds())
			}

			path := filepath.Join(dir, "atlas"+ext)
			if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
				t.Fatal(err)
			}
			a, err := Load(path)
			if err != nil {
				t.Fatalf("Load(%s) error = %v", path, err)
			}
			if a.Bounds() != src.Bounds() {
				t.Errorf("Load(%s) bounds = %v", path, a.Bounds())
			}
		})
	}
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, gradient(2, 2), PNG); err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(".gif", buf.Bytes()); err == nil {
		t.Error("Decode(.gif) succeeded")
	}
	if _, err := Decode(".jpg", buf.Bytes()); err == nil {
		t.Error("Decode(.jpg) accepted PNG bytes")
	}
}
