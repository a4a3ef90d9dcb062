package unpack

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"packcraft/internal/descriptor"
	"packcraft/internal/extract"
	"packcraft/internal/imageio"
	"packcraft/internal/lua"
	"packcraft/internal/sheet"
	"packcraft/internal/source"

	"github.com/rs/zerolog"
)

const unitsJSON = `{
  "frames": {
    "human/archer/1.png": {"frame": {"x": 0, "y": 0, "w": 8, "h": 8}, "spriteSourceSize": {"x": 0, "y": 0, "w": 8, "h": 8}, "sourceSize": {"w": 8, "h": 8}},
    "human/archer/2.png": {"frame": {"x": 8, "y": 0, "w": 8, "h": 8}, "spriteSourceSize": {"x": 0, "y": 0, "w": 8, "h": 8}, "sourceSize": {"w": 8, "h": 8}},
    "loose.png": {"frame": {"x": 0, "y": 0, "w": 1, "h": 1}, "spriteSourceSize": {"x": 0, "y": 0, "w": 1, "h": 1}, "sourceSize": {"w": 1, "h": 1}}
  },
  "meta": {"image": "units.png", "size": {"w": 16, "h": 8}}
}`

const brokenJSON = `{
  "frames": {"a/b/1.png": {"frame": {"x": 0, "y": 0, "h": 8}, "spriteSourceSize": {"x": 0, "y": 0, "w": 8, "h": 8}, "sourceSize": {"w": 8, "h": 8}}},
  "meta": {"size": {"w": 16, "h": 8}}
}`

func writeAtlas(t *testing.T, dir, stem, descriptorJSON string) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 32), A: 255})
		}
	}
	f, err := os.Create(filepath.Join(dir, stem+".png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()
	if err := os.WriteFile(filepath.Join(dir, stem+".json"), []byte(descriptorJSON), 0644); err != nil {
		t.Fatal(err)
	}
}

func newService(out string) *Service {
	return New(Options{
		OutputPath: out,
		Format:     imageio.PNG,
		Workers:    2,
		Manifest:   true,
		Logger:     zerolog.Nop(),
	})
}

func TestRunSingleAtlas(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeAtlas(t, in, "units", unitsJSON)

	var frames atomic.Int32
	svc := New(Options{
		OutputPath: out,
		Format:     imageio.PNG,
		Workers:    2,
		Manifest:   true,
		Logger:     zerolog.Nop(),
		OnFrame:    func(extract.Result) { frames.Add(1) },
	})
	results, err := svc.Run(filepath.Join(in, "units"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Run() = %d results, want 1", len(results))
	}

	r := results[0]
	if r.Frames != 3 || r.Extract.Extracted != 2 || r.Extract.Skipped != 1 {
		t.Errorf("extract = %+v of %d frames", r.Extract, r.Frames)
	}
	if n := frames.Load(); n != 3 {
		t.Errorf("OnFrame called %d times, want 3", n)
	}

	for _, rel := range []string{
		"human/archer/1.png",
		"human/archer/2.png",
		"human/archer/" + sheet.FileName + ".png",
		"human/archer/" + lua.FileName,
		"units" + ManifestSuffix,
	} {
		if _, err := os.Stat(filepath.Join(out, filepath.FromSlash(rel))); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}

	sheetImg, err := imageio.Load(filepath.Join(out, "human", "archer", sheet.FileName+".png"))
	if err != nil {
		t.Fatal(err)
	}
	if b := sheetImg.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("sheet = %v, want 16x8", b)
	}

	stats := svc.Stats().All()
	if len(stats) != 1 {
		t.Fatalf("recorded %d stats, want 1", len(stats))
	}
	st := stats[0]
	if st.SheetName != "units.png" || st.Width != 16 || st.TotalUnits != 3 || st.ProcessedUnits != 2 {
		t.Errorf("stats = %+v", st)
	}
	if len(st.Warnings) != 1 || !strings.Contains(st.Warnings[0], "loose.png") {
		t.Errorf("warnings = %q", st.Warnings)
	}
}

func TestRunIsolatesFailingAtlas(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeAtlas(t, in, "broken", brokenJSON)
	writeAtlas(t, in, "units", unitsJSON)

	svc := newService(out)
	results, err := svc.Run(in)

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("Run() error = %v, want *BatchError", err)
	}
	if batchErr.Total != 2 || len(batchErr.Failed) != 1 {
		t.Fatalf("BatchError = %v", batchErr)
	}
	var pe *descriptor.ParseError
	if !errors.As(err, &pe) || pe.Field != "frames[a/b/1.png].frame.w" {
		t.Errorf("errors.As ParseError = %v", pe)
	}

	if len(results) != 2 || results[0].Err == nil || results[1].Err != nil {
		t.Fatalf("results = %+v", results)
	}
	if results[1].Extract.Extracted != 2 {
		t.Errorf("healthy atlas extracted %d, want 2", results[1].Extract.Extracted)
	}
	if _, err := os.Stat(filepath.Join(out, "a")); !os.IsNotExist(err) {
		t.Errorf("broken atlas produced output: %v", err)
	}

	stats := svc.Stats().All()
	if len(stats) != 2 || len(stats[0].Errors) != 1 || len(stats[1].Errors) != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRunMissingInput(t *testing.T) {
	in := t.TempDir()
	// Texture without descriptor.
	writeAtlas(t, in, "units", unitsJSON)
	os.Remove(filepath.Join(in, "units.json"))

	_, err := newService(t.TempDir()).Run(filepath.Join(in, "units.png"))
	var me *source.MissingInputError
	if !errors.As(err, &me) {
		t.Fatalf("Run() error = %v, want MissingInputError", err)
	}
}

func TestClean(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeAtlas(t, in, "units", unitsJSON)
	stale := filepath.Join(out, "stale.txt")
	if err := os.WriteFile(stale, nil, 0644); err != nil {
		t.Fatal(err)
	}

	svc := New(Options{OutputPath: out, Clean: true, Logger: zerolog.Nop()})
	if _, err := svc.Run(in); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale file survived clean: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "human", "archer", "1.png")); err != nil {
		t.Errorf("output missing after clean: %v", err)
	}
}
