package extract

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"packcraft/internal/geometry"
	"packcraft/internal/imageio"

	"github.com/rs/zerolog"
)

// MinSegments is the minimum number of path segments of a frame name.
const MinSegments = 3

// Options configures an extraction run.
type Options struct {
	Format  imageio.Format
	Workers int // <= 0 means runtime.NumCPU()
	Logger  zerolog.Logger
	OnDone  func(Result) // called once per frame, possibly from worker goroutines
}

// Result holds the outcome of one frame.
type Result struct {
	Name string
	Path string // empty when the frame was skipped before a path was derived
	Err  error
}

// Summary collects every per-frame result in name order.
type Summary struct {
	Results   []Result
	Extracted int
	Skipped   int // invalid names
	Failed    int // write, bounds or image errors
}

// Errors returns the non-nil per-frame errors.
func (s Summary) Errors() []error {
	var errs []error
	for _, r := range s.Results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}

// OutputPath derives outputRoot/seg0/.../leaf.<ext> for a frame key.
func OutputPath(outputRoot string, key geometry.Key, f imageio.Format) (string, error) {
	if key.Depth() < MinSegments || !key.Safe() {
		return "", &InvalidFrameNameError{Name: key.String()}
	}
	leaf := key.Leaf()
	leaf = strings.TrimSuffix(leaf, filepath.Ext(leaf))
	parts := append([]string{outputRoot}, key.Group().Segments...)
	parts = append(parts, leaf+"."+f.Ext())
	return filepath.Join(parts...), nil
}

// Run extracts every frame of geo from atlas into outputRoot using a worker
// pool. It blocks until all frames are done. Per-frame failures are recorded
// in the summary and never stop sibling frames.
func Run(atlas *imageio.Atlas, geo *geometry.Map, outputRoot string, opts Options) Summary {
	entries := geo.Entries()
	results := make([]Result, len(entries))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Output paths are claimed in name order. A later frame mapping to a
	// claimed file is never dispatched.
	paths := make([]string, len(entries))
	claimed := make(map[string]string, len(entries))
	pending := make([]int, 0, len(entries))
	for i, e := range entries {
		p, err := OutputPath(outputRoot, e.Key, opts.Format)
		if err != nil {
			opts.Logger.Error().Str("frame", e.Name).Msg("invalid frame name")
			results[i] = Result{Name: e.Name, Err: err}
			continue
		}
		if owner, ok := claimed[p]; ok {
			opts.Logger.Error().Str("frame", e.Name).Str("owner", owner).Str("path", p).Msg("output path collision")
			results[i] = Result{Name: e.Name, Path: p, Err: &SpriteWriteError{
				Name: e.Name, Path: p, Err: &PathCollisionError{Owner: owner},
			}}
			continue
		}
		claimed[p] = e.Name
		paths[i] = p
		pending = append(pending, i)
	}
	if opts.OnDone != nil {
		for i := range entries {
			if paths[i] == "" {
				opts.OnDone(results[i])
			}
		}
	}

	// Worker pool
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = processFrame(atlas, entries[idx], paths[idx], opts)
				if opts.OnDone != nil {
					opts.OnDone(results[idx])
				}
			}
		}()
	}

	// Send work
	for _, i := range pending {
		jobs <- i
	}
	close(jobs)

	wg.Wait()

	sum := Summary{Results: results}
	for _, r := range results {
		var nameErr *InvalidFrameNameError
		switch {
		case r.Err == nil:
			sum.Extracted++
		case errors.As(r.Err, &nameErr):
			sum.Skipped++
		default:
			sum.Failed++
		}
	}

	opts.Logger.Info().
		Int("extracted", sum.Extracted).
		Int("skipped", sum.Skipped).
		Int("failed", sum.Failed).
		Str("output", outputRoot).
		Msg("extracted sprites")

	return sum
}

func processFrame(atlas *imageio.Atlas, e geometry.Entry, outPath string, opts Options) Result {
	img, err := Sprite(atlas, e.Name, e.Sprite)
	if err != nil {
		opts.Logger.Error().Err(err).Str("frame", e.Name).Msg("extract sprite")
		var oob *geometry.RegionOutOfBoundsError
		if !errors.As(err, &oob) {
			err = &SpriteWriteError{Name: e.Name, Path: outPath, Err: err}
		}
		return Result{Name: e.Name, Path: outPath, Err: err}
	}

	if err := write(outPath, img, opts.Format); err != nil {
		opts.Logger.Error().Err(err).Str("frame", e.Name).Msg("write sprite")
		return Result{Name: e.Name, Path: outPath, Err: &SpriteWriteError{Name: e.Name, Path: outPath, Err: err}}
	}

	opts.Logger.Debug().Str("frame", e.Name).Str("path", outPath).Msg("generated sprite")
	return Result{Name: e.Name, Path: outPath}
}

// Sprite produces the final image of one frame: rotate the atlas when the
// frame is rotated, crop the region, then restore the untrimmed canvas with
// transparent padding. The order matters; the region is expressed in the
// rotated atlas' coordinates.
func Sprite(atlas *imageio.Atlas, name string, s geometry.Sprite) (*image.NRGBA, error) {
	if err := geometry.CheckBounds(name, s, atlas.Bounds(), s.Rotated); err != nil {
		return nil, err
	}
	if !s.Padding.Valid() {
		return nil, fmt.Errorf("negative padding %+v", s.Padding)
	}

	src := atlas.Image
	if s.Rotated {
		src = atlas.Rotated()
	}

	cropped := imageio.Crop(src, s.Region.Rect())
	p := s.Padding
	return imageio.Pad(cropped, p.Left, p.Top, p.Right, p.Bottom), nil
}

func write(path string, img image.Image, f imageio.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return imageio.Save(path, img, f)
}
