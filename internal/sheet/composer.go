package sheet

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"runtime"

	"packcraft/internal/geometry"
	"packcraft/internal/imageio"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// FileName is the base name of every sheet, before the extension.
const FileName = "sprite_sheet"

// CompositeError reports one sheet member that could not be placed.
type CompositeError struct {
	Group string
	Name  string
	Err   error
}

func (e *CompositeError) Error() string {
	return fmt.Sprintf("sheet: %s: member %s: %v", e.Group, e.Name, e.Err)
}

func (e *CompositeError) Unwrap() error { return e.Err }

// Options configures sheet composition.
type Options struct {
	Scale   Scale
	Format  imageio.Format
	Workers int // groups composed concurrently; <= 0 means runtime.NumCPU()
	Logger  zerolog.Logger
}

// GroupResult is the outcome of one sheet.
type GroupResult struct {
	Key      geometry.Key
	Path     string
	Members  int
	Layout   Layout
	Failures []error // per-member *CompositeError; the cell stays blank
	Err      error   // sheet could not be written
}

// Summary holds one result per group, ordered by group path.
type Summary struct {
	Groups []GroupResult
}

// Written returns how many sheets were written.
func (s Summary) Written() int {
	n := 0
	for _, g := range s.Groups {
		if g.Err == nil {
			n++
		}
	}
	return n
}

// Compose writes one sheet per group of geo into outputRoot/<group>/.
// Groups are independent and run concurrently; each owns its canvas.
func Compose(atlas *imageio.Atlas, geo *geometry.Map, outputRoot string, opts Options) Summary {
	groups := geo.Groups()
	results := make([]GroupResult, len(groups))

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, grp := range groups {
		g.Go(func() error {
			results[i] = composeGroup(atlas, grp, outputRoot, opts)
			return results[i].Err
		})
	}
	// Failures are reported per group.
	_ = g.Wait()

	return Summary{Groups: results}
}

func composeGroup(atlas *imageio.Atlas, grp geometry.Group, outputRoot string, opts Options) GroupResult {
	groupPath := grp.Key.String()
	res := GroupResult{
		Key:     grp.Key,
		Members: len(grp.Entries),
	}

	if !grp.Key.Safe() {
		res.Err = fmt.Errorf("sheet: %q: group path escapes output directory", groupPath)
		opts.Logger.Error().Str("group", groupPath).Msg("unsafe group path")
		return res
	}
	res.Path = filepath.Join(append(append([]string{outputRoot}, grp.Key.Segments...), FileName+"."+opts.Format.Ext())...)

	res.Layout = LayoutFor(grp, opts.Scale)
	canvas, failures := Render(atlas, grp, opts.Scale)
	for _, err := range failures {
		opts.Logger.Warn().Err(err).Str("group", groupPath).Msg("sheet member skipped")
		res.Failures = append(res.Failures, err)
	}

	if err := os.MkdirAll(filepath.Dir(res.Path), 0755); err != nil {
		res.Err = fmt.Errorf("sheet: %s: %w", groupPath, err)
		return res
	}
	if err := imageio.Save(res.Path, canvas, opts.Format); err != nil {
		res.Err = fmt.Errorf("sheet: %s: %w", groupPath, err)
		opts.Logger.Error().Err(err).Str("group", groupPath).Msg("write sprite sheet")
		return res
	}

	opts.Logger.Info().
		Str("path", res.Path).
		Int("frames", res.Members).
		Int("columns", res.Layout.Columns).
		Int("rows", res.Layout.Rows).
		Msg("sprite sheet saved")
	return res
}

// LayoutFor sizes the grid of a group: the cell is the largest member
// region, scaled when the scale is active.
func LayoutFor(grp geometry.Group, scale Scale) Layout {
	var fw, fh int
	for _, e := range grp.Entries {
		fw = max(fw, e.Sprite.Region.Width)
		fh = max(fh, e.Sprite.Region.Height)
	}
	return NewLayout(len(grp.Entries), scale.Apply(fw), scale.Apply(fh))
}

// Render composes a group into a new transparent canvas. Members are placed
// in ascending name order, cropped straight from the un-rotated atlas and,
// when scaling, stretched to the cell size. A member that fails leaves its
// cell blank and is returned as a *CompositeError.
func Render(atlas *imageio.Atlas, grp geometry.Group, scale Scale) (*image.NRGBA, []error) {
	layout := LayoutFor(grp, scale)
	w, h := layout.Size()
	canvas := image.NewNRGBA(image.Rect(0, 0, w, h))

	var failures []error
	for i, e := range grp.Entries {
		if err := place(canvas, atlas, e, layout, i, scale); err != nil {
			failures = append(failures, &CompositeError{Group: grp.Key.String(), Name: e.Name, Err: err})
		}
	}
	return canvas, failures
}

func place(canvas *image.NRGBA, atlas *imageio.Atlas, e geometry.Entry, layout Layout, i int, scale Scale) error {
	if err := geometry.CheckBounds(e.Name, e.Sprite, atlas.Bounds(), false); err != nil {
		return err
	}
	member := imageio.Crop(atlas.Image, e.Sprite.Region.Rect())
	if scale.Active() {
		if layout.CellWidth <= 0 || layout.CellHeight <= 0 {
			return errors.New("scaled cell is empty")
		}
		member = imageio.Stretch(member, layout.CellWidth, layout.CellHeight)
	}
	at := layout.Offset(i)
	draw.Draw(canvas, member.Bounds().Add(at), member, image.Point{}, draw.Src)
	return nil
}
