// Package unpack runs the full pipeline over one atlas or a directory of
// atlases: parse, resolve, extract, compose, then the Lua scripts, manifest
// and statistics that consume the geometry map.
package unpack

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"packcraft/internal/descriptor"
	"packcraft/internal/extract"
	"packcraft/internal/geometry"
	"packcraft/internal/imageio"
	"packcraft/internal/lua"
	"packcraft/internal/report"
	"packcraft/internal/sheet"
	"packcraft/internal/source"

	"github.com/rs/zerolog"
)

// ManifestSuffix is appended to the atlas stem for the geometry manifest.
const ManifestSuffix = ".manifest.json"

// Options configures a Service.
type Options struct {
	DataPath   string
	OutputPath string // empty means next to each atlas
	FrameNames []string
	Scale      sheet.Scale
	Format     imageio.Format
	Workers    int
	Clean      bool
	Manifest   bool
	Logger     zerolog.Logger

	// OnAtlas is called before an atlas is extracted with its frame count.
	OnAtlas func(in source.Input, frames int)
	// OnFrame is called after each extracted frame.
	OnFrame func(extract.Result)
}

// AtlasResult is the outcome of one atlas.
type AtlasResult struct {
	Input     source.Input
	Output    string
	Frames    int // accepted by the filters
	Extract   extract.Summary
	Sheets    sheet.Summary
	Scripts   []string
	Manifest  string
	Err       error // fatal for this atlas
	StartedAt time.Time
	Duration  time.Duration
}

// Warnings flattens the non-fatal per-item failures.
func (r AtlasResult) Warnings() []string {
	var w []string
	for _, err := range r.Extract.Errors() {
		w = append(w, err.Error())
	}
	for _, g := range r.Sheets.Groups {
		for _, err := range g.Failures {
			w = append(w, err.Error())
		}
		if g.Err != nil {
			w = append(w, g.Err.Error())
		}
	}
	return w
}

// AtlasError wraps a fatal failure of one atlas.
type AtlasError struct {
	Texture string
	Err     error
}

func (e *AtlasError) Error() string {
	return fmt.Sprintf("unpack: %s: %v", e.Texture, e.Err)
}

func (e *AtlasError) Unwrap() error { return e.Err }

// BatchError lists every atlas that failed in a run.
type BatchError struct {
	Failed []*AtlasError
	Total  int
}

func (e *BatchError) Error() string {
	names := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		names[i] = filepath.Base(f.Texture)
	}
	return fmt.Sprintf("unpack: %d of %d atlases failed: %s", len(e.Failed), e.Total, strings.Join(names, ", "))
}

// Unwrap exposes the individual atlas errors to errors.Is/As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f
	}
	return errs
}

// Service processes atlases and records statistics for each.
type Service struct {
	opts    Options
	stats   *report.Recorder
	cleaned bool
}

// New creates a Service.
func New(opts Options) *Service {
	return &Service{opts: opts, stats: &report.Recorder{}}
}

// Stats returns the statistics recorder.
func (s *Service) Stats() *report.Recorder { return s.stats }

// Run processes every atlas found at input. A failing atlas does not stop
// the batch; it is recorded and reported through *BatchError once all atlases
// have been attempted. Discovery errors are returned directly.
func (s *Service) Run(input string) ([]AtlasResult, error) {
	log := s.opts.Logger

	if err := s.clean(); err != nil {
		return nil, err
	}

	inputs, err := source.Discover(input, s.opts.DataPath)
	if err != nil {
		log.Error().Err(err).Str("input", input).Msg("resolve input")
		return nil, err
	}
	if len(inputs) == 0 {
		log.Warn().Str("input", input).Msg("no atlases found")
	}

	results := make([]AtlasResult, 0, len(inputs))
	var failed []*AtlasError
	for _, in := range inputs {
		res := s.Process(in)
		if res.Err != nil {
			failed = append(failed, &AtlasError{Texture: in.Texture, Err: res.Err})
		}
		results = append(results, res)
	}

	if len(failed) > 0 {
		return results, &BatchError{Failed: failed, Total: len(inputs)}
	}
	return results, nil
}

// clean removes and recreates the output directory once per Service.
func (s *Service) clean() error {
	if !s.opts.Clean || s.cleaned || s.opts.OutputPath == "" {
		return nil
	}
	s.opts.Logger.Info().Str("path", s.opts.OutputPath).Msg("cleaning output directory")
	if err := os.RemoveAll(s.opts.OutputPath); err != nil {
		return fmt.Errorf("unpack: clean %s: %w", s.opts.OutputPath, err)
	}
	if err := os.MkdirAll(s.opts.OutputPath, 0755); err != nil {
		return fmt.Errorf("unpack: clean %s: %w", s.opts.OutputPath, err)
	}
	s.cleaned = true
	return nil
}

// Process runs the pipeline for a single atlas and records its statistics.
// Loading and parsing failures are fatal and set AtlasResult.Err; everything
// after that degrades per item.
func (s *Service) Process(in source.Input) AtlasResult {
	log := s.opts.Logger.With().Str("atlas", in.Name()).Logger()
	res := AtlasResult{Input: in, StartedAt: time.Now()}

	res.Output = s.opts.OutputPath
	if res.Output == "" {
		res.Output = filepath.Dir(in.Texture)
	}

	log.Info().Str("texture", in.Texture).Str("data", in.Descriptor).Msg("processing texture")

	atlas, geo, err := s.load(in)
	if err != nil {
		res.Err = err
		res.Duration = time.Since(res.StartedAt)
		log.Error().Err(err).Msg("atlas failed")
		s.record(res, nil)
		return res
	}
	res.Frames = geo.Len()

	if err := os.MkdirAll(res.Output, 0755); err != nil {
		res.Err = fmt.Errorf("create output %s: %w", res.Output, err)
		res.Duration = time.Since(res.StartedAt)
		log.Error().Err(res.Err).Msg("atlas failed")
		s.record(res, atlas)
		return res
	}

	if s.opts.OnAtlas != nil {
		s.opts.OnAtlas(in, geo.Len())
	}

	res.Extract = extract.Run(atlas, geo, res.Output, extract.Options{
		Format:  s.opts.Format,
		Workers: s.opts.Workers,
		Logger:  log,
		OnDone:  s.opts.OnFrame,
	})

	res.Sheets = sheet.Compose(atlas, geo, res.Output, sheet.Options{
		Scale:   s.opts.Scale,
		Format:  s.opts.Format,
		Workers: s.opts.Workers,
		Logger:  log,
	})

	var extra []string
	res.Scripts, err = lua.Generate(res.Output, geo, log)
	if err != nil {
		log.Warn().Err(err).Msg("animation scripts incomplete")
		extra = append(extra, err.Error())
	}

	if s.opts.Manifest {
		stem := strings.TrimSuffix(in.Name(), filepath.Ext(in.Name()))
		path := filepath.Join(res.Output, stem+ManifestSuffix)
		if err := report.WriteManifest(path, in.Name(), geo); err != nil {
			log.Warn().Err(err).Msg("manifest write failed")
			extra = append(extra, err.Error())
		} else {
			res.Manifest = path
		}
	}

	res.Duration = time.Since(res.StartedAt)
	s.record(res, atlas, extra...)

	log.Info().
		Int("frames", res.Frames).
		Int("extracted", res.Extract.Extracted).
		Int("sheets", res.Sheets.Written()).
		Dur("took", res.Duration).
		Msg("finished processing")
	return res
}

// load is the fatal part of an atlas: image decode, descriptor parse and
// geometry resolution. No geometry is returned alongside an error.
func (s *Service) load(in source.Input) (*imageio.Atlas, *geometry.Map, error) {
	if err := in.Check(); err != nil {
		return nil, nil, err
	}
	doc, err := descriptor.Load(in.Descriptor)
	if err != nil {
		return nil, nil, err
	}
	atlas, err := imageio.Load(in.Texture)
	if err != nil {
		return nil, nil, err
	}
	if w, h := doc.CanvasWidth(), doc.CanvasHeight(); w != atlas.Bounds().Dx() || h != atlas.Bounds().Dy() {
		s.opts.Logger.Warn().
			Str("atlas", in.Name()).
			Str("descriptor", fmt.Sprintf("%dx%d", w, h)).
			Str("image", fmt.Sprintf("%dx%d", atlas.Bounds().Dx(), atlas.Bounds().Dy())).
			Msg("descriptor size differs from image size")
	}
	geo, err := geometry.Resolve(doc, doc.CanvasWidth(), s.opts.FrameNames)
	if err != nil {
		return nil, nil, err
	}
	return atlas, geo, nil
}

func (s *Service) record(res AtlasResult, atlas *imageio.Atlas, extra ...string) {
	st := report.Stats{
		SheetName:      res.Input.Name(),
		TotalUnits:     res.Frames,
		ProcessedUnits: res.Extract.Extracted,
		StartedAt:      res.StartedAt,
		Duration:       res.Duration,
		Warnings:       append(res.Warnings(), extra...),
	}
	if atlas != nil {
		st.Width, st.Height = atlas.Bounds().Dx(), atlas.Bounds().Dy()
	}
	if res.Err != nil {
		st.Errors = []string{res.Err.Error()}
	}
	s.stats.Record(st)
}
