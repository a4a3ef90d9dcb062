package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"packcraft/internal/config"
	"packcraft/internal/extract"
	"packcraft/internal/imageio"
	"packcraft/internal/sheet"
	"packcraft/internal/source"
	"packcraft/internal/unpack"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "0.3.0"

var (
	configFile  string
	inputPath   string
	dataFormat  string
	dataPath    string
	outputPath  string
	clean       bool
	scale       float64
	frameNames  string
	resultsPath string
	imageFormat string
	workers     int
	manifest    bool
	logFile     string
	noProgress  bool
	verbose     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "packcraft",
		Short:         "Texture unpacker for TexturePacker files",
		Long:          "Unpacks TexturePacker JSON atlases into individual sprites, regrouped sprite sheets and Lua animation scripts",
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.Flags()
	f.StringVar(&configFile, "config", "", "Path to config.json file")
	f.StringVar(&inputPath, "input-path", "", "Directory or sprite sheet path/name")
	f.StringVar(&dataFormat, "data-format", "json", "Data format type ('json')")
	f.StringVar(&dataPath, "data-path", "", "Custom data file path (relative paths resolve against the texture directory)")
	f.StringVar(&outputPath, "output-path", "", "Custom output directory path (default: next to each texture)")
	f.BoolVar(&clean, "clean", false, "Clean the output directory before unpacking")
	f.Float64Var(&scale, "scale", 1, "Scaling factor for sprite sheet cells (e.g. 0.5 for half size)")
	f.StringVar(&frameNames, "frame-name", "", "Comma-separated list of frame name substrings to process (e.g. 'catapult,spearmen'). If empty, process all frames.")
	f.StringVar(&resultsPath, "results", "", "Custom path for the results file (default: processing_results.txt)")
	f.StringVar(&imageFormat, "format", "", "Output image format: png, webp, tga (default: png)")
	f.IntVarP(&workers, "workers", "w", 0, "Number of worker goroutines (default: NumCPU)")
	f.BoolVar(&manifest, "manifest", false, "Write a JSON geometry manifest per atlas")
	f.StringVar(&logFile, "log-file", "", "Also append logs to this file")
	f.BoolVar(&noProgress, "no-progress", false, "Disable progress bars")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log every generated file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("packcraft version %s\n", version)
		},
	}

	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if dataFormat != "json" {
		return fmt.Errorf("unsupported data format %q (only 'json')", dataFormat)
	}

	// Load config
	var cfg config.Config
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	}

	flags := config.Flags{
		InputPath:   inputPath,
		DataPath:    dataPath,
		OutputPath:  outputPath,
		ResultsPath: resultsPath,
		LogFile:     logFile,
		FrameNames:  frameNames,
		Format:      imageFormat,
		Workers:     workers,
		Clean:       clean,
		Manifest:    manifest,
	}
	if cmd.Flags().Changed("scale") {
		flags.Scale = &scale
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, _ := imageio.ParseFormat(cfg.Format)

	log, closeLog, err := newLogger(cfg.LogFile, verbose)
	if err != nil {
		return err
	}
	defer closeLog()

	cyan := color.New(color.FgCyan)
	cyan.Println("\nPackCraft Texture Unpacker")
	cyan.Println("==========================")
	fmt.Printf("Input:   %s\n", cfg.InputPath)
	if cfg.OutputPath != "" {
		fmt.Printf("Output:  %s\n", cfg.OutputPath)
	}
	fmt.Printf("Format:  %s, Workers: %d\n", format, cfg.Workers)
	if len(cfg.FrameNames) > 0 {
		fmt.Printf("Filters: %v\n", cfg.FrameNames)
	}
	fmt.Println()

	opts := unpack.Options{
		DataPath:   cfg.DataPath,
		OutputPath: cfg.OutputPath,
		FrameNames: cfg.FrameNames,
		Scale:      sheet.Scale(cfg.ScaleFactor()),
		Format:     format,
		Workers:    cfg.Workers,
		Clean:      cfg.Clean,
		Manifest:   cfg.Manifest,
		Logger:     log,
	}

	var bar *progressbar.ProgressBar
	if !noProgress && term.IsTerminal(int(os.Stdout.Fd())) {
		opts.OnAtlas = func(in source.Input, frames int) {
			if bar != nil {
				_ = bar.Finish()
			}
			bar = progressbar.NewOptions(frames,
				progressbar.OptionSetDescription(in.Name()),
				progressbar.OptionShowCount(),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		opts.OnFrame = func(extract.Result) {
			_ = bar.Add(1)
		}
	}

	start := time.Now()
	svc := unpack.New(opts)
	results, runErr := svc.Run(cfg.InputPath)
	if bar != nil {
		_ = bar.Finish()
	}

	if err := svc.Stats().Save(cfg.ResultsPath, time.Now()); err != nil {
		log.Error().Err(err).Msg("save results")
	} else {
		log.Info().Str("path", cfg.ResultsPath).Msg("results saved")
	}

	printSummary(results, time.Since(start))

	var batchErr *unpack.BatchError
	if errors.As(runErr, &batchErr) && len(batchErr.Failed) == 1 && batchErr.Total == 1 {
		return batchErr.Failed[0]
	}
	return runErr
}

func printSummary(results []unpack.AtlasResult, elapsed time.Duration) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	color.New(color.FgCyan).Println("\nSummary:")
	for _, r := range results {
		if r.Err != nil {
			red.Printf("  ✗ %s: %v\n", r.Input.Name(), r.Err)
			continue
		}
		green.Printf("  ✓ %s", r.Input.Name())
		fmt.Printf(": %d/%d sprites, %d sheets\n", r.Extract.Extracted, r.Frames, r.Sheets.Written())
		if w := r.Warnings(); len(w) > 0 {
			yellow.Printf("    ⚠ %d warning(s), see results file\n", len(w))
		}
	}
	fmt.Printf("\nDone in %.1fs\n\n", elapsed.Seconds())
}

// newLogger writes human-readable logs to stderr and, when path is set,
// JSON lines to path.
func newLogger(path string, verbose bool) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	closeFn := func() {}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("log file: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closeFn = func() { f.Close() }
	}

	log := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return log, closeFn, nil
}
