package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"packcraft/internal/imageio"
	"packcraft/internal/report"
)

// Config holds all configurable paths and unpack settings.
type Config struct {
	// Paths
	InputPath   string `json:"input_path"`
	DataPath    string `json:"data_path"`
	OutputPath  string `json:"output_path"`
	ResultsPath string `json:"results_path"`
	LogFile     string `json:"log_file"`

	// Unpack settings
	FrameNames []string `json:"frame_names"`
	Scale      *float64 `json:"scale"` // nil means no rescale
	Format     string   `json:"format"`
	Workers    int      `json:"workers"`
	Clean      bool     `json:"clean"`
	Manifest   bool     `json:"manifest"`
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
// Pointer fields are nil when the flag was not given.
type Flags struct {
	InputPath   string
	DataPath    string
	OutputPath  string
	ResultsPath string
	LogFile     string
	FrameNames  string // comma-separated
	Scale       *float64
	Format      string
	Workers     int
	Clean       bool
	Manifest    bool
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.InputPath != "" {
		c.InputPath = flags.InputPath
	}
	if flags.DataPath != "" {
		c.DataPath = flags.DataPath
	}
	if flags.OutputPath != "" {
		c.OutputPath = flags.OutputPath
	}
	if flags.ResultsPath != "" {
		c.ResultsPath = flags.ResultsPath
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}
	if names := ParseFrameNames(flags.FrameNames); len(names) > 0 {
		c.FrameNames = names
	}
	if flags.Scale != nil {
		s := *flags.Scale
		c.Scale = &s
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Clean {
		c.Clean = true
	}
	if flags.Manifest {
		c.Manifest = true
	}

	// Absolute paths so that reports name files unambiguously
	if c.OutputPath != "" && !filepath.IsAbs(c.OutputPath) {
		if abs, err := filepath.Abs(c.OutputPath); err == nil {
			c.OutputPath = abs
		}
	}

	// Defaults
	if c.ResultsPath == "" {
		c.ResultsPath = report.DefaultPath
	}
	if c.Format == "" {
		c.Format = string(imageio.PNG)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks the resolved configuration.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("config: input path is required")
	}
	if c.Scale != nil {
		s := *c.Scale
		if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
			return fmt.Errorf("config: scale must be a positive number, got %g", s)
		}
	}
	if _, err := imageio.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ScaleFactor returns the configured scale, or 0 when none is set.
func (c *Config) ScaleFactor() float64 {
	if c.Scale == nil {
		return 0
	}
	return *c.Scale
}

// ParseFrameNames splits a comma-separated filter list, dropping blanks.
func ParseFrameNames(s string) []string {
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
