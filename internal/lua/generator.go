// Package lua writes per-group animation scripts for the game engine.
package lua

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"packcraft/internal/geometry"

	"github.com/rs/zerolog"
)

// FileName is the script written into every group directory.
const FileName = "sprite_animation.lua"

// Frame waits of the two generated animations.
const (
	StillWait = 10
	MoveWait  = 5
)

// Script renders the DefineAnimations call for a group of frameCount frames.
func Script(groupName string, frameCount int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DefineAnimations('%s', {\n", groupName)
	writeAnimation(&b, "Still", frameCount, StillWait)
	b.WriteString(",\n")
	writeAnimation(&b, "Move", frameCount, MoveWait)
	b.WriteString("\n});\n")
	return b.String()
}

func writeAnimation(b *strings.Builder, name string, frameCount, wait int) {
	fmt.Fprintf(b, "  %s = {\n", name)
	for i := 0; i < frameCount; i++ {
		fmt.Fprintf(b, "    'frame %d', 'wait %d',\n", i, wait)
	}
	b.WriteString("  }")
}

// Generate writes one script per group of geo and returns the paths written.
// A failing group does not stop the others; all failures are joined.
func Generate(outputRoot string, geo *geometry.Map, log zerolog.Logger) ([]string, error) {
	var paths []string
	var errs []error
	for _, grp := range geo.Groups() {
		if !grp.Key.Safe() {
			errs = append(errs, fmt.Errorf("lua: %q: group path escapes output directory", grp.Key))
			continue
		}
		dir := filepath.Join(append([]string{outputRoot}, grp.Key.Segments...)...)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errs = append(errs, fmt.Errorf("lua: %s: %w", grp.Key, err))
			continue
		}
		path := filepath.Join(dir, FileName)
		script := Script(grp.Key.Leaf(), len(grp.Entries))
		if err := os.WriteFile(path, []byte(script), 0644); err != nil {
			errs = append(errs, fmt.Errorf("lua: write %s: %w", path, err))
			continue
		}
		log.Debug().Str("path", path).Msg("generated animation script")
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}
