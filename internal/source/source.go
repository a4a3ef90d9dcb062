// Package source locates atlas images and their descriptors on disk.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"packcraft/internal/imageio"
)

// DefaultExt is appended to an input path given without extension.
const DefaultExt = ".png"

// Input is one atlas image paired with its descriptor.
type Input struct {
	Texture    string
	Descriptor string
}

// Name returns the atlas file name without directory.
func (in Input) Name() string { return filepath.Base(in.Texture) }

// MissingInputError reports an input path, atlas image or descriptor that
// does not exist.
type MissingInputError struct {
	Texture    string
	Descriptor string
	Path       string // set when the input path itself is missing
}

func (e *MissingInputError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("source: input path %q does not exist", e.Path)
	}
	return fmt.Sprintf("source: missing required files: texture: %s, data: %s", e.Texture, e.Descriptor)
}

// Discover resolves input into atlases. A file (or a path that exists once
// ".png" is appended) yields one atlas; a directory is walked recursively and
// yields every supported image that has a descriptor, sorted by path. dataPath overrides the
// descriptor of a single atlas; for directories it is ignored so that each
// atlas keeps its own descriptor.
func Discover(input, dataPath string) ([]Input, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", input, err)
	}

	if tex, ok := textureFile(abs); ok {
		in := Pair(tex, dataPath)
		if err := in.Check(); err != nil {
			return nil, err
		}
		return []Input{in}, nil
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, &MissingInputError{Path: abs}
	}

	var inputs []Input
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !imageio.Supported(path) {
			return nil
		}
		// Images without a descriptor are ordinary images, not atlases.
		if in := Pair(path, ""); isFile(in.Descriptor) {
			inputs = append(inputs, in)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("source: walk %s: %w", abs, err)
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Texture < inputs[j].Texture })
	return inputs, nil
}

// Pair builds the input of a texture. The descriptor is dataPath when set,
// otherwise <stem>.json next to the texture. A relative dataPath is always
// resolved against the texture's directory, never the working directory.
func Pair(texture, dataPath string) Input {
	dir := filepath.Dir(texture)
	if dataPath != "" {
		if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(dir, dataPath)
		}
		return Input{Texture: texture, Descriptor: dataPath}
	}
	stem := strings.TrimSuffix(filepath.Base(texture), filepath.Ext(texture))
	return Input{Texture: texture, Descriptor: filepath.Join(dir, stem+".json")}
}

// Check verifies that both files exist.
func (in Input) Check() error {
	if !isFile(in.Texture) || !isFile(in.Descriptor) {
		return &MissingInputError{Texture: in.Texture, Descriptor: in.Descriptor}
	}
	return nil
}

func textureFile(path string) (string, bool) {
	if isFile(path) {
		return path, true
	}
	if !strings.EqualFold(filepath.Ext(path), DefaultExt) && isFile(path+DefaultExt) {
		return path + DefaultExt, true
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
