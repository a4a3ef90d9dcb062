package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// ParseError reports a malformed descriptor. Nothing is returned alongside it.
type ParseError struct {
	Path  string // empty when parsing from memory
	Field string // offending field, e.g. "frames[a/b/c.png].frame.w"
	Err   error
}

func (e *ParseError) Error() string {
	src := e.Path
	if src == "" {
		src = "<input>"
	}
	if e.Field != "" {
		return fmt.Sprintf("descriptor: parse %s: %s: %v", src, e.Field, e.Err)
	}
	return fmt.Sprintf("descriptor: parse %s: %v", src, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

var errMissing = errors.New("missing required field")

// jsonAtlas mirrors the TexturePacker hash layout. Pointers mark required
// numeric fields so that absence can be told apart from zero.
type jsonAtlas struct {
	Frames map[string]jsonFrame `json:"frames"`
	Meta   *struct {
		Image string    `json:"image"`
		Size  *jsonSize `json:"size"`
	} `json:"meta"`
}

type jsonFrame struct {
	Frame            *jsonRect `json:"frame"`
	Rotated          bool      `json:"rotated"`
	Trimmed          bool      `json:"trimmed"`
	SpriteSourceSize *jsonRect `json:"spriteSourceSize"`
	SourceSize       *jsonSize `json:"sourceSize"`
}

type jsonRect struct {
	X *int `json:"x"`
	Y *int `json:"y"`
	W *int `json:"w"`
	H *int `json:"h"`
}

type jsonSize struct {
	W *int `json:"w"`
	H *int `json:"h"`
}

// Load reads and parses a descriptor file.
func Load(path string) (*Atlas, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("descriptor: read %s: %w", path, err)
	}
	a, err := Parse(raw)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return a, nil
}

// Parse decodes descriptor JSON. Any missing or non-numeric required field
// fails the whole descriptor with *ParseError.
func Parse(raw []byte) (*Atlas, error) {
	var doc jsonAtlas
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &ParseError{Err: err}
	}
	if doc.Frames == nil {
		return nil, &ParseError{Field: "frames", Err: errMissing}
	}
	if doc.Meta == nil {
		return nil, &ParseError{Field: "meta", Err: errMissing}
	}
	size, err := doc.Meta.Size.size("meta.size")
	if err != nil {
		return nil, err
	}

	a := &Atlas{
		Frames: make(map[string]Frame, len(doc.Frames)),
		Meta:   Meta{Image: doc.Meta.Image, Size: size},
	}

	// Sorted so the reported field is deterministic when several are broken.
	names := make([]string, 0, len(doc.Frames))
	for name := range doc.Frames {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := doc.Frames[name]
		prefix := fmt.Sprintf("frames[%s]", name)

		rect, err := f.Frame.rect(prefix + ".frame")
		if err != nil {
			return nil, err
		}
		sss, err := f.SpriteSourceSize.rect(prefix + ".spriteSourceSize")
		if err != nil {
			return nil, err
		}
		src, err := f.SourceSize.size(prefix + ".sourceSize")
		if err != nil {
			return nil, err
		}

		a.Frames[name] = Frame{
			Frame:            rect,
			Rotated:          f.Rotated,
			Trimmed:          f.Trimmed,
			SourceSize:       src,
			SpriteSourceSize: sss,
		}
	}

	return a, nil
}

func (r *jsonRect) rect(field string) (Rect, error) {
	if r == nil {
		return Rect{}, &ParseError{Field: field, Err: errMissing}
	}
	vals := [4]*int{r.X, r.Y, r.W, r.H}
	for i, k := range [4]string{"x", "y", "w", "h"} {
		if vals[i] == nil {
			return Rect{}, &ParseError{Field: field + "." + k, Err: errMissing}
		}
	}
	return Rect{X: *r.X, Y: *r.Y, W: *r.W, H: *r.H}, nil
}

func (s *jsonSize) size(field string) (Size, error) {
	if s == nil {
		return Size{}, &ParseError{Field: field, Err: errMissing}
	}
	if s.W == nil {
		return Size{}, &ParseError{Field: field + ".w", Err: errMissing}
	}
	if s.H == nil {
		return Size{}, &ParseError{Field: field + ".h", Err: errMissing}
	}
	return Size{W: *s.W, H: *s.H}, nil
}
