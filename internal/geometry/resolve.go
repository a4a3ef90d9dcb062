package geometry

import (
	"errors"
	"sort"
	"strings"

	"packcraft/internal/descriptor"
)

// Entry pairs a frame key with its resolved geometry.
type Entry struct {
	Name   string
	Key    Key
	Sprite Sprite
}

// Map is an ordered mapping from frame key to geometry, ascending by name.
type Map struct {
	entries []Entry
	index   map[string]int
}

// Group is the set of entries sharing every segment except the last.
type Group struct {
	Key     Key
	Entries []Entry // ascending by name
}

// Len returns the number of accepted frames.
func (m *Map) Len() int { return len(m.entries) }

// Entries returns all entries ascending by name. The slice must not be modified.
func (m *Map) Entries() []Entry { return m.entries }

// Get looks up a frame by its full name.
func (m *Map) Get(name string) (Sprite, bool) {
	i, ok := m.index[name]
	if !ok {
		return Sprite{}, false
	}
	return m.entries[i].Sprite, true
}

// Groups partitions the entries by Key.Group, ordered by group path.
func (m *Map) Groups() []Group {
	var groups []Group
	pos := make(map[string]int)
	for _, e := range m.entries {
		gk := e.Key.Group()
		id := gk.String()
		i, ok := pos[id]
		if !ok {
			i = len(groups)
			pos[id] = i
			groups = append(groups, Group{Key: gk})
		}
		groups[i].Entries = append(groups[i].Entries, e)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key.String() < groups[j].Key.String()
	})
	return groups
}

func newMap(entries []Entry) *Map {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	m := &Map{entries: entries, index: make(map[string]int, len(entries))}
	for i, e := range entries {
		m.index[e.Name] = i
	}
	return m
}

// Accept reports whether name passes the filters: an empty filter list
// accepts everything, otherwise any case-insensitive substring match does.
func Accept(name string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, f := range filters {
		if strings.Contains(lower, strings.ToLower(f)) {
			return true
		}
	}
	return false
}

// Resolve maps every accepted frame of the descriptor to its extraction
// geometry. Rejected frames are absent from the result.
func Resolve(atlas *descriptor.Atlas, canvasWidth int, filters []string) (*Map, error) {
	if atlas == nil {
		return nil, errors.New("geometry: nil descriptor")
	}

	entries := make([]Entry, 0, len(atlas.Frames))
	for name, f := range atlas.Frames {
		if !Accept(name, filters) {
			continue
		}
		entries = append(entries, Entry{
			Name:   name,
			Key:    ParseKey(name),
			Sprite: ResolveFrame(f, canvasWidth),
		})
	}
	return newMap(entries), nil
}

// ResolveFrame computes the crop region and padding of a single frame.
//
// A rotated frame is cut from the atlas after the whole atlas has been
// rotated 90° counter-clockwise, which moves atlas point (x, y) to
// (y, canvasWidth-1-x). The stored rectangle is mapped onto that image here.
func ResolveFrame(f descriptor.Frame, canvasWidth int) Sprite {
	r := f.Frame
	left, top := r.X, r.Y
	if f.Rotated {
		left = r.Y
		top = canvasWidth - r.H - r.X
	}

	// Untrimmed frames fill their source canvas, so no margin is restored.
	var pad Padding
	if f.Trimmed {
		sss := f.SpriteSourceSize
		pad = Padding{
			Left:   sss.X,
			Top:    sss.Y,
			Right:  f.SourceSize.W - sss.W - sss.X,
			Bottom: f.SourceSize.H - sss.H - sss.Y,
		}
	}

	return Sprite{
		Region:  Region{Left: left, Top: top, Width: r.W, Height: r.H},
		Padding: pad,
		Rotated: f.Rotated,
	}
}
