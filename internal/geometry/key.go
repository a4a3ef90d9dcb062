package geometry

import "strings"

// Key is a frame name split into its slash-delimited segments.
type Key struct {
	Segments []string
}

// ParseKey splits a frame name on "/".
func ParseKey(name string) Key {
	return Key{Segments: strings.Split(name, "/")}
}

// String joins the segments back with "/".
func (k Key) String() string {
	return strings.Join(k.Segments, "/")
}

// Leaf returns the final segment, or "" for an empty key.
func (k Key) Leaf() string {
	if len(k.Segments) == 0 {
		return ""
	}
	return k.Segments[len(k.Segments)-1]
}

// Group returns the key formed by every segment except the last.
func (k Key) Group() Key {
	if len(k.Segments) <= 1 {
		return Key{}
	}
	seg := make([]string, len(k.Segments)-1)
	copy(seg, k.Segments)
	return Key{Segments: seg}
}

// Safe reports whether every segment is a plain path element, so that the
// key joined under an output root stays inside it.
func (k Key) Safe() bool {
	for _, s := range k.Segments {
		if s == "" || s == "." || s == ".." || strings.Contains(s, `\`) {
			return false
		}
	}
	return true
}

// Depth returns the number of segments.
func (k Key) Depth() int { return len(k.Segments) }

// Equal reports whether both keys have identical segments.
func (k Key) Equal(o Key) bool {
	if len(k.Segments) != len(o.Segments) {
		return false
	}
	for i := range k.Segments {
		if k.Segments[i] != o.Segments[i] {
			return false
		}
	}
	return true
}
