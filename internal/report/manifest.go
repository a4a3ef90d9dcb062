package report

import (
	"encoding/json"
	"os"

	"packcraft/internal/geometry"
)

// ManifestEntry is one resolved frame in the geometry manifest.
type ManifestEntry struct {
	Name    string           `json:"name"`
	Group   string           `json:"group"`
	Region  geometry.Region  `json:"region"`
	Padding geometry.Padding `json:"padding"`
	Rotated bool             `json:"rotated"`
}

// Manifest is the JSON form of one atlas' geometry map.
type Manifest struct {
	Atlas  string          `json:"atlas"`
	Groups map[string]int  `json:"groups"` // group path -> frame count
	Frames []ManifestEntry `json:"frames"`
}

// NewManifest converts a geometry map, keeping its name order.
func NewManifest(atlas string, geo *geometry.Map) Manifest {
	m := Manifest{
		Atlas:  atlas,
		Groups: make(map[string]int),
		Frames: make([]ManifestEntry, 0, geo.Len()),
	}
	for _, grp := range geo.Groups() {
		m.Groups[grp.Key.String()] = len(grp.Entries)
	}
	for _, e := range geo.Entries() {
		m.Frames = append(m.Frames, ManifestEntry{
			Name:    e.Name,
			Group:   e.Key.Group().String(),
			Region:  e.Sprite.Region,
			Padding: e.Sprite.Padding,
			Rotated: e.Sprite.Rotated,
		})
	}
	return m
}

// WriteManifest writes the manifest of geo to path.
func WriteManifest(path, atlas string, geo *geometry.Map) error {
	data, err := json.MarshalIndent(NewManifest(atlas, geo), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
