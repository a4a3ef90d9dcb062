package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultPath is used when no results path is configured.
const DefaultPath = "processing_results.txt"

const timeLayout = "2006-01-02 15:04:05"

// Stats describes the processing of one atlas.
type Stats struct {
	SheetName      string
	Width, Height  int
	TotalUnits     int // accepted frames
	ProcessedUnits int // frames written
	StartedAt      time.Time
	Duration       time.Duration
	Warnings       []string
	Errors         []string
}

// Recorder accumulates statistics. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	stats []Stats
}

// Record appends one atlas entry.
func (r *Recorder) Record(s Stats) {
	r.mu.Lock()
	r.stats = append(r.stats, s)
	r.mu.Unlock()
}

// All returns a copy of every recorded entry in recording order.
func (r *Recorder) All() []Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stats, len(r.stats))
	copy(out, r.stats)
	return out
}

// WriteText renders the plain-text processing report.
func WriteText(w io.Writer, now time.Time, stats []Stats) error {
	var b strings.Builder
	b.WriteString("Sprite Sheet Processing Results\n")
	b.WriteString("==============================\n")
	fmt.Fprintf(&b, "Processing Date: %s\n\n", now.Format(timeLayout))

	for _, s := range stats {
		fmt.Fprintf(&b, "Sprite Sheet: %s\n", s.SheetName)
		fmt.Fprintf(&b, "Dimensions: %dx%d\n", s.Width, s.Height)
		fmt.Fprintf(&b, "Total Units: %d\n", s.TotalUnits)
		fmt.Fprintf(&b, "Processed Units: %d\n", s.ProcessedUnits)
		fmt.Fprintf(&b, "Processing Time: %s\n", s.StartedAt.Format(timeLayout))
		if s.Duration > 0 {
			fmt.Fprintf(&b, "Duration: %s\n", s.Duration.Round(time.Millisecond))
		}
		writeList(&b, "Warnings", s.Warnings)
		writeList(&b, "Errors", s.Errors)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "  - %s\n", it)
	}
}

// Save writes the report for everything recorded so far to path.
func (r *Recorder) Save(path string, now time.Time) error {
	if path == "" {
		path = DefaultPath
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	if err := WriteText(f, now, r.All()); err != nil {
		f.Close()
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return f.Close()
}
