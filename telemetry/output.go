package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/windglobe/config"
)

// csvSink is one CSV file whose header is written with the first record.
type csvSink struct {
	f      *os.File
	header bool
}

func (s *csvSink) write(records any) error {
	if s.header {
		return gocsv.MarshalWithoutHeaders(records, s.f)
	}
	if err := gocsv.Marshal(records, s.f); err != nil {
		return err
	}
	s.header = true
	return nil
}

// OutputManager writes a run's CSV logs and config into one directory. A nil
// *OutputManager is valid and discards everything.
type OutputManager struct {
	dir       string
	frames    csvSink
	perf      csvSink
	bookmarks csvSink
}

// NewOutputManager creates dir and the CSV files in it. An empty dir disables
// output and returns nil.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	files := []struct {
		name string
		sink *csvSink
	}{
		{"frames.csv", &om.frames},
		{"perf.csv", &om.perf},
		{"bookmarks.csv", &om.bookmarks},
	}
	for _, file := range files {
		f, err := os.Create(filepath.Join(dir, file.name))
		if err != nil {
			om.Close()
			return nil, fmt.Errorf("creating %s: %w", file.name, err)
		}
		file.sink.f = f
	}
	return om, nil
}

// WriteConfig saves cfg as config.yaml next to the logs.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteStats appends a window to frames.csv.
func (om *OutputManager) WriteStats(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := om.frames.write([]WindowStats{stats}); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

// WritePerf appends the perf window ending at windowEnd to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	if err := om.perf.write([]PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

func (om *OutputManager) WriteBookmark(b Bookmark) error {
	if om == nil {
		return nil
	}
	if err := om.bookmarks.write([]Bookmark{b}); err != nil {
		return fmt.Errorf("writing bookmark: %w", err)
	}
	return nil
}

// SnapshotDir returns where snapshots of this run are written.
func (om *OutputManager) SnapshotDir() string {
	if om == nil {
		return ""
	}
	return filepath.Join(om.dir, "snapshots")
}

func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes every open file and joins their errors.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	var errs []error
	for _, s := range []*csvSink{&om.frames, &om.perf, &om.bookmarks} {
		if s.f == nil {
			continue
		}
		errs = append(errs, s.f.Close())
		s.f = nil
	}
	return errors.Join(errs...)
}
