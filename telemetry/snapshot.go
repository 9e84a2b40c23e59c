package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/viewer"
)

// SnapshotVersion is bumped whenever the JSON layout changes.
const SnapshotVersion = 2

// Snapshot is enough to bring a run back to the same view. Particles are not
// stored; a restore reseeds them from Seed.
type Snapshot struct {
	Version  int               `json:"version"`
	Seed     int64             `json:"seed"`
	Frame    uint64            `json:"frame"`
	Camera   CameraState       `json:"camera"`
	Options  pipeline.Options  `json:"options"`
	View     viewer.Parameters `json:"view"`
	Bookmark *Bookmark         `json:"bookmark,omitempty"`
}

// CameraState is the globe camera's pose.
type CameraState struct {
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Height float64 `json:"height"`
}

// FileName is snapshot_<frame>[_<bookmark>].json.
func (s *Snapshot) FileName() string {
	name := fmt.Sprintf("snapshot_%d", s.Frame)
	if s.Bookmark != nil {
		name += "_" + strings.ReplaceAll(string(s.Bookmark.Type), " ", "_")
	}
	return name + ".json"
}

// SaveSnapshot writes s under dir, creating it if needed, and returns the
// file path.
func SaveSnapshot(s *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, s.FileName())
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return path, f.Close()
}

// LoadSnapshot reads a snapshot and rejects other format versions.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	defer f.Close()

	var s Snapshot
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", s.Version, SnapshotVersion)
	}
	return &s, nil
}
