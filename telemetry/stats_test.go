package telemetry

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/viewer"
)

func TestSpeedStats(t *testing.T) {
	values := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	mean, std, p10, p50, p90, max := SpeedStats(values)

	if math.Abs(mean-5.5) > 1e-9 {
		t.Errorf("mean = %v, want 5.5", mean)
	}
	// Population standard deviation of 1..10
	if math.Abs(std-math.Sqrt(8.25)) > 1e-9 {
		t.Errorf("std = %v, want %v", std, math.Sqrt(8.25))
	}
	if p10 < 1 || p10 > 2 {
		t.Errorf("p10 = %v, want within [1, 2]", p10)
	}
	if p50 < 5 || p50 > 6 {
		t.Errorf("p50 = %v, want within [5, 6]", p50)
	}
	if p90 < 9 || p90 > 10 {
		t.Errorf("p90 = %v, want within [9, 10]", p90)
	}
	if max != 10 {
		t.Errorf("max = %v, want 10", max)
	}
	if !(p10 <= p50 && p50 <= p90) {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
}

func TestSpeedStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90, max := SpeedStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 || max != 0 {
		t.Error("expected all zeros for empty input")
	}
}

type fakeSource struct {
	state  pipeline.State
	ps     *particles.State
	opts   pipeline.Options
	view   viewer.Parameters
	faults pipeline.FaultCounts
}

func (f *fakeSource) State() pipeline.State { return f.state }
func (f *fakeSource) Particles() *particles.State { return f.ps }
func (f *fakeSource) Options() pipeline.Options { return f.opts }
func (f *fakeSource) Viewer() viewer.Parameters { return f.view }
func (f *fakeSource) Faults() pipeline.FaultCounts { return f.faults }

func newFakeSource() *fakeSource {
	ps := particles.NewState(4, particles.Seeder{})
	front := ps.Front()
	for i := range front.Flags {
		front.Flags[i] = particles.FlagContinuous
		front.Speed[i] = float32(i + 1)
	}
	front.Flags[3] = particles.FlagReseeded

	src := &fakeSource{
		state: pipeline.StateRunning,
		ps:    ps,
		opts:  pipeline.Options{MaxParticles: 4, LineWidth: 2, FadeOpacity: 0.9, SpeedFactor: 1},
		view:  viewer.Default(),
	}
	src.faults[pipeline.FaultResourceExhaustion] = 2
	return src
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(3)
	src := newFakeSource()

	for frame := uint64(1); frame <= 3; frame++ {
		c.Record(pipeline.Report{
			Frame:  frame,
			State:  pipeline.StateRunning,
			Shown:  frame > 1,
			Census: particles.Census{Total: 4, Reseeded: 1, Void: 2},
		})
		if frame < 3 && c.ShouldFlush(frame) {
			t.Fatalf("flushed early at frame %d", frame)
		}
	}
	if !c.ShouldFlush(3) {
		t.Fatal("expected flush at frame 3")
	}

	stats := c.Flush(3, src)
	if stats.Frames != 3 || stats.Reseeds != 3 || stats.VoidSamples != 6 {
		t.Errorf("unexpected window counters: %+v", stats)
	}
	if stats.HiddenFrames != 1 {
		t.Errorf("expected 1 hidden frame, got %d", stats.HiddenFrames)
	}
	if stats.Particles != 4 || stats.Continuous != 3 {
		t.Errorf("expected 4 particles with 3 continuous, got %d/%d", stats.Particles, stats.Continuous)
	}
	if math.Abs(stats.SpeedMean-2) > 1e-9 || stats.SpeedMax != 3 {
		t.Errorf("speed stats should cover continuous particles only: mean %v max %v", stats.SpeedMean, stats.SpeedMax)
	}
	if stats.State != "running" || stats.FaultResourceExhaustion != 2 {
		t.Errorf("unexpected state/faults: %q %d", stats.State, stats.FaultResourceExhaustion)
	}

	// Counters reset
	next := c.Flush(6, src)
	if next.Frames != 0 || next.Reseeds != 0 || next.WindowStartFrame != 3 {
		t.Errorf("counters not reset: %+v", next)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := om.WriteStats(WindowStats{WindowEndFrame: uint64(60 * (i + 1)), Particles: 10}); err != nil {
			t.Fatalf("WriteStats: %v", err)
		}
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkVoidRegion, Frame: 60}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WritePerf(PerfStats{P95Frame: time.Millisecond}, 60); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(perf), "p95_frame_us") || !strings.Contains(string(perf), ",1000,") {
		t.Errorf("perf row missing p95: %q", perf)
	}

	data, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "window_end,frames,state,particles") {
		t.Errorf("unexpected header %q", lines[0])
	}

	data, err = os.ReadFile(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "void_region") {
		t.Errorf("bookmark not written: %q", data)
	}
}

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager, got %v %v", om, err)
	}
	// Nil manager methods are no-ops
	if err := om.WriteStats(WindowStats{}); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("expected empty dir")
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}
