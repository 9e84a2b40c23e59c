package app

import (
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/pthm-cable/windglobe/config"
	"github.com/pthm-cable/windglobe/pipeline"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	cfg.Screen.Width = 96
	cfg.Screen.Height = 64
	cfg.Field.LonCells = 36
	cfg.Field.LatCells = 19
	cfg.Particles.MaxParticles = 256
	cfg.Workers.Count = 2
	cfg.Telemetry.StatsWindowFrames = 5
	return cfg
}

func newHeadless(t *testing.T, cfg *config.Config, opts Options) *App {
	t.Helper()
	opts.Headless = true
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.Seed == 0 {
		opts.Seed = 7
	}
	a, err := New(cfg, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Unload)
	return a
}

func run(a *App, frames int) {
	for i := 0; i < frames; i++ {
		a.UpdateHeadless()
	}
}

func TestHeadlessReachesRunning(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 3)

	if a.State() != pipeline.StateRunning {
		t.Fatalf("expected running, got %v", a.State())
	}
	if a.Frame() != 3 {
		t.Errorf("expected frame 3, got %d", a.Frame())
	}
	if a.Pipeline().Particles() == nil {
		t.Fatal("no particles after the first field")
	}
	if a.canvas == nil {
		t.Fatal("headless surface not created")
	}
	if w, h := a.canvas.Size(); w != 96 || h != 64 {
		t.Errorf("canvas is %dx%d", w, h)
	}
}

func TestHeadlessDeterministic(t *testing.T) {
	cfg := testConfig(t)
	a := newHeadless(t, cfg, Options{Seed: 11})
	b := newHeadless(t, cfg, Options{Seed: 11})
	run(a, 6)
	run(b, 6)

	fa := a.Pipeline().Particles().Front()
	fb := b.Pipeline().Particles().Front()
	if !slices.Equal(fa.Lon, fb.Lon) || !slices.Equal(fa.Lat, fb.Lat) {
		t.Error("same seed produced different particle positions")
	}
	if !slices.Equal(a.canvas.Trails(), b.canvas.Trails()) {
		t.Error("same seed produced different trails")
	}
}

func TestSourceSwitch(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 2)

	opts := a.Pipeline().Options()
	opts.DataSource = "calm"
	a.Pipeline().Post(pipeline.OptionsChanged{Options: opts})
	run(a, 2)

	if a.Source() != "calm" {
		t.Errorf("expected source calm, got %q", a.Source())
	}
	if a.State() != pipeline.StateRunning {
		t.Errorf("expected running, got %v", a.State())
	}

	opts.DataSource = "no-such-source"
	a.Pipeline().Post(pipeline.OptionsChanged{Options: opts})
	run(a, 2)
	if a.Source() != "calm" {
		t.Errorf("unknown source replaced the current one: %q", a.Source())
	}
}

func TestAnimationKeepsParticles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Field.AnimateEvery = 2
	cfg.Field.TimeIncrement = 0.05
	a := newHeadless(t, cfg, Options{})
	run(a, 3)

	particles := a.Pipeline().Particles()
	store := a.Pipeline().Field()
	run(a, 6)

	if a.fieldTime <= 0 {
		t.Fatal("field time did not advance")
	}
	if a.Pipeline().Field() == store {
		t.Fatal("no animated field was delivered")
	}
	if a.Pipeline().Particles() != particles {
		t.Error("an animation step rebuilt the particles")
	}

	opts := a.Pipeline().Options()
	opts.DataSource = "calm"
	a.Pipeline().Post(pipeline.OptionsChanged{Options: opts})
	run(a, 2)
	if a.Pipeline().Particles() == particles {
		t.Error("a source switch should rebuild the particles")
	}
}

func TestLayerChange(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 1)
	a.Pipeline().Post(pipeline.LayerChanged{Layer: "night"})
	run(a, 1)
	if a.Layer() != "night" {
		t.Errorf("expected night layer, got %q", a.Layer())
	}
}

func TestHeadlessResize(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 2)

	a.Resize(120, 80)
	run(a, 1)
	if a.State() != pipeline.StateResizing {
		t.Fatalf("expected resizing right after the resize, got %v", a.State())
	}
	run(a, 1)
	if a.State() != pipeline.StateRunning {
		t.Fatalf("expected running after the rebuild, got %v", a.State())
	}
	if w, h := a.Pipeline().Size(); w != 120 || h != 80 {
		t.Errorf("pipeline size %dx%d", w, h)
	}
	if w, h := a.canvas.Size(); w != 120 || h != 80 {
		t.Errorf("canvas size %dx%d", w, h)
	}
}

func TestMoveRetunes(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 2)
	before := a.Pipeline().Options().MaxParticles

	a.MoveTo(40, 20, 5000)
	run(a, 1)
	after := a.Pipeline().Options().MaxParticles
	if after >= before {
		t.Errorf("zooming in close should lower the particle count: %d -> %d", before, after)
	}
	if !a.Pipeline().Shown() {
		t.Error("a finished move should show the trails again")
	}
}

func TestSnapshotRestore(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	a := newHeadless(t, cfg, Options{SnapshotDir: dir, Seed: 5})
	run(a, 2)
	a.MoveTo(-60, 35, 8e6)
	opts := a.Pipeline().Options()
	opts.LineWidth = 2.5
	opts.DataSource = "cyclones"
	a.Pipeline().Post(pipeline.OptionsChanged{Options: opts})
	run(a, 3)

	path, err := a.SaveSnapshot()
	if err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	b := newHeadless(t, cfg, Options{RestorePath: path})
	run(b, 2)

	if b.Camera().Lon != a.Camera().Lon || b.Camera().Lat != a.Camera().Lat || b.Camera().Height != a.Camera().Height {
		t.Errorf("camera %+v, want %+v", *b.Camera(), *a.Camera())
	}
	if b.Source() != "cyclones" {
		t.Errorf("restored source %q", b.Source())
	}
	if got := b.Pipeline().Options().LineWidth; got != 2.5 {
		t.Errorf("restored line width %v", got)
	}
	if b.seed != 5 {
		t.Errorf("restored seed %d", b.seed)
	}
}

func TestWritePNG(t *testing.T) {
	a := newHeadless(t, testConfig(t), Options{})
	run(a, 4)

	path := filepath.Join(t.TempDir(), "frame.png")
	if err := a.WritePNG(path); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 96 || b.Dy() != 64 {
		t.Errorf("image is %v", b)
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	a := newHeadless(t, testConfig(t), Options{OutputDir: dir})
	run(a, 11)
	a.Unload()

	for _, name := range []string{"frames.csv", "perf.csv", "config.yaml"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}
