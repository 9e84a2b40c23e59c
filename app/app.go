// Package app wires the camera, the wind field loaders, the particle pipeline,
// the globe renderer and the UI into the frame loop. Graphical mode needs an
// open raylib window; headless mode renders into a software canvas.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/windglobe/adaptive"
	"github.com/pthm-cable/windglobe/camera"
	"github.com/pthm-cable/windglobe/config"
	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/render"
	"github.com/pthm-cable/windglobe/renderer"
	"github.com/pthm-cable/windglobe/scene"
	"github.com/pthm-cable/windglobe/telemetry"
	"github.com/pthm-cable/windglobe/ui"
)

const starCount = 1500

// Options configures an App beyond the loaded configuration.
type Options struct {
	Seed        int64
	LogStats    bool   // log stats and bookmarks via slog
	OutputDir   string // CSV logs and config copy; empty disables
	SnapshotDir string // empty uses OutputDir/snapshots, or ./snapshots
	RestorePath string // snapshot to restore at startup
	Headless    bool
	Logger      *slog.Logger
}

// App holds the complete visualizer state.
type App struct {
	cfg      *config.Config
	log      *slog.Logger
	seed     int64
	headless bool

	camera *camera.Globe
	scene  *scene.Scene
	pool   *particles.Pool
	orch   *pipeline.Orchestrator

	globe  *renderer.GlobeRenderer // graphical mode only
	canvas *render.Canvas          // headless mode only, replaced on resize
	layer  string

	// Wind field sources
	presets    []field.Preset
	source     string
	loading    <-chan field.LoadResult
	cancelLoad context.CancelFunc
	advancing  bool // the pending load is a time step of the current source
	fieldTime  float64

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	bookmarks     *telemetry.BookmarkDetector
	output        *telemetry.OutputManager
	logStats      bool
	snapshotDir   string

	// bookmarkSnapshots saves a snapshot for every bookmark; on when any
	// output location was requested
	bookmarkSnapshots bool

	// UI (graphical mode only)
	overlays  *ui.OverlayRegistry
	panel     *ui.OptionsPanel
	hud       *ui.HUD
	perfPanel *ui.PerfPanel
	readout   *ui.WindReadout
	controls  *ui.ControlsPanel
	graticule [][]geo.Cartographic

	screenW, screenH int
	idleFrames       int
	dragging         bool
	report           pipeline.Report
}

// New builds an App. In graphical mode the raylib window must already be open.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{
		cfg:           cfg,
		log:           logger,
		seed:          opts.Seed,
		headless:      opts.Headless,
		scene:         scene.New(),
		pool:          particles.NewPool(cfg.Workers.Count, cfg.Workers.ParallelThreshold),
		layer:         cfg.Globe.Layer,
		source:        cfg.Field.Source,
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindowFrames),
		bookmarks:     telemetry.NewBookmarkDetector(10),
		logStats:      opts.LogStats,
		screenW:       cfg.Screen.Width,
		screenH:       cfg.Screen.Height,
	}

	var restore *telemetry.Snapshot
	if opts.RestorePath != "" {
		snap, err := telemetry.LoadSnapshot(opts.RestorePath)
		if err != nil {
			a.pool.Stop()
			return nil, fmt.Errorf("restoring snapshot: %w", err)
		}
		restore = snap
		a.seed = snap.Seed
		a.layer = snap.Options.GlobeLayer
		a.source = snap.Options.DataSource
	}

	ell := geo.Ellipsoid{A: cfg.Globe.SemiMajor, B: cfg.Globe.SemiMinor}
	a.camera = camera.New(float64(a.screenW), float64(a.screenH), ell,
		cfg.Globe.CameraLon, cfg.Globe.CameraLat, cfg.Globe.CameraHeight)
	a.camera.FovY = cfg.Globe.FovDeg
	a.camera.MinHeight = cfg.Globe.MinHeight
	a.camera.MaxHeight = cfg.Globe.MaxHeight

	grid := field.Grid{NLon: cfg.Field.LonCells, NLat: cfg.Field.LatCells, NLev: cfg.Field.LevCells}
	bounds := field.Bounds{
		LonMin: cfg.Field.LonMin, LonMax: cfg.Field.LonMax,
		LatMin: cfg.Field.LatMin, LatMax: cfg.Field.LatMax,
		HeightMin: cfg.Field.HeightMin, HeightMax: cfg.Field.HeightMax,
	}
	a.presets = field.Presets(grid, bounds, a.fieldSeed())

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		a.pool.Stop()
		return nil, err
	}
	a.output = output
	if err := a.output.WriteConfig(cfg); err != nil {
		a.log.Error("failed to write config copy", "error", err)
	}
	a.snapshotDir = opts.SnapshotDir
	a.bookmarkSnapshots = opts.SnapshotDir != "" || opts.OutputDir != ""
	if a.snapshotDir == "" {
		a.snapshotDir = a.output.SnapshotDir()
	}
	if a.snapshotDir == "" {
		a.snapshotDir = "snapshots"
	}

	factory := a.canvasFactory
	if !a.headless {
		a.scene.Add(renderer.NewStarfield(a.camera, starCount, a.seed))
		globe, err := renderer.NewGlobeRenderer(a.camera, a.layer, a.seed)
		if err != nil {
			a.Unload()
			return nil, err
		}
		a.globe = globe
		a.scene.Add(globe)
		factory = renderer.Factory(a.camera)
		a.initUI()
	}

	orch, err := pipeline.New(pipeline.Config{
		Width:     a.screenW,
		Height:    a.screenH,
		Ellipsoid: ell,
		Base: adaptive.Base{
			MaxParticles:  cfg.Particles.MaxParticles,
			LineWidth:     cfg.Particles.LineWidth,
			FadeOpacity:   cfg.Particles.FadeOpacity,
			SpeedFactor:   cfg.Particles.SpeedFactor,
			InitialHeight: cfg.Globe.CameraHeight,
		},
		Defaults:        a.defaultOptions(),
		TimeStep:        cfg.Particles.TimeStep,
		MaxAge:          cfg.Particles.MaxAge,
		MaxVoidFrames:   cfg.Particles.MaxVoidFrames,
		SpeedMax:        cfg.Particles.SpeedMax,
		CullToView:      cfg.Particles.CullToView,
		Opacity:         cfg.Particles.Opacity,
		Seed:            uint64(a.seed),
		Camera:          a.camera,
		Scene:           a.scene,
		Pool:            a.pool,
		NewSurface:      factory,
		Timer:           a.perfCollector,
		OnLayerChanged:  a.setLayer,
		OnSourceChanged: a.requestSource,
		Logger:          a.log,
	})
	if err != nil {
		a.Unload()
		return nil, err
	}
	a.orch = orch

	// The first MoveEnd derives the adaptive values for the starting height.
	if restore != nil {
		a.applySnapshot(restore)
	}
	a.orch.Post(pipeline.MoveEnd{Height: a.camera.Height})
	if restore != nil {
		a.orch.Post(pipeline.OptionsChanged{Options: restore.Options})
	}

	if err := a.loadSource(a.source); err != nil {
		a.Unload()
		return nil, err
	}

	a.log.Info("app ready",
		"headless", a.headless,
		"seed", a.seed,
		"source", a.source,
		"layer", a.layer,
		"workers", a.pool.Workers(),
	)
	return a, nil
}

// defaultOptions are the configured panel values before any tuning.
func (a *App) defaultOptions() pipeline.Options {
	p := a.cfg.Particles
	return pipeline.Options{
		MaxParticles:   p.MaxParticles,
		LineWidth:      p.LineWidth,
		FadeOpacity:    p.FadeOpacity,
		SpeedFactor:    p.SpeedFactor,
		ParticleHeight: p.ParticleHeight,
		DropRate:       p.DropRate,
		DropRateBump:   p.DropRateBump,
		GlobeLayer:     a.layer,
		DataSource:     a.source,
	}
}

func (a *App) fieldSeed() int64 {
	if a.cfg.Field.Seed != 0 {
		return a.cfg.Field.Seed
	}
	return a.seed
}

// canvasFactory creates the software surface used in headless mode.
func (a *App) canvasFactory(w, h int) render.Surface {
	a.canvas = render.NewCanvas(w, h, a.camera, a.pool)
	return a.canvas
}

// setLayer swaps the globe base layer. Unknown layers keep the current one.
func (a *App) setLayer(layer string) {
	if a.globe != nil {
		if err := a.globe.SetLayer(layer); err != nil {
			a.log.Warn("layer change rejected", "layer", layer, "error", err)
			return
		}
	}
	a.layer = layer
}

// Frame returns the index of the last completed frame.
func (a *App) Frame() uint64 {
	return a.report.Frame
}

// Report returns the summary of the last completed frame.
func (a *App) Report() pipeline.Report {
	return a.report
}

// State returns the pipeline lifecycle state.
func (a *App) State() pipeline.State {
	return a.orch.State()
}

// Camera returns the globe camera.
func (a *App) Camera() *camera.Globe {
	return a.camera
}

// Pipeline returns the orchestrator.
func (a *App) Pipeline() *pipeline.Orchestrator {
	return a.orch
}

// Layer returns the active globe layer.
func (a *App) Layer() string {
	return a.layer
}

// Source returns the data source currently loaded or loading.
func (a *App) Source() string {
	return a.source
}

// Unload releases GPU resources, stops workers and closes output files.
func (a *App) Unload() {
	if a.cancelLoad != nil {
		a.cancelLoad()
		a.cancelLoad = nil
	}
	if a.orch != nil {
		a.orch.Close()
	}
	if a.globe != nil {
		a.globe.Unload()
		a.globe = nil
	}
	a.pool.Stop()
	if err := a.output.Close(); err != nil {
		a.log.Error("failed to close output", "error", err)
	}
	a.output = nil
}
