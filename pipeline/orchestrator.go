// Package pipeline sequences the particle compute passes and the trail render
// passes, and turns host notifications (camera moves, resizes, panel edits,
// field loads) into frame-boundary state changes.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/windglobe/adaptive"
	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/render"
	"github.com/pthm-cable/windglobe/scene"
	"github.com/pthm-cable/windglobe/viewer"
)

// State is the orchestrator lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateRunning
	StateResizing
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateResizing:
		return "resizing"
	default:
		return "uninitialized"
	}
}

// PhaseTimer receives a phase mark before each stage runs.
type PhaseTimer interface {
	StartPhase(name string)
}

// Config wires the orchestrator to its host.
type Config struct {
	Width, Height int
	Ellipsoid     geo.Ellipsoid

	Base     adaptive.Base
	Defaults Options

	TimeStep      float64
	MaxAge        uint32
	MaxVoidFrames uint16
	SpeedMax      float64
	CullToView    bool
	Opacity       float64
	Seed          uint64

	Camera     viewer.Camera
	Scene      *scene.Scene
	Pool       *particles.Pool
	NewSurface render.Factory
	Ramp       render.ColorRamp
	Timer      PhaseTimer

	// OnLayerChanged swaps the globe base style. Optional.
	OnLayerChanged func(layer string)
	// OnSourceChanged requests a new wind field. Optional.
	OnSourceChanged func(source string)

	Logger *slog.Logger
}

// Report summarizes one completed frame.
type Report struct {
	Frame  uint64
	State  State
	Shown  bool
	Census particles.Census
}

// Orchestrator owns the stage graph, the particle state and the render surface.
// All methods run on the control thread.
type Orchestrator struct {
	cfg    Config
	log    *slog.Logger
	stages []Stage

	state State
	queue []Event

	store     *field.Store
	particles *particles.State
	surface   render.Surface
	entities  []ecs.Entity

	width, height int
	pendingW      int
	pendingH      int
	latchedAt     uint64 // frame index at which the pending resize was latched

	viewer  viewer.Parameters
	options Options
	tuning  adaptive.Tuning

	moving    bool
	refreshed bool
	shown     bool

	index  uint64
	frame  Frame
	faults FaultCounts
}

// New validates the stage graph and returns an uninitialized orchestrator. It
// reaches Running when the first FieldLoaded event is handled.
func New(cfg Config) (*Orchestrator, error) {
	stages, err := Sort(Graph())
	if err != nil {
		return nil, fmt.Errorf("build stage graph: %w", err)
	}
	if cfg.Scene == nil {
		return nil, fmt.Errorf("pipeline: scene is required")
	}
	if cfg.NewSurface == nil {
		return nil, fmt.Errorf("pipeline: surface factory is required")
	}
	if cfg.Pool == nil {
		cfg.Pool = particles.NewPool(1, 0)
	}
	if cfg.Ramp == nil {
		cfg.Ramp = render.DefaultRamp
	}
	if cfg.Opacity <= 0 {
		cfg.Opacity = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	o := &Orchestrator{
		cfg:       cfg,
		log:       logger,
		stages:    stages,
		width:     cfg.Width,
		height:    cfg.Height,
		viewer:    viewer.Default(),
		refreshed: true,
	}
	o.options = o.clamp(cfg.Defaults)
	if cfg.Camera != nil {
		o.viewer = viewer.Update(o.viewer, cfg.Camera)
	}
	return o, nil
}

// Post queues an event for the next BeginFrame.
func (o *Orchestrator) Post(e Event) {
	o.queue = append(o.queue, e)
}

// BeginFrame handles queued events, completes a resize latched on an earlier
// frame, updates primitive visibility and freezes the frame snapshot. Call it
// once per frame before the scene executes.
func (o *Orchestrator) BeginFrame() {
	o.index++

	events := o.queue
	o.queue = nil
	for _, e := range events {
		o.handle(e)
	}

	if o.state == StateResizing && o.latchedAt < o.index {
		o.rebuild()
	}

	o.updateVisibility()
	o.snapshot()
}

// EndFrame counts recovered faults and reports the frame.
func (o *Orchestrator) EndFrame() Report {
	r := Report{Frame: o.index, State: o.state, Shown: o.shown}
	if o.particles == nil {
		if o.state == StateUninitialized {
			o.faults[FaultDataUnavailable]++
		}
		return r
	}
	r.Census = o.particles.Census()
	if o.shown {
		o.faults[FaultDataUnavailable] += uint64(r.Census.Void)
		o.faults[FaultNumericDegeneracy] += uint64(r.Census.NonFinite)
	}
	return r
}

func (o *Orchestrator) handle(e Event) {
	o.log.Debug("event", "action", ActionOf(e), "type", fmt.Sprintf("%T", e))

	switch ev := e.(type) {
	case MoveStart:
		o.moving = true
		o.refreshed = false
		o.hide()

	case MoveEnd:
		o.moving = false
		o.recompute(ev.Height)

	case Resize:
		o.resize(ev.Width, ev.Height)

	case OptionsChanged:
		o.applyOptions(ev.Options)

	case LayerChanged:
		o.options.GlobeLayer = ev.Layer
		if o.cfg.OnLayerChanged != nil {
			o.cfg.OnLayerChanged(ev.Layer)
		}

	case FieldLoaded:
		o.loadField(ev.Store, ev.Advance)
	}
}

// recompute refreshes the view parameters and re-derives the adaptive values,
// discarding panel overrides.
func (o *Orchestrator) recompute(height float64) {
	if o.cfg.Camera != nil {
		o.viewer = viewer.Update(o.viewer, o.cfg.Camera)
	}
	o.tuning = o.cfg.Base.Tune(height)
	next, _ := o.options.withTuning(o.tuning).Clamp()
	o.log.Info("adaptive parameters", "tuning", o.tuning, "viewer", o.viewer)

	o.setOptions(next)
	o.refreshed = true
}

// applyOptions takes a panel snapshot as an override until the next MoveEnd.
func (o *Orchestrator) applyOptions(opts Options) {
	next := o.clamp(opts)
	if next.DataSource != o.options.DataSource && o.cfg.OnSourceChanged != nil {
		o.cfg.OnSourceChanged(next.DataSource)
	}
	if next.GlobeLayer != o.options.GlobeLayer && o.cfg.OnLayerChanged != nil {
		o.cfg.OnLayerChanged(next.GlobeLayer)
	}
	o.log.Info("options applied", "options", next)
	o.setOptions(next)
}

// setOptions installs new options and refreshes the particles: a new count
// reallocates them, otherwise every particle is reseeded into the current view.
// Trails are cleared either way.
func (o *Orchestrator) setOptions(next Options) {
	countChanged := next.MaxParticles != o.options.MaxParticles
	o.options = next
	if o.store == nil || o.particles == nil {
		return
	}
	seeder := o.seeder()
	if countChanged {
		o.particles = particles.NewState(next.MaxParticles, seeder)
	} else {
		o.particles.Reseed(seeder)
	}
	if o.surface != nil {
		o.surface.Clear()
	}
}

func (o *Orchestrator) clamp(opts Options) Options {
	next, fixed := opts.Clamp()
	if fixed > 0 {
		o.faults[FaultConfigurationInvalid] += uint64(fixed)
		o.log.Warn("options clamped", "fields", fixed)
	}
	return next
}

func (o *Orchestrator) seeder() particles.Seeder {
	return particles.NewSeeder(o.store, o.viewer.Range(), o.cfg.Seed)
}

// loadField installs a new field snapshot. The first one constructs the
// particles, surface and stages; later ones reseed against the new field,
// except an advance on the same grid, which only swaps the store.
func (o *Orchestrator) loadField(store *field.Store, advance bool) {
	if store == nil {
		return
	}
	prev := o.store
	o.store = store
	if advance && o.particles != nil && sameGrid(prev, store) {
		o.log.Debug("field advanced", "speed_max", store.Bounds().SpeedMax)
		return
	}
	o.log.Info("field loaded", "grid", fmt.Sprintf("%+v", store.Grid()), "speed_max", store.Bounds().SpeedMax)

	if o.state == StateUninitialized {
		o.particles = particles.NewState(o.options.MaxParticles, o.seeder())
		o.construct()
		o.setState(StateRunning)
		return
	}
	o.particles = particles.NewState(o.options.MaxParticles, o.seeder())
	if o.surface != nil {
		o.surface.Clear()
	}
}

// sameGrid reports whether two snapshots share a grid and a spatial extent, so
// particles seeded against one stay valid in the other.
func sameGrid(a, b *field.Store) bool {
	if a == nil || b == nil || a.Grid() != b.Grid() {
		return false
	}
	ab, bb := a.Bounds(), b.Bounds()
	return ab.Range() == bb.Range() && ab.HeightMin == bb.HeightMin && ab.HeightMax == bb.HeightMax
}

// resize latches a new viewport size. Matching the current size while running is
// a no-op; a resize while one is pending supersedes it.
func (o *Orchestrator) resize(w, h int) {
	switch o.state {
	case StateUninitialized:
		o.width, o.height = w, h
		return
	case StateRunning:
		if w == o.width && h == o.height {
			return
		}
	case StateResizing:
		if w == o.pendingW && h == o.pendingH {
			return
		}
		o.faults[FaultResourceExhaustion]++
	}

	o.pendingW, o.pendingH = w, h
	o.latchedAt = o.index
	if o.state == StateRunning {
		o.hide()
		o.destroy()
		o.setState(StateResizing)
	}
}

// rebuild completes a latched resize at a frame boundary, recreating the
// particle state destroyed with the old surface.
func (o *Orchestrator) rebuild() {
	o.width, o.height = o.pendingW, o.pendingH
	if o.store != nil {
		o.particles = particles.NewState(o.options.MaxParticles, o.seeder())
	}
	o.construct()
	o.setState(StateRunning)
}

// construct creates the surface and inserts the stages into the scene in sorted
// order, hidden until updateVisibility decides otherwise.
func (o *Orchestrator) construct() {
	o.surface = o.cfg.NewSurface(o.width, o.height)
	o.entities = o.entities[:0]
	for _, st := range o.stages {
		e := o.cfg.Scene.Add(primitive{stage: st, o: o})
		o.entities = append(o.entities, e)
	}
	o.shown = true
	o.hide()
}

// destroy removes the stages from the scene and releases the surface and the
// particle state.
func (o *Orchestrator) destroy() {
	for _, e := range o.entities {
		o.cfg.Scene.Remove(e)
	}
	o.entities = o.entities[:0]
	o.particles = nil
	if o.surface != nil {
		o.surface.Unload()
		o.surface = nil
	}
}

func (o *Orchestrator) hide() {
	if !o.shown {
		return
	}
	o.cfg.Scene.SetShow(false, o.entities...)
	o.shown = false
}

// updateVisibility shows the primitives only when running, not moving, and the
// view parameters were refreshed since they were last hidden.
func (o *Orchestrator) updateVisibility() {
	want := o.state == StateRunning && !o.moving && o.refreshed
	if want == o.shown {
		return
	}
	if want {
		o.cfg.Scene.SetShow(true, o.entities...)
		o.shown = true
		return
	}
	o.hide()
}

func (o *Orchestrator) setState(s State) {
	if s == o.state {
		return
	}
	o.log.Info("pipeline state", "from", o.state.String(), "state", s.String(), "width", o.width, "height", o.height)
	o.state = s
}

// snapshot freezes the frame every stage reads.
func (o *Orchestrator) snapshot() {
	speedMax := o.cfg.SpeedMax
	if speedMax <= 0 && o.store != nil {
		speedMax = float64(o.store.Bounds().SpeedMax) * o.options.SpeedFactor
	}

	segs := o.frame.segments
	o.frame = Frame{
		Index:   o.index,
		Viewer:  o.viewer,
		Options: o.options,
		Field:   o.store,
		Params: particles.Params{
			Field:         o.store,
			Visible:       o.viewer.Range(),
			SpeedFactor:   o.options.SpeedFactor,
			TimeStep:      o.cfg.TimeStep,
			MaxAge:        o.cfg.MaxAge,
			MaxVoidFrames: o.cfg.MaxVoidFrames,
			SpeedMax:      o.cfg.SpeedMax,
			DropRate:      o.options.DropRate,
			DropRateBump:  o.options.DropRateBump,
			CullToView:    o.cfg.CullToView,
			PixelSize:     o.viewer.PixelSize,
			Seed:          o.cfg.Seed ^ (o.index * 0x9e3779b97f4a7c15),
		},
		Particles: o.particles,
		Pool:      o.cfg.Pool,
		Surface:   o.surface,
		Ellipsoid: o.cfg.Ellipsoid,
		Ramp:      o.cfg.Ramp,
		Opacity:   o.cfg.Opacity,
		SpeedMax:  speedMax,
		segments:  segs,
	}
}

// Close releases the surface and removes the stages from the scene.
func (o *Orchestrator) Close() {
	o.destroy()
}

// State returns the lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Shown reports whether the stage primitives are drawn this frame.
func (o *Orchestrator) Shown() bool { return o.shown }

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.options }

// Viewer returns the current view parameters.
func (o *Orchestrator) Viewer() viewer.Parameters { return o.viewer }

// Particles returns the particle state, nil before the first field.
func (o *Orchestrator) Particles() *particles.State { return o.particles }

// Surface returns the render surface, nil while resizing.
func (o *Orchestrator) Surface() render.Surface { return o.surface }

// Field returns the current field snapshot.
func (o *Orchestrator) Field() *field.Store { return o.store }

// Faults returns cumulative fault counts.
func (o *Orchestrator) Faults() FaultCounts { return o.faults }

// Size returns the viewport size the surface was built for.
func (o *Orchestrator) Size() (int, int) { return o.width, o.height }

// StageNames returns the stage names in execution order.
func (o *Orchestrator) StageNames() []string {
	names := make([]string, len(o.stages))
	for i, s := range o.stages {
		names[i] = s.Name()
	}
	return names
}

// StageCount returns how many stage primitives are in the scene.
func (o *Orchestrator) StageCount() int { return len(o.entities) }

// primitive adapts a stage to the scene's draw list.
type primitive struct {
	stage Stage
	o     *Orchestrator
}

func (p primitive) Name() string { return p.stage.Name() }

func (p primitive) Execute() {
	f := &p.o.frame
	if f.Particles == nil || f.Surface == nil {
		return
	}
	if p.o.cfg.Timer != nil {
		p.o.cfg.Timer.StartPhase(p.stage.Name())
	}
	p.stage.Run(f)
}
