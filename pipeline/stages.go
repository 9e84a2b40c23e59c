package pipeline

import (
	"github.com/pthm-cable/windglobe/field"
	"github.com/pthm-cable/windglobe/geo"
	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/render"
	"github.com/pthm-cable/windglobe/viewer"
)

// Render stage names.
const (
	StageSegments = "segments"
	StageTrails   = "trails"
	StageScreen   = "screen"
)

// Frame is the frozen per-frame snapshot every stage reads. The orchestrator
// rebuilds it in BeginFrame; stages never see a half-applied event.
type Frame struct {
	Index   uint64
	Viewer  viewer.Parameters
	Options Options
	Field   *field.Store

	Params    particles.Params
	Particles *particles.State
	Pool      *particles.Pool

	Surface   render.Surface
	Ellipsoid geo.Ellipsoid
	Ramp      render.ColorRamp
	Opacity   float64
	SpeedMax  float64 // normalization for segment color

	segments []render.Segment
}

type computeStage struct {
	pass particles.Pass
}

func (s computeStage) Name() string { return s.pass.Name }
func (s computeStage) Kind() Kind   { return KindCompute }

func (s computeStage) Run(f *Frame) {
	s.pass.Run(f.Pool, &f.Params, f.Particles)
}

type segmentsStage struct{}

func (segmentsStage) Name() string { return StageSegments }
func (segmentsStage) Kind() Kind   { return KindRender }

func (segmentsStage) Run(f *Frame) {
	f.segments = render.BuildSegments(f.segments, f.Particles, f.Ellipsoid, f.SpeedMax, f.Options.ParticleHeight)
	f.Surface.DrawSegments(f.segments, float32(f.Options.LineWidth), f.Ramp)
}

type trailsStage struct{}

func (trailsStage) Name() string { return StageTrails }
func (trailsStage) Kind() Kind   { return KindRender }

func (trailsStage) Run(f *Frame) {
	f.Surface.AccumulateTrails(float32(f.Options.FadeOpacity))
}

type screenStage struct{}

func (screenStage) Name() string { return StageScreen }
func (screenStage) Kind() Kind   { return KindRender }

func (screenStage) Run(f *Frame) {
	f.Surface.Composite(float32(f.Opacity))
}

// Graph declares the eight stages and their data dependencies: each compute pass
// reads the previous one's output, segments read the published particles, trails
// read segments, and screen reads trails.
func Graph() []Node {
	chain := particles.Chain()
	nodes := make([]Node, 0, len(chain)+3)
	prev := ""
	for _, pass := range chain {
		n := Node{Stage: computeStage{pass: pass}}
		if prev != "" {
			n.After = []string{prev}
		}
		nodes = append(nodes, n)
		prev = pass.Name
	}
	nodes = append(nodes,
		Node{Stage: segmentsStage{}, After: []string{prev}},
		Node{Stage: trailsStage{}, After: []string{StageSegments}},
		Node{Stage: screenStage{}, After: []string{StageTrails}},
	)
	return nodes
}
