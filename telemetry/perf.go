package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/pipeline"
)

// Phase names for one frame. The compute and render phases are the pipeline
// stage names; events and present bracket them.
const (
	PhaseEvents              = "events"
	PhaseGetWind             = particles.PassGetWind
	PhaseUpdateSpeed         = particles.PassUpdateSpeed
	PhaseUpdatePosition      = particles.PassUpdatePosition
	PhasePostProcessPosition = particles.PassPostProcessPosition
	PhasePostProcessSpeed    = particles.PassPostProcessSpeed
	PhaseSegments            = pipeline.StageSegments
	PhaseTrails              = pipeline.StageTrails
	PhaseScreen              = pipeline.StageScreen
	PhasePresent             = "present"
)

// Phases lists every phase in frame order.
var Phases = []string{
	PhaseEvents,
	PhaseGetWind, PhaseUpdateSpeed, PhaseUpdatePosition,
	PhasePostProcessPosition, PhasePostProcessSpeed,
	PhaseSegments, PhaseTrails, PhaseScreen,
	PhasePresent,
}

// frameSample is one timed frame. phases is indexed like PerfCollector.names
// and may be shorter when a phase was first seen after the sample was taken.
type frameSample struct {
	total  time.Duration
	phases []time.Duration
}

// PerfCollector times frames and their phases over a ring of the last
// window frames. Phases are marked in sequence; each mark closes the
// previous one.
type PerfCollector struct {
	window int
	ring   []frameSample
	next   int
	filled int

	names []string
	index map[string]int

	frameStart time.Time
	markStart  time.Time
	open       int // index of the running phase, -1 when none
	cur        []time.Duration

	lastPresent time.Time
	interval    time.Duration

	now func() time.Time
}

// NewPerfCollector creates a collector averaging over window frames. A
// non-positive window falls back to 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{
		window: window,
		ring:   make([]frameSample, window),
		index:  make(map[string]int, len(Phases)),
		open:   -1,
		now:    time.Now,
	}
	for _, name := range Phases {
		p.phaseIndex(name)
	}
	return p
}

// phaseIndex returns the slot for name, registering it on first use.
func (p *PerfCollector) phaseIndex(name string) int {
	if i, ok := p.index[name]; ok {
		return i
	}
	i := len(p.names)
	p.names = append(p.names, name)
	p.index[name] = i
	p.cur = append(p.cur, 0)
	return i
}

// StartFrame begins timing a frame and discards any unfinished one.
func (p *PerfCollector) StartFrame() {
	p.frameStart = p.now()
	p.open = -1
	clear(p.cur)
}

// StartPhase closes the running phase and opens the named one. It satisfies
// pipeline.PhaseTimer.
func (p *PerfCollector) StartPhase(phase string) {
	now := p.now()
	p.closePhase(now)
	p.open = p.phaseIndex(phase)
	p.markStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.open >= 0 {
		p.cur[p.open] += now.Sub(p.markStart)
		p.open = -1
	}
}

// EndFrame closes the running phase and stores the frame in the ring.
func (p *PerfCollector) EndFrame() {
	now := p.now()
	p.closePhase(now)

	s := &p.ring[p.next]
	s.total = now.Sub(p.frameStart)
	s.phases = append(s.phases[:0], p.cur...)

	p.next = (p.next + 1) % p.window
	p.filled = min(p.filled+1, p.window)
}

// RecordFrame marks a presented frame; the gap to the previous mark gives
// the display rate.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastPresent.IsZero() {
		p.interval = now.Sub(p.lastPresent)
	}
	p.lastPresent = now
}

// PerfStats summarizes the frames in the window.
type PerfStats struct {
	// Whole frame, from StartFrame to EndFrame
	AvgFrame time.Duration
	MinFrame time.Duration
	MaxFrame time.Duration
	P95Frame time.Duration

	PhaseAvg map[string]time.Duration
	PhaseP95 map[string]time.Duration
	PhasePct map[string]float64 // share of AvgFrame

	// Frames per second the work alone would allow
	FramesPerSecond float64

	// Display timing between RecordFrame marks
	PresentInterval time.Duration
	FPS             float64
}

// Stats aggregates the window. It is safe to call before any frame ends.
func (p *PerfCollector) Stats() PerfStats {
	st := PerfStats{
		PhaseAvg:        make(map[string]time.Duration, len(p.names)),
		PhaseP95:        make(map[string]time.Duration, len(p.names)),
		PhasePct:        make(map[string]float64, len(p.names)),
		PresentInterval: p.interval,
	}
	if p.interval > 0 {
		st.FPS = float64(time.Second) / float64(p.interval)
	}
	if p.filled == 0 {
		return st
	}

	n := p.filled
	values := make([]float64, n)
	var sum time.Duration
	for i, s := range p.ring[:n] {
		values[i] = float64(s.total)
		sum += s.total
		if i == 0 || s.total < st.MinFrame {
			st.MinFrame = s.total
		}
		st.MaxFrame = max(st.MaxFrame, s.total)
	}
	st.AvgFrame = sum / time.Duration(n)
	st.P95Frame = p95(values)
	if st.AvgFrame > 0 {
		st.FramesPerSecond = float64(time.Second) / float64(st.AvgFrame)
	}

	for k, name := range p.names {
		var total time.Duration
		seen := false
		for i, s := range p.ring[:n] {
			var d time.Duration
			if k < len(s.phases) {
				d = s.phases[k]
			}
			values[i] = float64(d)
			total += d
			seen = seen || d > 0
		}
		if !seen {
			continue
		}
		avg := total / time.Duration(n)
		st.PhaseAvg[name] = avg
		st.PhaseP95[name] = p95(values)
		if st.AvgFrame > 0 {
			st.PhasePct[name] = float64(avg) / float64(st.AvgFrame) * 100
		}
	}
	return st
}

// p95 sorts values in place and returns their empirical 95th percentile.
func p95(values []float64) time.Duration {
	slices.Sort(values)
	return time.Duration(stat.Quantile(0.95, stat.Empirical, values, nil))
}

// LogStats logs the window at info level.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrame.Microseconds(),
		"p95_frame_us", s.P95Frame.Microseconds(),
		"max_frame_us", s.MaxFrame.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}
	for _, phase := range Phases {
		if pct := s.PhasePct[phase]; pct > 0.1 {
			attrs = append(attrs, phase+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrame.Microseconds()),
		slog.Int64("min_frame_us", s.MinFrame.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrame.Microseconds()),
		slog.Int64("p95_frame_us", s.P95Frame.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if avg, ok := s.PhaseAvg[phase]; ok {
			attrs = append(attrs, slog.Group(phase,
				slog.Int64("avg_us", avg.Microseconds()),
				slog.Int64("p95_us", s.PhaseP95[phase].Microseconds()),
				slog.Float64("pct", s.PhasePct[phase]),
			))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	WindowEnd              uint64  `csv:"window_end"`
	AvgFrameUS             int64   `csv:"avg_frame_us"`
	MinFrameUS             int64   `csv:"min_frame_us"`
	MaxFrameUS             int64   `csv:"max_frame_us"`
	P95FrameUS             int64   `csv:"p95_frame_us"`
	FramesPerSec           float64 `csv:"frames_per_sec"`
	FPS                    float64 `csv:"fps"`
	EventsPct              float64 `csv:"events_pct"`
	GetWindPct             float64 `csv:"get_wind_pct"`
	UpdateSpeedPct         float64 `csv:"update_speed_pct"`
	UpdatePositionPct      float64 `csv:"update_position_pct"`
	PostProcessPositionPct float64 `csv:"post_process_position_pct"`
	PostProcessSpeedPct    float64 `csv:"post_process_speed_pct"`
	SegmentsPct            float64 `csv:"segments_pct"`
	TrailsPct              float64 `csv:"trails_pct"`
	ScreenPct              float64 `csv:"screen_pct"`
	PresentPct             float64 `csv:"present_pct"`
}

// ToCSV flattens the stats for the window ending at windowEnd.
func (s PerfStats) ToCSV(windowEnd uint64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:              windowEnd,
		AvgFrameUS:             s.AvgFrame.Microseconds(),
		MinFrameUS:             s.MinFrame.Microseconds(),
		MaxFrameUS:             s.MaxFrame.Microseconds(),
		P95FrameUS:             s.P95Frame.Microseconds(),
		FramesPerSec:           s.FramesPerSecond,
		FPS:                    s.FPS,
		EventsPct:              s.PhasePct[PhaseEvents],
		GetWindPct:             s.PhasePct[PhaseGetWind],
		UpdateSpeedPct:         s.PhasePct[PhaseUpdateSpeed],
		UpdatePositionPct:      s.PhasePct[PhaseUpdatePosition],
		PostProcessPositionPct: s.PhasePct[PhasePostProcessPosition],
		PostProcessSpeedPct:    s.PhasePct[PhasePostProcessSpeed],
		SegmentsPct:            s.PhasePct[PhaseSegments],
		TrailsPct:              s.PhasePct[PhaseTrails],
		ScreenPct:              s.PhasePct[PhaseScreen],
		PresentPct:             s.PhasePct[PhasePresent],
	}
}
