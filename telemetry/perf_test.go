package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/windglobe/pipeline"
)

// stepClock is a manual clock for PerfCollector.
type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time          { return c.t }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCollector(window int) (*PerfCollector, *stepClock) {
	clk := &stepClock{t: time.Unix(1_700_000_000, 0)}
	pc := NewPerfCollector(window)
	pc.now = clk.now
	return pc, clk
}

// timeFrames runs n frames that spend the given durations in each phase.
func timeFrames(pc *PerfCollector, clk *stepClock, n int, phases []string, spent []time.Duration) {
	for range n {
		pc.StartFrame()
		for i, ph := range phases {
			pc.StartPhase(ph)
			clk.advance(spent[i])
		}
		pc.EndFrame()
	}
}

func TestPerfCollectorTracksStagePhases(t *testing.T) {
	pc, clk := newTestCollector(10)
	timeFrames(pc, clk, 5,
		[]string{PhaseGetWind, PhaseSegments},
		[]time.Duration{100 * time.Microsecond, 200 * time.Microsecond})

	st := pc.Stats()
	if st.AvgFrame != 300*time.Microsecond {
		t.Errorf("expected 300µs frames, got %v", st.AvgFrame)
	}
	want := map[string]time.Duration{
		PhaseGetWind:  100 * time.Microsecond,
		PhaseSegments: 200 * time.Microsecond,
	}
	for ph, d := range want {
		if st.PhaseAvg[ph] != d || st.PhaseP95[ph] != d {
			t.Errorf("phase %q: avg %v p95 %v, want %v", ph, st.PhaseAvg[ph], st.PhaseP95[ph], d)
		}
	}
	if _, ok := st.PhaseAvg[PhaseTrails]; ok {
		t.Error("untimed phase should be absent")
	}
}

func TestPerfCollectorWindowWraps(t *testing.T) {
	pc, clk := newTestCollector(5)
	for i := range 12 {
		timeFrames(pc, clk, 1, []string{PhaseGetWind}, []time.Duration{time.Duration(i+1) * time.Millisecond})
	}

	st := pc.Stats()
	if st.MinFrame != 8*time.Millisecond || st.MaxFrame != 12*time.Millisecond {
		t.Errorf("expected the last five frames (8ms..12ms), got min %v max %v", st.MinFrame, st.MaxFrame)
	}
	if st.AvgFrame != 10*time.Millisecond {
		t.Errorf("expected 10ms average, got %v", st.AvgFrame)
	}
	if st.FramesPerSecond != 100 {
		t.Errorf("expected 100 frames per second, got %v", st.FramesPerSecond)
	}
	if st.P95Frame != 12*time.Millisecond {
		t.Errorf("expected p95 on the slowest frame, got %v", st.P95Frame)
	}
}

func TestPerfCollectorPhaseShares(t *testing.T) {
	pc, clk := newTestCollector(10)
	timeFrames(pc, clk, 5,
		[]string{"fast", "slow"},
		[]time.Duration{time.Millisecond, 4 * time.Millisecond})

	st := pc.Stats()
	if st.PhasePct["fast"] != 20 || st.PhasePct["slow"] != 80 {
		t.Errorf("expected fast 20%% and slow 80%%, got %.1f%% and %.1f%%", st.PhasePct["fast"], st.PhasePct["slow"])
	}
}

func TestPerfCollectorUnfinishedFrameIsDiscarded(t *testing.T) {
	pc, clk := newTestCollector(10)
	pc.StartFrame()
	pc.StartPhase(PhaseScreen)
	clk.advance(50 * time.Millisecond)

	timeFrames(pc, clk, 1, []string{PhaseScreen}, []time.Duration{2 * time.Millisecond})

	st := pc.Stats()
	if st.AvgFrame != 2*time.Millisecond || st.PhaseAvg[PhaseScreen] != 2*time.Millisecond {
		t.Errorf("restarted frame leaked time: frame %v screen %v", st.AvgFrame, st.PhaseAvg[PhaseScreen])
	}
}

func TestPerfCollectorP95FollowsSlowFrames(t *testing.T) {
	pc, clk := newTestCollector(20)
	timeFrames(pc, clk, 18, []string{PhaseScreen}, []time.Duration{time.Millisecond})
	timeFrames(pc, clk, 2, []string{PhaseScreen}, []time.Duration{5 * time.Millisecond})

	st := pc.Stats()
	if st.P95Frame != 5*time.Millisecond {
		t.Errorf("p95 should land on the slow frames, got %v", st.P95Frame)
	}
	if st.AvgFrame != 1400*time.Microsecond {
		t.Errorf("expected 1.4ms average, got %v", st.AvgFrame)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	st := NewPerfCollector(0).Stats()
	if st.AvgFrame != 0 || st.P95Frame != 0 {
		t.Errorf("empty collector should report zero, got %+v", st)
	}
	if st.PhaseAvg == nil || st.PhaseP95 == nil || st.PhasePct == nil {
		t.Error("phase maps should be non-nil")
	}
}

func TestPerfCollectorPresentRate(t *testing.T) {
	pc, clk := newTestCollector(10)
	pc.RecordFrame()
	if st := pc.Stats(); st.FPS != 0 {
		t.Errorf("a single present mark should not report a rate, got %v", st.FPS)
	}
	clk.advance(16 * time.Millisecond)
	pc.RecordFrame()

	st := pc.Stats()
	if st.PresentInterval != 16*time.Millisecond {
		t.Errorf("expected a 16ms interval, got %v", st.PresentInterval)
	}
	if st.FPS != 62.5 {
		t.Errorf("expected 62.5 FPS, got %v", st.FPS)
	}
}

func TestPerfStatsToCSVMapsStages(t *testing.T) {
	st := PerfStats{
		AvgFrame: 2 * time.Millisecond,
		P95Frame: 3 * time.Millisecond,
		PhasePct: map[string]float64{
			PhaseGetWind:  10,
			PhaseSegments: 30,
			PhaseScreen:   5,
		},
	}

	row := st.ToCSV(42)
	if row.WindowEnd != 42 || row.AvgFrameUS != 2000 || row.P95FrameUS != 3000 {
		t.Errorf("unexpected header fields %+v", row)
	}
	if row.GetWindPct != 10 || row.SegmentsPct != 30 || row.ScreenPct != 5 {
		t.Errorf("stage percentages not mapped: %+v", row)
	}
	if row.TrailsPct != 0 {
		t.Errorf("untimed stage should be 0, got %v", row.TrailsPct)
	}
}

func TestPhasesCoverStageGraph(t *testing.T) {
	known := make(map[string]bool, len(Phases))
	for _, p := range Phases {
		known[p] = true
	}
	for _, n := range pipeline.Graph() {
		if !known[n.Stage.Name()] {
			t.Errorf("stage %q has no perf phase", n.Stage.Name())
		}
	}
}
