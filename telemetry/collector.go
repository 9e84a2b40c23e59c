package telemetry

import (
	"github.com/pthm-cable/windglobe/particles"
	"github.com/pthm-cable/windglobe/pipeline"
	"github.com/pthm-cable/windglobe/viewer"
)

// Source is the orchestrator state a flush reads.
type Source interface {
	State() pipeline.State
	Particles() *particles.State
	Options() pipeline.Options
	Viewer() viewer.Parameters
	Faults() pipeline.FaultCounts
}

// Collector accumulates frame reports within windows and produces WindowStats.
type Collector struct {
	windowFrames uint64

	windowStart uint64
	frames      int

	// Event counters for current window
	reseeds      int
	voidSamples  int
	nonFinite    int
	hiddenFrames int

	speeds []float64
}

// NewCollector creates a collector that flushes every windowFrames frames.
func NewCollector(windowFrames int) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{windowFrames: uint64(windowFrames)}
}

// Record adds one frame's report to the current window.
func (c *Collector) Record(r pipeline.Report) {
	c.frames++
	c.reseeds += r.Census.Reseeded
	c.voidSamples += r.Census.Void
	c.nonFinite += r.Census.NonFinite
	if !r.Shown {
		c.hiddenFrames++
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame uint64) bool {
	return frame-c.windowStart >= c.windowFrames
}

// Flush produces a WindowStats from the counters and the source's current
// state, then resets counters for the next window.
func (c *Collector) Flush(frame uint64, src Source) WindowStats {
	stats := WindowStats{
		WindowStartFrame: c.windowStart,
		WindowEndFrame:   frame,
		Frames:           c.frames,
		State:            src.State().String(),
		Reseeds:          c.reseeds,
		VoidSamples:      c.voidSamples,
		NonFinite:        c.nonFinite,
		HiddenFrames:     c.hiddenFrames,
	}

	if st := src.Particles(); st != nil {
		front := st.Front()
		stats.Particles = front.Len()
		c.speeds = c.speeds[:0]
		for i, f := range front.Flags {
			if f&particles.FlagContinuous != 0 {
				c.speeds = append(c.speeds, float64(front.Speed[i]))
			}
		}
		stats.Continuous = len(c.speeds)
		stats.SpeedMean, stats.SpeedStd, stats.SpeedP10, stats.SpeedP50, stats.SpeedP90, stats.SpeedMax = SpeedStats(c.speeds)
	}

	opts := src.Options()
	stats.MaxParticles = opts.MaxParticles
	stats.LineWidth = opts.LineWidth
	stats.FadeOpacity = opts.FadeOpacity
	stats.SpeedFactor = opts.SpeedFactor

	view := src.Viewer()
	stats.LonMin, stats.LonMax = view.LonRange[0], view.LonRange[1]
	stats.LatMin, stats.LatMax = view.LatRange[0], view.LatRange[1]
	stats.PixelSize = view.PixelSize

	faults := src.Faults()
	stats.FaultDataUnavailable = faults[pipeline.FaultDataUnavailable]
	stats.FaultNumericDegeneracy = faults[pipeline.FaultNumericDegeneracy]
	stats.FaultResourceExhaustion = faults[pipeline.FaultResourceExhaustion]
	stats.FaultConfigurationInvalid = faults[pipeline.FaultConfigurationInvalid]

	// Reset for next window
	c.windowStart = frame
	c.frames = 0
	c.reseeds = 0
	c.voidSamples = 0
	c.nonFinite = 0
	c.hiddenFrames = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int {
	return int(c.windowFrames)
}
