package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType names the condition a bookmark flags.
type BookmarkType string

const (
	BookmarkReseedStorm BookmarkType = "reseed_storm"
	BookmarkVoidRegion  BookmarkType = "void_region"
	BookmarkSpeedSpike  BookmarkType = "speed_spike"
	BookmarkResizeStorm BookmarkType = "resize_storm"
	BookmarkStableFlow  BookmarkType = "stable_flow"
)

// Bookmark marks a stats window worth a second look.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Frame       uint64       `csv:"frame" json:"frame"`
	Description string       `csv:"description" json:"description"`
}

func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "frame", b.Frame, "description", b.Description)
}

// Detection thresholds.
const (
	spikeFactor      = 2.0  // current over history mean
	minReseedRate    = 0.05 // per particle per frame
	voidFraction     = 0.5
	resizeStormCount = 3
	continuousShare  = 0.9
	stableCV         = 0.1
	stableSpan       = 4 // windows whose mean speed is compared
	stableWindows    = 5 // consecutive stable windows before the bookmark
)

// BookmarkDetector compares each closed window with the ones before it.
type BookmarkDetector struct {
	history []WindowStats // oldest first
	keep    int

	resizeFaults uint64
	stableRun    int
}

// NewBookmarkDetector keeps up to keep windows of history, at least five.
func NewBookmarkDetector(keep int) *BookmarkDetector {
	return &BookmarkDetector{keep: max(keep, stableWindows)}
}

// Check returns the bookmarks stats triggers and then adds it to the history.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	rules := []func(WindowStats) *Bookmark{
		bd.reseedStorm,
		bd.speedSpike,
		bd.voidRegion,
		bd.resizeStorm,
		bd.stableFlow,
	}
	var out []Bookmark
	for _, rule := range rules {
		if b := rule(stats); b != nil {
			out = append(out, *b)
		}
	}

	bd.history = append(bd.history, stats)
	if len(bd.history) > bd.keep {
		bd.history = bd.history[len(bd.history)-bd.keep:]
	}
	return out
}

// historyMean averages metric over the history once it holds three windows.
func (bd *BookmarkDetector) historyMean(metric func(WindowStats) float64) (float64, bool) {
	if len(bd.history) < 3 {
		return 0, false
	}
	xs := make([]float64, len(bd.history))
	for i, h := range bd.history {
		xs[i] = metric(h)
	}
	return stat.Mean(xs, nil), true
}

// reseedRate is reseeds per particle per frame.
func reseedRate(s WindowStats) float64 {
	if s.Frames == 0 || s.Particles == 0 {
		return 0
	}
	return float64(s.Reseeds) / float64(s.Frames*s.Particles)
}

func speedP90(s WindowStats) float64 { return s.SpeedP90 }

func (bd *BookmarkDetector) reseedStorm(s WindowStats) *Bookmark {
	avg, ok := bd.historyMean(reseedRate)
	cur := reseedRate(s)
	if !ok || avg == 0 || cur <= avg*spikeFactor || cur <= minReseedRate {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkReseedStorm,
		Frame:       s.WindowEndFrame,
		Description: fmt.Sprintf("Reseed rate %.3f per frame is %.1fx average (%.3f)", cur, cur/avg, avg),
	}
}

func (bd *BookmarkDetector) speedSpike(s WindowStats) *Bookmark {
	avg, ok := bd.historyMean(speedP90)
	if !ok || avg <= 0 || s.SpeedP90 <= avg*spikeFactor {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkSpeedSpike,
		Frame:       s.WindowEndFrame,
		Description: fmt.Sprintf("Speed p90 %.2f is %.1fx average (%.2f)", s.SpeedP90, s.SpeedP90/avg, avg),
	}
}

func (bd *BookmarkDetector) voidRegion(s WindowStats) *Bookmark {
	if s.Frames == 0 || s.Particles == 0 {
		return nil
	}
	frac := float64(s.VoidSamples) / float64(s.Frames*s.Particles)
	if frac <= voidFraction {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkVoidRegion,
		Frame:       s.WindowEndFrame,
		Description: fmt.Sprintf("%.0f%% of samples had no wind", frac*100),
	}
}

// resizeStorm watches the cumulative superseded-resize fault count.
func (bd *BookmarkDetector) resizeStorm(s WindowStats) *Bookmark {
	n := s.FaultResourceExhaustion - bd.resizeFaults
	bd.resizeFaults = s.FaultResourceExhaustion
	if n < resizeStormCount {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkResizeStorm,
		Frame:       s.WindowEndFrame,
		Description: fmt.Sprintf("%d resizes superseded in one window", n),
	}
}

// stableFlow fires once when nearly every particle has kept its trail and
// the mean speed has barely moved for stableWindows windows in a row.
func (bd *BookmarkDetector) stableFlow(s WindowStats) *Bookmark {
	if s.Particles == 0 || float64(s.Continuous) < continuousShare*float64(s.Particles) {
		bd.stableRun = 0
		return nil
	}
	if len(bd.history) < stableSpan {
		return nil
	}

	recent := bd.history[len(bd.history)-stableSpan:]
	means := make([]float64, len(recent))
	for i, h := range recent {
		means[i] = h.SpeedMean
	}
	mean, std := stat.PopMeanStdDev(means, nil)
	if mean > 0 && std/mean < stableCV {
		bd.stableRun++
	} else {
		bd.stableRun = 0
	}
	if bd.stableRun != stableWindows {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkStableFlow,
		Frame:       s.WindowEndFrame,
		Description: fmt.Sprintf("Stable flow at mean speed %.2f over %d+ windows", mean, stableWindows),
	}
}
