// Package adaptive maps camera height to particle density and trail styling.
//
// Every function here is pure. Bands are exclusive on their lower threshold
// (h > t), so a height exactly on a threshold takes the lower band. Negative or
// NaN heights are treated as zero.
package adaptive

import (
	"log/slog"
	"math"
)

// ParticleCap bounds MaxParticles for very large heights.
const ParticleCap = 1 << 22

// Base holds the user-configured values the tuner scales from.
type Base struct {
	MaxParticles  int
	LineWidth     float64
	FadeOpacity   float64
	SpeedFactor   float64
	InitialHeight float64 // camera height the base particle count was chosen for
}

// Tuning is the tuner's output for one camera height.
type Tuning struct {
	MaxParticles int
	LineWidth    float64
	FadeOpacity  float64
	SpeedFactor  float64
	Height       float64
}

// LogValue implements slog.LogValuer.
func (t Tuning) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_particles", t.MaxParticles),
		slog.Float64("line_width", t.LineWidth),
		slog.Float64("fade_opacity", t.FadeOpacity),
		slog.Float64("speed_factor", t.SpeedFactor),
		slog.Float64("view_height_m", t.Height),
	)
}

type band struct {
	above float64
	value float64
}

// particleOffsets are added to k*h, highest band first.
var particleOffsets = []band{
	{20_000_000, 2000},
	{15_000_000, 5000},
	{10_000_000, 7000},
	{5_000_000, 9000},
	{1_000_000, 6000},
	{100_000, 3000},
	{10_000, 1000},
}

const particleFloor = 200

var lineWidths = []band{
	{4000, 3.0},
	{1000, 1.5},
}

var fadeOpacities = []band{
	{30_000, 0.98},
	{15_000, 0.96},
	{7000, 0.95},
	{3000, 0.94},
	{1000, 0.93},
}

// pick returns the value of the first band h lies above, or below when none match.
func pick(bands []band, h, below float64) float64 {
	for _, b := range bands {
		if h > b.above {
			return b.value
		}
	}
	return below
}

func sanitize(h float64) float64 {
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	return h
}

// MaxParticlesAt returns ceil(k*h + offset) with k = MaxParticles / InitialHeight.
func (b Base) MaxParticlesAt(h float64) int {
	h = sanitize(h)
	scaled := 0.0
	if b.InitialHeight > 0 {
		// base*h/init rather than (base/init)*h keeps exact products exact
		scaled = float64(b.MaxParticles) * h / b.InitialHeight
	}
	n := math.Ceil(scaled + pick(particleOffsets, h, particleFloor))
	if n > ParticleCap || math.IsInf(n, 1) {
		return ParticleCap
	}
	return int(n)
}

// LineWidthAt returns the trail line width for height h.
func (b Base) LineWidthAt(h float64) float64 {
	h = sanitize(h)
	if h > 7000 {
		return b.LineWidth
	}
	return pick(lineWidths, h, 0.5)
}

// FadeOpacityAt returns the per-frame trail fade for height h.
func (b Base) FadeOpacityAt(h float64) float64 {
	h = sanitize(h)
	if h > 60_000 {
		return b.FadeOpacity
	}
	return pick(fadeOpacities, h, 0.92)
}

// SpeedFactorAt returns the advection speed multiplier for height h.
func (b Base) SpeedFactorAt(h float64) float64 {
	h = sanitize(h)
	if h > 2000 {
		return b.SpeedFactor
	}
	if h > 1000 {
		return 3.0
	}
	return 2.0
}

// Tune evaluates all four outputs at height h.
func (b Base) Tune(h float64) Tuning {
	return Tuning{
		MaxParticles: b.MaxParticlesAt(h),
		LineWidth:    b.LineWidthAt(h),
		FadeOpacity:  b.FadeOpacityAt(h),
		SpeedFactor:  b.SpeedFactorAt(h),
		Height:       sanitize(h),
	}
}
