package pipeline

import (
	"log/slog"
	"math"

	"github.com/pthm-cable/windglobe/adaptive"
)

// Options is the user-input snapshot: panel values plus the adaptive outputs
// they override.
type Options struct {
	MaxParticles   int     `json:"max_particles"`
	LineWidth      float64 `json:"line_width"`
	FadeOpacity    float64 `json:"fade_opacity"`
	SpeedFactor    float64 `json:"speed_factor"`
	ParticleHeight float64 `json:"particle_height"`
	DropRate       float64 `json:"drop_rate"`
	DropRateBump   float64 `json:"drop_rate_bump"`
	GlobeLayer     string  `json:"globe_layer"`
	DataSource     string  `json:"data_source"`
}

// Limits of each tunable. Values outside are clamped, never rejected.
const (
	MinLineWidth      = 0.1
	MaxLineWidth      = 64.0
	MinFadeOpacity    = 0.01
	MaxFadeOpacity    = 0.999
	MaxSpeedFactor    = 20.0
	MaxParticleHeight = 1e6
	MaxDropRate       = 0.1
	MaxDropRateBump   = 0.2
)

// Clamp returns the options with every tunable inside its limits and the number
// of fields that had to be changed.
func (o Options) Clamp() (Options, int) {
	fixed := 0
	clampInt := func(v *int, lo, hi int) {
		if *v < lo {
			*v, fixed = lo, fixed+1
		} else if *v > hi {
			*v, fixed = hi, fixed+1
		}
	}
	clampFloat := func(v *float64, lo, hi float64) {
		switch {
		case math.IsNaN(*v) || *v < lo:
			*v, fixed = lo, fixed+1
		case *v > hi:
			*v, fixed = hi, fixed+1
		}
	}

	clampInt(&o.MaxParticles, 1, adaptive.ParticleCap)
	clampFloat(&o.LineWidth, MinLineWidth, MaxLineWidth)
	clampFloat(&o.FadeOpacity, MinFadeOpacity, MaxFadeOpacity)
	clampFloat(&o.SpeedFactor, 0, MaxSpeedFactor)
	clampFloat(&o.ParticleHeight, 0, MaxParticleHeight)
	clampFloat(&o.DropRate, 0, MaxDropRate)
	clampFloat(&o.DropRateBump, 0, MaxDropRateBump)
	return o, fixed
}

// withTuning replaces the four adaptive values.
func (o Options) withTuning(t adaptive.Tuning) Options {
	o.MaxParticles = t.MaxParticles
	o.LineWidth = t.LineWidth
	o.FadeOpacity = t.FadeOpacity
	o.SpeedFactor = t.SpeedFactor
	return o
}

// LogValue implements slog.LogValuer.
func (o Options) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_particles", o.MaxParticles),
		slog.Float64("line_width", o.LineWidth),
		slog.Float64("fade_opacity", o.FadeOpacity),
		slog.Float64("speed_factor", o.SpeedFactor),
		slog.Float64("particle_height", o.ParticleHeight),
		slog.String("globe_layer", o.GlobeLayer),
		slog.String("data_source", o.DataSource),
	)
}
