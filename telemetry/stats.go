package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	WindowStartFrame uint64 `csv:"-"`
	WindowEndFrame   uint64 `csv:"window_end"`
	Frames           int    `csv:"frames"`
	State            string `csv:"state"`

	// Particle counts at window end
	Particles  int `csv:"particles"`
	Continuous int `csv:"continuous"`

	// Events summed over the window
	Reseeds      int `csv:"reseeds"`
	VoidSamples  int `csv:"void_samples"`
	NonFinite    int `csv:"non_finite"`
	HiddenFrames int `csv:"hidden_frames"`

	// Speed distribution of continuous particles (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Effective options and view
	MaxParticles int     `csv:"max_particles"`
	LineWidth    float64 `csv:"line_width"`
	FadeOpacity  float64 `csv:"fade_opacity"`
	SpeedFactor  float64 `csv:"speed_factor"`
	LonMin       float64 `csv:"lon_min"`
	LonMax       float64 `csv:"lon_max"`
	LatMin       float64 `csv:"lat_min"`
	LatMax       float64 `csv:"lat_max"`
	PixelSize    float64 `csv:"pixel_size"`

	// Cumulative fault counts
	FaultDataUnavailable      uint64 `csv:"fault_data_unavailable"`
	FaultNumericDegeneracy    uint64 `csv:"fault_numeric_degeneracy"`
	FaultResourceExhaustion   uint64 `csv:"fault_resource_exhaustion"`
	FaultConfigurationInvalid uint64 `csv:"fault_configuration_invalid"`
}

// SpeedStats summarizes particle speeds. values is reordered.
func SpeedStats(values []float64) (mean, std, p10, p50, p90, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0, 0
	}
	sort.Float64s(values)
	mean, std = stat.PopMeanStdDev(values, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, values, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, values, nil)
	max = floats.Max(values)
	return mean, std, p10, p50, p90, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("window_start", s.WindowStartFrame),
		slog.Uint64("window_end", s.WindowEndFrame),
		slog.String("state", s.State),
		slog.Int("particles", s.Particles),
		slog.Int("continuous", s.Continuous),
		slog.Int("reseeds", s.Reseeds),
		slog.Int("void_samples", s.VoidSamples),
		slog.Int("non_finite", s.NonFinite),
		slog.Int("hidden_frames", s.HiddenFrames),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Int("max_particles", s.MaxParticles),
		slog.Float64("line_width", s.LineWidth),
		slog.Float64("fade_opacity", s.FadeOpacity),
		slog.Float64("speed_factor", s.SpeedFactor),
		slog.Float64("pixel_size", s.PixelSize),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"state", s.State,
		"particles", s.Particles,
		"continuous", s.Continuous,
		"reseeds", s.Reseeds,
		"void", s.VoidSamples,
		"non_finite", s.NonFinite,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"faults_resize", s.FaultResourceExhaustion,
		"faults_config", s.FaultConfigurationInvalid,
	)
}
