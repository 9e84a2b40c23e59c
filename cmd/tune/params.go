package main

import (
	"github.com/pthm-cable/windglobe/config"
)

// ParamSpec is one tunable config value and its search bounds.
type ParamSpec struct {
	Name     string
	Path     string // config key, for reports
	Min, Max float64
	Default  float64
	apply    func(*config.Config, float64)
}

// ParamVector is the ordered set of tuned values. Vectors passed to its
// methods are indexed like Specs.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the particle lifecycle parameters. Bounds stay inside
// the limits the options panel accepts.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{"drop_rate", "particles.drop_rate", 0, 0.05, 0.003,
			func(c *config.Config, v float64) { c.Particles.DropRate = v }},
		{"drop_rate_bump", "particles.drop_rate_bump", 0, 0.1, 0.01,
			func(c *config.Config, v float64) { c.Particles.DropRateBump = v }},
		{"speed_factor", "particles.speed_factor", 0.1, 4, 1,
			func(c *config.Config, v float64) { c.Particles.SpeedFactor = v }},
		{"max_age", "particles.max_age", 0, 2000, 900,
			func(c *config.Config, v float64) { c.Particles.MaxAge = uint32(v) }},
	}}
}

func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(nil, func(s ParamSpec, _ float64) float64 { return s.Default })
}

// Normalize maps raw values onto [0, 1] per bound.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return (v - s.Min) / (s.Max - s.Min) })
}

// Denormalize is the inverse of Normalize.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(unit, func(s ParamSpec, v float64) float64 { return s.Min + v*(s.Max-s.Min) })
}

// Clamp keeps every value within its bounds.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	return pv.each(raw, func(s ParamSpec, v float64) float64 { return min(max(v, s.Min), s.Max) })
}

// ApplyToConfig writes the clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) {
	for i, v := range pv.Clamp(raw) {
		pv.Specs[i].apply(cfg, v)
	}
}

// each maps f over the specs and the matching entries of in; a nil in
// passes zeros.
func (pv *ParamVector) each(in []float64, f func(ParamSpec, float64) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		var v float64
		if in != nil {
			v = in[i]
		}
		out[i] = f(s, v)
	}
	return out
}
