package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/windglobe/config"
)

func TestParamVectorNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(def))
	for i := range def {
		if math.Abs(back[i]-def[i]) > 1e-12 {
			t.Errorf("%s: %v -> %v", pv.Specs[i].Name, def[i], back[i])
		}
	}
}

func TestParamVectorApplyClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := &config.Config{}
	pv.ApplyToConfig(cfg, []float64{-1, 0.02, 10, 500.7})

	if cfg.Particles.DropRate != 0 {
		t.Errorf("drop rate not clamped to 0: %v", cfg.Particles.DropRate)
	}
	if cfg.Particles.DropRateBump != 0.02 {
		t.Errorf("drop rate bump %v", cfg.Particles.DropRateBump)
	}
	if cfg.Particles.SpeedFactor != 4 {
		t.Errorf("speed factor not clamped to 4: %v", cfg.Particles.SpeedFactor)
	}
	if cfg.Particles.MaxAge != 500 {
		t.Errorf("max age %v, want 500", cfg.Particles.MaxAge)
	}
}

func TestParamVectorDefaultsMatchConfig(t *testing.T) {
	def, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	pv := NewParamVector()
	cfg := &config.Config{}
	pv.ApplyToConfig(cfg, pv.DefaultVector())

	p := cfg.Particles
	want := def.Particles
	if p.DropRate != want.DropRate || p.DropRateBump != want.DropRateBump ||
		p.SpeedFactor != want.SpeedFactor || p.MaxAge != want.MaxAge {
		t.Errorf("tuner defaults %+v drift from config defaults %+v", p, want)
	}
}
