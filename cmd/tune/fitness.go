package main

import (
	"io"
	"log/slog"
	"sync"

	"github.com/pthm-cable/windglobe/app"
	"github.com/pthm-cable/windglobe/config"
	"github.com/pthm-cable/windglobe/pipeline"
)

// warmupFrames are skipped so the initial seeding does not count as turnover.
const warmupFrames = 30

// FitnessEvaluator runs headless visualizer sessions and scores how close the
// particle turnover gets to the target.
type FitnessEvaluator struct {
	params     *ParamVector
	frames     int
	seeds      []int64
	baseConfig *config.Config

	// Target fraction of particles reseeded per frame
	targetTurnover float64

	mu        sync.Mutex
	lastStats runStats // mean over seeds of the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, frames int, seeds []int64, baseCfg *config.Config, turnover float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:         params,
		frames:         frames,
		seeds:          seeds,
		baseConfig:     baseCfg,
		targetTurnover: turnover,
	}
}

// runStats summarizes one headless run after warmup.
type runStats struct {
	Turnover  float64 // reseeds per particle per frame
	Void      float64 // fraction of particles on void cells
	NonFinite float64 // fraction of particles with non-finite positions
	Running   float64 // fraction of frames in the running state
}

// LastStats returns the mean stats of the most recent evaluation.
func (fe *FitnessEvaluator) LastStats() runStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastStats
}

// Evaluate computes fitness for a parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]runStats, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.run(x, s)
		}(i, seed)
	}
	wg.Wait()

	var mean runStats
	var total float64
	for _, r := range results {
		total += fe.score(r)
		mean.Turnover += r.Turnover
		mean.Void += r.Void
		mean.NonFinite += r.NonFinite
		mean.Running += r.Running
	}
	n := float64(len(results))
	mean.Turnover /= n
	mean.Void /= n
	mean.NonFinite /= n
	mean.Running /= n

	fe.mu.Lock()
	fe.lastStats = mean
	fe.mu.Unlock()

	return total / n
}

// score is the squared relative turnover error plus penalties for particles
// that cannot draw a trail.
func (fe *FitnessEvaluator) score(r runStats) float64 {
	rel := (r.Turnover - fe.targetTurnover) / fe.targetTurnover
	return rel*rel + r.Void + 10*r.NonFinite + (1 - r.Running)
}

// run executes one headless session with the parameters applied.
func (fe *FitnessEvaluator) run(x []float64, seed int64) runStats {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	a, err := app.New(cfg, app.Options{
		Seed:     seed,
		Headless: true,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return runStats{NonFinite: 1}
	}
	defer a.Unload()

	var stats runStats
	var particles, frames float64
	for int(a.Frame()) < fe.frames {
		a.UpdateHeadless()
		if a.Frame() <= warmupFrames {
			continue
		}
		r := a.Report()
		frames++
		if r.State == pipeline.StateRunning {
			stats.Running++
		}
		if r.Census.Total == 0 {
			continue
		}
		particles += float64(r.Census.Total)
		stats.Turnover += float64(r.Census.Reseeded)
		stats.Void += float64(r.Census.Void)
		stats.NonFinite += float64(r.Census.NonFinite)
	}

	if frames > 0 {
		stats.Running /= frames
	}
	if particles > 0 {
		stats.Turnover /= particles
		stats.Void /= particles
		stats.NonFinite /= particles
	} else {
		stats.NonFinite = 1
	}
	return stats
}

// copyConfig returns a shallow copy of the base config. Slices are shared but
// only read.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}
