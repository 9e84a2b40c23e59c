// Command tune searches the particle lifecycle parameters with CMA-ES so
// trails turn over at a target rate in headless runs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/windglobe/config"
)

// evalRow is one line of tune_log.csv.
type evalRow struct {
	Eval         int     `csv:"eval"`
	Fitness      float64 `csv:"fitness"`
	Turnover     float64 `csv:"turnover"`
	Void         float64 `csv:"void"`
	NonFinite    float64 `csv:"non_finite"`
	DropRate     float64 `csv:"drop_rate"`
	DropRateBump float64 `csv:"drop_rate_bump"`
	SpeedFactor  float64 `csv:"speed_factor"`
	MaxAge       float64 `csv:"max_age"`
}

// tuner is the CMA-ES objective. It remembers the best point seen and logs
// every evaluation.
type tuner struct {
	params   *ParamVector
	eval     *FitnessEvaluator
	log      io.Writer
	maxEvals int

	evals   int
	best    float64
	bestX   []float64
	started time.Time
}

func (t *tuner) objective(unit []float64) float64 {
	raw := t.params.Clamp(t.params.Denormalize(unit))
	fitness := t.eval.Evaluate(raw)
	t.evals++
	if t.bestX == nil || fitness < t.best {
		t.best, t.bestX = fitness, raw
	}

	st := t.eval.LastStats()
	row := []evalRow{{
		Eval: t.evals, Fitness: fitness,
		Turnover: st.Turnover, Void: st.Void, NonFinite: st.NonFinite,
		DropRate: raw[0], DropRateBump: raw[1], SpeedFactor: raw[2], MaxAge: raw[3],
	}}
	write := gocsv.MarshalWithoutHeaders
	if t.evals == 1 {
		write = gocsv.Marshal
	}
	if err := write(row, t.log); err != nil {
		log.Printf("failed to log eval %d: %v", t.evals, err)
	}

	elapsed := time.Since(t.started)
	eta := time.Duration(t.maxEvals-t.evals) * (elapsed / time.Duration(t.evals))
	fmt.Printf("eval %d/%d turnover=%.4f void=%.3f fitness=%.4f best=%.4f elapsed=%s eta=%s\n",
		t.evals, t.maxEvals, st.Turnover, st.Void, fitness, t.best,
		elapsed.Round(time.Second), eta.Round(time.Second))
	return fitness
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = defaults)")
	frames := flag.Int("frames", 600, "Frames per headless run")
	seeds := flag.Int("seeds", 3, "Runs per evaluation, one per seed")
	maxEvals := flag.Int("max-evals", 100, "Evaluation budget")
	population := flag.Int("population", 0, "CMA-ES population (0 = 4 + 3n/2)")
	turnover := flag.Float64("turnover", 1.0/120, "Target fraction of particles reseeded per frame")
	outputDir := flag.String("output", "", "Directory for tune_log.csv and best_config.yaml")
	flag.Parse()

	switch {
	case *outputDir == "":
		log.Fatal("--output is required")
	case *turnover <= 0:
		log.Fatal("--turnover must be positive")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	base, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// Turnover does not depend on the viewport, so runs use a small one.
	base.Screen.Width, base.Screen.Height = 320, 180

	params := NewParamVector()
	runSeeds := make([]int64, *seeds)
	for i := range runSeeds {
		runSeeds[i] = int64(42 + 1000*i)
	}

	logFile, err := os.Create(filepath.Join(*outputDir, "tune_log.csv"))
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()

	t := &tuner{
		params:   params,
		eval:     NewFitnessEvaluator(params, *frames, runSeeds, base, *turnover),
		log:      logFile,
		maxEvals: *maxEvals,
		started:  time.Now(),
	}

	pop := *population
	if pop == 0 {
		pop = 4 + 3*params.Dim()/2
	}
	fmt.Printf("CMA-ES over %d parameters, population %d, budget %d evals, %d seeds x %d frames, target turnover %.4f\n",
		params.Dim(), pop, *maxEvals, *seeds, *frames, *turnover)

	result, err := optimize.Minimize(
		optimize.Problem{Func: t.objective},
		params.Normalize(params.DefaultVector()),
		&optimize.Settings{FuncEvaluations: *maxEvals},
		&optimize.CmaEsChol{InitStepSize: 0.3, Population: pop},
	)
	if err != nil {
		log.Printf("tuning ended: %v", err)
	}
	if t.bestX == nil && result != nil {
		t.bestX = params.Clamp(params.Denormalize(result.X))
	}
	if t.bestX == nil {
		log.Fatal("no evaluation completed")
	}

	fmt.Printf("\n%d evaluations in %s, best fitness %.4f\n", t.evals, time.Since(t.started).Round(time.Second), t.best)
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Path, t.bestX[i])
	}

	best, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to reload config: %v", err)
	}
	params.ApplyToConfig(best, t.bestX)
	out := filepath.Join(*outputDir, "best_config.yaml")
	if err := best.WriteYAML(out); err != nil {
		log.Fatalf("failed to write best config: %v", err)
	}
	fmt.Printf("best config written to %s\n", out)
}
