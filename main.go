package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/windglobe/app"
	"github.com/pthm-cable/windglobe/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without a window")
	frames := flag.Int("frames", 0, "Stop after N frames (0 = unlimited, headless requires > 0)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config copy")
	restore := flag.String("restore", "", "Snapshot file to restore at startup")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	pngPath := flag.String("png", "", "Headless only: write the last frame to this PNG file")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := app.Options{
		Seed:        rngSeed,
		LogStats:    *logStats,
		OutputDir:   *outputDir,
		SnapshotDir: *snapshotDir,
		RestorePath: *restore,
		Headless:    *headless,
		Logger:      logger,
	}

	if *headless {
		if *frames <= 0 {
			slog.Error("headless runs need -frames > 0")
			os.Exit(2)
		}
		os.Exit(runHeadless(cfg, opts, *frames, *pngPath))
	}

	// Graphical mode
	if cfg.Screen.Resizable {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Wind Globe")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	a, err := app.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer a.Unload()

	for !rl.WindowShouldClose() {
		a.Update()
		a.Draw()

		if *frames > 0 && int(a.Frame()) >= *frames {
			break
		}
	}
}

func runHeadless(cfg *config.Config, opts app.Options, frames int, pngPath string) int {
	a, err := app.New(cfg, opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer a.Unload()

	slog.Info("starting headless run",
		"seed", opts.Seed,
		"frames", frames,
		"source", a.Source(),
	)

	for int(a.Frame()) < frames {
		a.UpdateHeadless()
	}
	slog.Info("frame limit reached", "frame", a.Frame(), "state", a.State().String())

	if pngPath != "" {
		if err := a.WritePNG(pngPath); err != nil {
			slog.Error("failed to write png", "path", pngPath, "error", err)
			return 1
		}
		slog.Info("png written", "path", pngPath)
	}
	return 0
}
