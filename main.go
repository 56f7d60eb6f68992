package main

import (
	"flag"
	"log/slog"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/sph/config"
	"github.com/pthm-cable/sph/simulation"
	"github.com/pthm-cable/sph/telemetry"
	"github.com/pthm-cable/sph/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	windowSteps := flag.Int("window-steps", 0, "Stats window size in steps (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	maxSteps := flag.Int("max-steps", 0, "Stop after N steps (0 = unlimited)")
	neighborSearch := flag.String("neighbor-search", "", "Override neighbor search: grid | brute")
	workers := flag.Int("workers", -1, "Override worker count (0 = GOMAXPROCS, -1 = use config)")
	checkpointDir := flag.String("checkpoint-dir", "", "Directory for checkpoints saved on bookmarks and at exit")
	restorePath := flag.String("restore", "", "Resume from a checkpoint file (its config replaces -config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg().Clone()

	if *windowSteps > 0 {
		cfg.Telemetry.WindowSteps = *windowSteps
	}
	if *neighborSearch != "" {
		cfg.Physics.NeighborSearch = *neighborSearch
	}
	if *workers >= 0 {
		cfg.Physics.Workers = *workers
	}

	opts := simulation.Options{
		LogStats:      *logStats,
		OutputDir:     *outputDir,
		RecordFrames:  !*headless,
		CheckpointDir: *checkpointDir,
	}

	sim, err := simulation.Open(cfg, opts, *restorePath)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer sim.Close()
	defer saveCheckpoint(sim, *checkpointDir)

	if *headless {
		runHeadless(sim, *maxSteps)
		return
	}

	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "SPH")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	v := viewer.New(sim)
	for !rl.WindowShouldClose() {
		v.Update()
		v.Draw()

		if *maxSteps > 0 && sim.Steps() >= *maxSteps {
			break
		}
	}
}

// runHeadless steps the simulation with the configured dt until maxSteps or
// a fatal error.
func runHeadless(sim *simulation.Simulation, maxSteps int) {
	dt := sim.Config().Physics.DT
	slog.Info("starting headless simulation",
		"dt", dt,
		"max_steps", maxSteps,
	)

	for maxSteps <= 0 || sim.Steps() < maxSteps {
		if err := sim.Step(dt); err != nil {
			slog.Error("simulation stopped", "step", sim.Steps(), "error", err)
			return
		}
	}
	slog.Info("max steps reached", "step", sim.Steps(), "time", sim.Time())
}

// saveCheckpoint writes the final state to dir, if set.
func saveCheckpoint(sim *simulation.Simulation, dir string) {
	if dir == "" {
		return
	}
	path, err := telemetry.SaveCheckpoint(sim.Checkpoint(), dir)
	if err != nil {
		slog.Error("failed to save checkpoint", "error", err)
		return
	}
	slog.Info("checkpoint saved", "path", path, "step", sim.Steps())
}
