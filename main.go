package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Int("stats-window", 0, "Stats window size in frames (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config, then time-based)")
	maxFrames := flag.Int64("max-frames", 0, "Stop after N frames (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With("run_id", runID)
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = cfg.Agents.Seed
	}
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	logHost()

	opts := game.Options{
		RunID:       runID,
		Seed:        rngSeed,
		LogStats:    *logStats,
		StatsWindow: *statsWindow,
		OutputDir:   *outputDir,
		Headless:    *headless,
	}

	if *headless {
		os.Exit(runHeadless(cfg, opts, *maxFrames))
	}
	os.Exit(runGraphical(cfg, opts, *maxFrames))
}

// runHeadless runs the CPU pipeline without raylib until max frames or SIGINT/SIGTERM.
func runHeadless(cfg *config.Config, opts game.Options, maxFrames int64) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_frames", maxFrames,
		"output_dir", opts.OutputDir,
	)

	if err := g.RunHeadless(ctx, maxFrames); err != nil {
		slog.Error("headless run failed", "error", err, "frame", g.Frames())
		return 1
	}
	return 0
}

// runGraphical opens the window and runs the interactive loop until ESC or close.
func runGraphical(cfg *config.Config, opts game.Options, maxFrames int64) int {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Voxel Boids")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		return 1
	}
	defer g.Unload()

	ctx := context.Background()
	for !rl.WindowShouldClose() {
		if err := g.Update(ctx); err != nil {
			slog.Error("frame failed", "error", err, "frame", g.Frames())
			return 1
		}
		g.Draw()

		if maxFrames > 0 && g.Frames() >= maxFrames {
			slog.Info("max frames reached", "frame", g.Frames())
			break
		}
	}
	return 0
}

// logHost records the machine the run executes on.
func logHost() {
	attrs := []any{"go", runtime.Version(), "cpus", runtime.NumCPU()}
	if info, err := host.Info(); err == nil {
		attrs = append(attrs, "os", info.OS, "platform", info.Platform, "kernel", info.KernelVersion)
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		attrs = append(attrs, "mem_total_mib", vm.Total>>20, "mem_available_mib", vm.Available>>20)
	}
	slog.Info("host", attrs...)
}
