// Package game wires the pipeline, camera, compositor, control panel, and
// telemetry into the graphical and headless frame loops.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/voxelboids/camera"
	"github.com/pthm-cable/voxelboids/compositor"
	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/pipeline"
	"github.com/pthm-cable/voxelboids/telemetry"
	"github.com/pthm-cable/voxelboids/ui"
)

// Options configures a Game.
type Options struct {
	RunID       string
	Seed        int64
	LogStats    bool
	StatsWindow int // frames per stats window, 0 = use config
	OutputDir   string
	Headless    bool

	// StatsCallback receives every flushed window. Headless runs call it
	// from the telemetry writer goroutine.
	StatsCallback func(telemetry.WindowStats)
}

// Game owns one simulation run.
type Game struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	camera   *camera.Orbit

	// Graphics (nil when headless)
	compositor *compositor.Compositor
	panel      *ui.ControlPanel
	hud        *ui.HUD
	perfPanel  *ui.PerfPanel
	showPerf   bool

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	collector        *telemetry.Collector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsCallback    func(telemetry.WindowStats)

	// State
	paused       bool
	headless     bool
	runID        string
	rngSeed      int64
	frameElapsed time.Duration // fixed step used headless

	screenWidth, screenHeight float32
}

// NewGameWithOptions allocates all simulation storage, seeds the agents, and
// builds the pipeline. In graphical mode the raylib window must already exist.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	res, err := pipeline.NewResources(cfg)
	if err != nil {
		return nil, fmt.Errorf("allocating resources: %w", err)
	}
	res.Agents.Seed(rand.New(rand.NewSource(opts.Seed)), cfg.Derived.WorldW32, cfg.Derived.WorldH32, cfg.Derived.WorldD32)
	res.Agents.SetActive(cfg.Agents.Active)

	p, err := pipeline.New(res, cfg)
	if err != nil {
		return nil, fmt.Errorf("building pipeline: %w", err)
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindow > 0 {
		statsWindow = opts.StatsWindow
	}

	g := &Game{
		cfg:              cfg,
		pipeline:         p,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		collector:        telemetry.NewCollector(opts.RunID, statsWindow, cfg.Derived.WorldW32, cfg.Derived.WorldH32, cfg.Derived.WorldD32),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		statsCallback:    opts.StatsCallback,
		headless:         opts.Headless,
		runID:            opts.RunID,
		rngSeed:          opts.Seed,
		screenWidth:      float32(cfg.Screen.Width),
		screenHeight:     float32(cfg.Screen.Height),
	}
	p.SetPerf(g.perfCollector)

	fps := max(cfg.Screen.TargetFPS, 1)
	g.frameElapsed = time.Second / time.Duration(fps)

	v := cfg.View
	g.camera = camera.NewOrbit(g.screenWidth, g.screenHeight,
		float32(v.FovDeg), float32(v.Near), float32(v.Far),
		float32(v.Azimuth), float32(v.Polar), float32(v.Radius))

	g.outputManager, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		p.Close()
		return nil, err
	}
	if err := g.outputManager.WriteConfig(cfg); err != nil {
		g.Unload()
		return nil, err
	}

	if !opts.Headless {
		g.compositor, err = compositor.New(cfg.Screen.Width, cfg.Screen.Height, v.RayScale)
		if err != nil {
			g.Unload()
			return nil, err
		}
		g.compositor.Init()
		g.panel = ui.NewControlPanel(10, 10, 260)
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(10, 0)
	}

	slog.Info("game initialized",
		"run_id", g.runID,
		"seed", g.rngSeed,
		"active", res.Agents.Active(),
		"capacity", res.Agents.Cap(),
		"headless", g.headless,
		"stats_window", statsWindow,
	)
	return g, nil
}

// frameInput builds the host notification for the next frame.
func (g *Game) frameInput(elapsed time.Duration) pipeline.FrameInput {
	return pipeline.FrameInput{
		Elapsed:      elapsed,
		Paused:       g.paused,
		RayTrace:     g.cfg.View.RayTrace,
		TargetActive: g.cfg.Agents.Active,
		View:         g.camera.View(),
		Proj:         g.camera.Projection(),
	}
}

// Update handles input and runs one frame (graphical mode).
func (g *Game) Update(ctx context.Context) error {
	g.handleInput()

	elapsed := time.Duration(float64(rl.GetFrameTime()) * float64(time.Second))
	if err := g.pipeline.Frame(ctx, g.frameInput(elapsed)); err != nil {
		return err
	}
	g.collector.RecordFrame(g.paused)
	g.flushTelemetry()
	return nil
}

// SetPaused freezes or resumes the simulation passes.
func (g *Game) SetPaused(paused bool) { g.paused = paused }

// Paused reports whether the simulation passes are skipped.
func (g *Game) Paused() bool { return g.paused }

// Frames returns the number of completed frames.
func (g *Game) Frames() int64 {
	return g.pipeline.Frames()
}

// Pipeline exposes the underlying pipeline.
func (g *Game) Pipeline() *pipeline.Pipeline { return g.pipeline }

// Unload frees resources.
func (g *Game) Unload() {
	if g.compositor != nil {
		g.compositor.Unload()
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.pipeline.Close()
}
