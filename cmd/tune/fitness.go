package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/game"
	"github.com/pthm-cable/voxelboids/telemetry"
)

// Fitness weights. A good flock is ordered (high alignment) and compact
// (spread near targetSpread of the largest world axis).
const (
	targetSpread  = 0.2
	spreadWeight  = 2.0
	warmupWindows = 2 // windows ignored while the flock forms
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxFrames   int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow int

	mu          sync.Mutex
	lastQuality float64 // mean alignment from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxFrames int64, seeds []int64, baseCfg *config.Config, statsWindow int) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxFrames:   maxFrames,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: statsWindow,
	}
}

// LastQuality returns the mean alignment from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness   float64
	alignment float64
}

// Evaluate computes fitness for a parameter vector (lower = better).
// A failed run scores +Inf so the optimizer steers away from it.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]seedResult, len(fe.seeds))

	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			windows, err := fe.runSimulation(x, seed)
			if err != nil {
				return err
			}
			results[i] = fe.computeFitness(windows)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return math.Inf(1)
	}

	var totalFitness, totalAlignment float64
	for _, r := range results {
		totalFitness += r.fitness
		totalAlignment += r.alignment
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastQuality = totalAlignment / n
	fe.mu.Unlock()

	return totalFitness / n
}

// copyConfig returns an independent copy of the base config.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// runSimulation executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) ([]telemetry.WindowStats, error) {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	var windows []telemetry.WindowStats
	g, err := game.NewGameWithOptions(cfg, game.Options{
		Seed:        seed,
		Headless:    true,
		StatsWindow: fe.statsWindow,
		StatsCallback: func(s telemetry.WindowStats) {
			windows = append(windows, s)
		},
	})
	if err != nil {
		return nil, err
	}
	defer g.Unload()

	if err := g.RunHeadless(context.Background(), fe.maxFrames); err != nil {
		return nil, err
	}
	return windows, nil
}

// computeFitness scores the windows after warm-up.
func (fe *FitnessEvaluator) computeFitness(windows []telemetry.WindowStats) seedResult {
	if len(windows) > warmupWindows {
		windows = windows[warmupWindows:]
	}
	if len(windows) == 0 {
		return seedResult{fitness: math.Inf(1)}
	}

	w := fe.baseConfig.World
	scale := float64(max(w.Width, w.Height, w.Depth))

	var alignment, penalty float64
	for _, s := range windows {
		alignment += s.Alignment
		penalty += math.Abs(s.Spread/scale - targetSpread)
	}
	n := float64(len(windows))
	alignment /= n
	penalty /= n

	return seedResult{
		fitness:   -alignment + spreadWeight*penalty,
		alignment: alignment,
	}
}
