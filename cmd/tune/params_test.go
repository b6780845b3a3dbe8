package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/telemetry"
)

func TestParamVectorRoundTrip(t *testing.T) {
	pv := NewParamVector()
	def := pv.DefaultVector()
	require.Len(t, def, pv.Dim())

	back := pv.Denormalize(pv.Normalize(def))
	assert.InDeltaSlice(t, def, back, 1e-9)

	// defaults match the embedded config
	assert.InDeltaSlice(t, def, pv.ExtractFromConfig(config.Defaults()), 1e-9)
}

func TestApplyToConfigClamps(t *testing.T) {
	pv := NewParamVector()
	cfg := config.Defaults()

	pv.ApplyToConfig(cfg, []float64{5, -1, 0.5, 0.5, 1, 12.4})
	assert.Equal(t, 2.0, cfg.Flocking.AlignmentWeight)
	assert.Equal(t, 0.0, cfg.Flocking.AvoidanceWeight)
	assert.Equal(t, 12, cfg.Flocking.SenseDistance)
	assert.NoError(t, cfg.Validate())
}

func TestComputeFitnessPrefersOrderedCompactFlock(t *testing.T) {
	cfg := config.Defaults()
	fe := NewFitnessEvaluator(NewParamVector(), 0, nil, cfg, 10)
	scale := float64(cfg.World.Width)

	windows := func(alignment, spread float64) []telemetry.WindowStats {
		w := make([]telemetry.WindowStats, warmupWindows+3)
		for i := range w {
			w[i] = telemetry.WindowStats{Alignment: alignment, Spread: spread * scale}
		}
		return w
	}

	ordered := fe.computeFitness(windows(0.9, targetSpread))
	disordered := fe.computeFitness(windows(0.1, targetSpread))
	sprawling := fe.computeFitness(windows(0.9, 0.5))

	assert.InDelta(t, 0.9, ordered.alignment, 1e-9)
	assert.Less(t, ordered.fitness, disordered.fitness)
	assert.Less(t, ordered.fitness, sprawling.fitness)

	empty := fe.computeFitness(nil)
	assert.True(t, empty.fitness > 1e300, "no windows scores +Inf")
}
