package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/config"
)

func findControl(t *testing.T, id string) ControlDescriptor {
	t.Helper()
	for _, d := range DefaultControls() {
		if d.ID == id {
			return d
		}
	}
	require.FailNow(t, "no control "+id)
	return ControlDescriptor{}
}

func TestDefaultControlRanges(t *testing.T) {
	tests := []struct {
		id       string
		min, max float32
	}{
		{"alignment", 0, 2},
		{"avoidance", 0, 2},
		{"cohesion", 0, 2},
		{"center", 0, 2},
		{"max_speed", 0, 5},
		{"max_force", 0, 5},
		{"sense_distance", 0, 64},
		{"velocity_update", 0, 1},
		{"sample_weight", 0.001, 1},
		{"dof_distribution", 0, 4},
		{"dof_distance", 0, 10},
		{"dof_depth", 0.01, 5},
		{"decay", 0, 1},
	}
	cfg := config.Defaults()
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			lo, hi := findControl(t, tt.id).bounds(cfg)
			assert.Equal(t, tt.min, lo)
			assert.Equal(t, tt.max, hi)
		})
	}

	lo, hi := findControl(t, "boids").bounds(cfg)
	assert.Equal(t, float32(1), lo)
	assert.Equal(t, float32(cfg.Agents.Capacity), hi)
}

func TestControlApply(t *testing.T) {
	cfg := config.Defaults()

	d := findControl(t, "cohesion")
	assert.True(t, d.apply(cfg, 1.5))
	assert.Equal(t, 1.5, cfg.Flocking.CohesionWeight)
	assert.False(t, d.apply(cfg, 1.5), "unchanged value reported as a change")
	d.apply(cfg, 9)
	assert.Equal(t, 2.0, cfg.Flocking.CohesionWeight, "clamped to the slider max")

	findControl(t, "sense_distance").apply(cfg, 12.6)
	assert.Equal(t, 13, cfg.Flocking.SenseDistance)

	findControl(t, "boids").apply(cfg, 0)
	assert.Equal(t, 1, cfg.Agents.Active)

	findControl(t, "ray_trace").apply(cfg, 1)
	assert.True(t, cfg.View.RayTrace)
	assert.NoError(t, cfg.Validate())
}

func TestSliderEditKeepsOutOfRangeConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Flocking.SenseDistance = 100
	cfg.View.DofDistance = 12

	// an untouched slider reports the clamped current value
	sense := findControl(t, "sense_distance")
	assert.False(t, sense.edit(cfg, 64))
	assert.Equal(t, 100, cfg.Flocking.SenseDistance)

	dof := findControl(t, "dof_distance")
	assert.False(t, dof.edit(cfg, 10))
	assert.Equal(t, 12.0, cfg.View.DofDistance)

	// dragging writes the new value
	assert.True(t, sense.edit(cfg, 20.2))
	assert.Equal(t, 20, cfg.Flocking.SenseDistance)

	// in-range values behave like apply
	assert.True(t, dof.edit(cfg, 1.5))
	assert.False(t, dof.edit(cfg, 1.5))
	assert.Equal(t, 1.5, cfg.View.DofDistance)
}

func TestDofHiddenInRayTrace(t *testing.T) {
	cfg := config.Defaults()
	p := NewControlPanel(0, 0, 200)

	full := p.Height(cfg)
	require.True(t, findControl(t, "dof_size").visible(cfg), "dof controls show in splat mode")

	cfg.View.RayTrace = true
	assert.False(t, findControl(t, "dof_size").visible(cfg), "dof controls hide in ray-trace mode")
	assert.Less(t, p.Height(cfg), full, "panel shrinks")
}

func TestPanelContains(t *testing.T) {
	cfg := config.Defaults()
	p := NewControlPanel(10, 10, 200)

	assert.False(t, p.IsVisible(), "panel starts hidden")
	assert.False(t, p.Contains(50, 50, cfg))

	assert.True(t, p.Toggle())
	assert.True(t, p.Contains(50, 50, cfg))
	assert.False(t, p.Contains(5, 50, cfg))
	assert.False(t, p.Contains(250, 50, cfg))
	assert.False(t, p.Contains(50, float32(10+p.Height(cfg)+1), cfg), "below the panel")

	p.SetVisible(false)
	assert.False(t, p.Contains(50, 50, cfg), "hidden panel does not capture the mouse")
}
