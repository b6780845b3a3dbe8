package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultsMatchOriginalTuning(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.World.Width)
	assert.Equal(t, 200, cfg.World.Depth)
	assert.Equal(t, 1000000, cfg.Agents.Capacity)
	assert.Equal(t, 1000, cfg.Agents.Active)
	assert.Equal(t, 0.25, cfg.Flocking.CenterAttraction)
	assert.Equal(t, 8, cfg.Flocking.SenseDistance)
	assert.Equal(t, 0.5, cfg.Flocking.VelocityUpdateStep)
	assert.Equal(t, 0.1, cfg.View.SampleWeight)
	assert.True(t, cfg.Derived.Direction)
	assert.Equal(t, float32(200), cfg.Derived.WorldH32)
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := writeFile(t, "flocking:\n  max_speed: 2.5\nworld:\n  width: 64\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, cfg.Flocking.MaxSpeed)
	assert.Equal(t, 64, cfg.World.Width)
	// untouched fields keep defaults
	assert.Equal(t, 200, cfg.World.Height)
	assert.Equal(t, 1.0, cfg.Flocking.MaxForce)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "flocking:\n  max_sped: 2.5\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestLoadRejectsBadEnum(t *testing.T) {
	path := writeFile(t, "field:\n  edge: mirror\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyFileUsesDefaults(t *testing.T) {
	path := writeFile(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.World.Width)
}

func TestValidateActiveExceedsCapacity(t *testing.T) {
	cfg := Defaults()
	cfg.Agents.Active = cfg.Agents.Capacity + 1

	err := cfg.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "agents.active", verr.Field)
}

func TestValidateKernelWiderThanWorld(t *testing.T) {
	cfg := Defaults()
	cfg.World.Depth = 2

	err := cfg.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "field.kernel_radius", verr.Field)
}

func TestFlockingValidateRejectsNegative(t *testing.T) {
	f := Defaults().Flocking
	f.CohesionWeight = -1
	assert.Error(t, f.Validate())
}

func TestEffectiveDecayFloor(t *testing.T) {
	cfg := Defaults()
	cfg.View.Decay = 0
	cfg.Field.DecayFloor = 0.01
	assert.Equal(t, float32(0.01), cfg.EffectiveDecay())

	cfg.View.Decay = 0.5
	assert.Equal(t, float32(0.5), cfg.EffectiveDecay())
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Defaults()
	cfg.Flocking.CohesionWeight = 1.75
	path := filepath.Join(t.TempDir(), "out.yaml")

	require.NoError(t, cfg.WriteYAML(path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1.75, loaded.Flocking.CohesionWeight)
}
