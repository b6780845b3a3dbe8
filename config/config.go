// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Agents    AgentsConfig    `yaml:"agents"`
	Flocking  FlockingConfig  `yaml:"flocking"`
	Field     FieldConfig     `yaml:"field"`
	View      ViewConfig      `yaml:"view"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings. The render target matches the window.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds world dimensions in world units. One voxel per unit.
type WorldConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Depth  int `yaml:"depth"`
}

// AgentsConfig holds agent arena sizing.
type AgentsConfig struct {
	Capacity int   `yaml:"capacity"` // N_max, allocated once
	Active   int   `yaml:"active"`   // initial active_count
	Seed     int64 `yaml:"seed"`     // 0 = time-based
}

// FlockingConfig is the per-frame Simulation Configuration read by the Update pass.
type FlockingConfig struct {
	AlignmentWeight    float64 `yaml:"alignment_weight"`
	AvoidanceWeight    float64 `yaml:"avoidance_weight"`
	CohesionWeight     float64 `yaml:"cohesion_weight"`
	CenterAttraction   float64 `yaml:"center_attraction"`
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxForce           float64 `yaml:"max_force"`
	SenseDistance      int     `yaml:"sense_distance"`       // voxel radius of the sampling stencil
	VelocityUpdateStep float64 `yaml:"velocity_update_step"` // blend step applied to the clamped force
}

// FieldConfig holds deposit and diffusion parameters.
type FieldConfig struct {
	KernelRadius  int     `yaml:"kernel_radius"`  // binomial kernel radius in voxels
	Edge          string  `yaml:"edge"`           // "wrap" or "zero"
	DepositMode   string  `yaml:"deposit_mode"`   // "density" or "direction"
	DepositWeight float64 `yaml:"deposit_weight"` // density added per agent
	DecayFloor    float64 `yaml:"decay_floor"`    // minimum effective volume decay rate
}

// ViewConfig is the Render/View Configuration: camera and post-processing.
type ViewConfig struct {
	FovDeg          float64 `yaml:"fov_deg"`
	Near            float64 `yaml:"near"`
	Far             float64 `yaml:"far"`
	Azimuth         float64 `yaml:"azimuth"`
	Polar           float64 `yaml:"polar"`
	Radius          float64 `yaml:"radius"`
	SampleWeight    float64 `yaml:"sample_weight"`
	DofSize         float64 `yaml:"dof_size"`
	DofDistribution float64 `yaml:"dof_distribution"`
	DofDistance     float64 `yaml:"dof_distance"`
	DofDepth        float64 `yaml:"dof_depth"`
	Decay           float64 `yaml:"decay"`     // volume grid decay rate per frame
	RayTrace        bool    `yaml:"ray_trace"` // compositor ray-marches the volume instead
	RaySteps        int     `yaml:"ray_steps"`
	RayScale        int     `yaml:"ray_scale"` // ray-march at 1/RayScale resolution
}

// PipelineConfig holds worker pool parameters.
type PipelineConfig struct {
	Workers           int `yaml:"workers"`            // 0 = GOMAXPROCS
	ParallelThreshold int `yaml:"parallel_threshold"` // below this many work items, run inline
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow int `yaml:"stats_window"` // frames per window stats record
	PerfWindow  int `yaml:"perf_window"`  // frames in the rolling perf window
}

// Edge policies.
const (
	EdgeWrap = "wrap"
	EdgeZero = "zero"
)

// Deposit modes.
const (
	DepositDensity   = "density"
	DepositDirection = "direction"
)

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW32       float32
	WorldH32       float32
	WorldD32       float32
	EffectiveDecay float32 // max(View.Decay, Field.DecayFloor)
	Direction      bool    // Field.DepositMode == direction
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := validateSchema(data); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// Validate checks value ranges. Frame-mutable fields are checked too so that
// a UI edit can be vetted with the same rules before it is applied.
func (c *Config) Validate() error {
	if c.World.Width < 1 || c.World.Height < 1 || c.World.Depth < 1 {
		return &ValidationError{Field: "world", Reason: fmt.Sprintf("dimensions must be positive, got %dx%dx%d", c.World.Width, c.World.Height, c.World.Depth)}
	}
	if c.Screen.Width < 1 || c.Screen.Height < 1 {
		return &ValidationError{Field: "screen", Reason: "dimensions must be positive"}
	}
	if c.Agents.Capacity < 1 {
		return &ValidationError{Field: "agents.capacity", Reason: "must be at least 1"}
	}
	if c.Agents.Active < 0 || c.Agents.Active > c.Agents.Capacity {
		return &ValidationError{Field: "agents.active", Reason: fmt.Sprintf("must be in [0, %d]", c.Agents.Capacity)}
	}
	if err := c.Flocking.Validate(); err != nil {
		return err
	}
	if c.Field.KernelRadius < 1 {
		return &ValidationError{Field: "field.kernel_radius", Reason: "must be at least 1"}
	}
	minDim := min(c.World.Width, c.World.Height, c.World.Depth)
	if 2*c.Field.KernelRadius+1 > minDim {
		return &ValidationError{Field: "field.kernel_radius", Reason: fmt.Sprintf("kernel wider than smallest world axis (%d)", minDim)}
	}
	switch c.Field.Edge {
	case EdgeWrap, EdgeZero:
	default:
		return &ValidationError{Field: "field.edge", Reason: fmt.Sprintf("unknown policy %q", c.Field.Edge)}
	}
	switch c.Field.DepositMode {
	case DepositDensity, DepositDirection:
	default:
		return &ValidationError{Field: "field.deposit_mode", Reason: fmt.Sprintf("unknown mode %q", c.Field.DepositMode)}
	}
	if c.Field.DepositWeight <= 0 {
		return &ValidationError{Field: "field.deposit_weight", Reason: "must be positive"}
	}
	if c.Field.DecayFloor < 0 || c.Field.DecayFloor > 1 {
		return &ValidationError{Field: "field.decay_floor", Reason: "must be in [0, 1]"}
	}
	if err := c.View.Validate(); err != nil {
		return err
	}
	if c.Pipeline.Workers < 0 {
		return &ValidationError{Field: "pipeline.workers", Reason: "must be >= 0"}
	}
	return nil
}

// Validate checks flocking weights and caps.
func (f FlockingConfig) Validate() error {
	for name, v := range map[string]float64{
		"alignment_weight":     f.AlignmentWeight,
		"avoidance_weight":     f.AvoidanceWeight,
		"cohesion_weight":      f.CohesionWeight,
		"center_attraction":    f.CenterAttraction,
		"max_speed":            f.MaxSpeed,
		"max_force":            f.MaxForce,
		"velocity_update_step": f.VelocityUpdateStep,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "flocking." + name, Reason: fmt.Sprintf("must be a finite value >= 0, got %v", v)}
		}
	}
	if f.VelocityUpdateStep > 1 {
		return &ValidationError{Field: "flocking.velocity_update_step", Reason: "must be <= 1"}
	}
	if f.SenseDistance < 0 {
		return &ValidationError{Field: "flocking.sense_distance", Reason: "must be >= 0"}
	}
	return nil
}

// Validate checks camera and post-processing parameters.
func (v ViewConfig) Validate() error {
	if v.FovDeg <= 0 || v.FovDeg >= 180 {
		return &ValidationError{Field: "view.fov_deg", Reason: "must be in (0, 180)"}
	}
	if v.Near <= 0 || v.Far <= v.Near {
		return &ValidationError{Field: "view.near", Reason: "require 0 < near < far"}
	}
	if v.Decay < 0 || v.Decay > 1 {
		return &ValidationError{Field: "view.decay", Reason: "must be in [0, 1]"}
	}
	if v.SampleWeight < 0 {
		return &ValidationError{Field: "view.sample_weight", Reason: "must be >= 0"}
	}
	if v.DofDepth <= 0 {
		return &ValidationError{Field: "view.dof_depth", Reason: "must be positive"}
	}
	if v.RaySteps < 1 {
		return &ValidationError{Field: "view.ray_steps", Reason: "must be at least 1"}
	}
	if v.RayScale < 1 {
		return &ValidationError{Field: "view.ray_scale", Reason: "must be at least 1"}
	}
	return nil
}

// ValidationError reports a configuration value outside its allowed range.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// EffectiveDecay returns the decay rate actually applied to the volume grid.
// The floor keeps the volume from accumulating without bound when the UI sets 0.
func (c *Config) EffectiveDecay() float32 {
	return float32(max(c.View.Decay, c.Field.DecayFloor))
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.WorldW32 = float32(c.World.Width)
	c.Derived.WorldH32 = float32(c.World.Height)
	c.Derived.WorldD32 = float32(c.World.Depth)
	c.Derived.EffectiveDecay = c.EffectiveDecay()
	c.Derived.Direction = c.Field.DepositMode == DepositDirection
}

// Refresh recomputes derived values after in-place edits (UI sliders).
func (c *Config) Refresh() {
	c.computeDerived()
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
