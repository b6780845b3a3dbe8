package main

import (
	"github.com/pthm-cable/voxelboids/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value

	get func(*config.Config) float64
	set func(*config.Config, float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable flocking parameters.
// Bounds follow the control panel slider ranges.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "alignment", Path: "flocking.alignment_weight", Min: 0, Max: 2, Default: 1,
				get: func(c *config.Config) float64 { return c.Flocking.AlignmentWeight },
				set: func(c *config.Config, v float64) { c.Flocking.AlignmentWeight = v }},
			{Name: "avoidance", Path: "flocking.avoidance_weight", Min: 0, Max: 2, Default: 1,
				get: func(c *config.Config) float64 { return c.Flocking.AvoidanceWeight },
				set: func(c *config.Config, v float64) { c.Flocking.AvoidanceWeight = v }},
			{Name: "cohesion", Path: "flocking.cohesion_weight", Min: 0, Max: 2, Default: 1,
				get: func(c *config.Config) float64 { return c.Flocking.CohesionWeight },
				set: func(c *config.Config, v float64) { c.Flocking.CohesionWeight = v }},
			{Name: "center", Path: "flocking.center_attraction", Min: 0, Max: 2, Default: 0.25,
				get: func(c *config.Config) float64 { return c.Flocking.CenterAttraction },
				set: func(c *config.Config, v float64) { c.Flocking.CenterAttraction = v }},
			{Name: "max_force", Path: "flocking.max_force", Min: 0.05, Max: 5, Default: 1,
				get: func(c *config.Config) float64 { return c.Flocking.MaxForce },
				set: func(c *config.Config, v float64) { c.Flocking.MaxForce = v }},
			{Name: "sense_distance", Path: "flocking.sense_distance", Min: 0, Max: 64, Default: 8,
				get: func(c *config.Config) float64 { return float64(c.Flocking.SenseDistance) },
				set: func(c *config.Config, v float64) { c.Flocking.SenseDistance = int(v + 0.5) }},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = max(spec.Min, min(spec.Max, v[i]))
	}
	return clamped
}

// ApplyToConfig applies clamped parameter values to a Config struct.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		pv.Specs[i].set(cfg, v)
	}
	cfg.Refresh()
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.get(cfg)
	}
	return v
}
