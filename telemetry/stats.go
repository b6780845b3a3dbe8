// Package telemetry provides per-pass performance tracking, windowed flock
// statistics, and CSV experiment output.
package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a window of frames.
type WindowStats struct {
	RunID            string  `csv:"run_id"`
	WindowStartFrame int64   `csv:"-"`
	WindowEndFrame   int64   `csv:"window_end"`
	SimTimeSec       float64 `csv:"sim_time"`
	PausedFrames     int     `csv:"paused_frames"`

	// Population at window end
	Active   int `csv:"active"`
	Capacity int `csv:"capacity"`

	// Speed distribution over active agents
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP10  float64 `csv:"speed_p10"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Flock order: |sum v| / sum |v|, 1 when every agent heads the same way
	Alignment float64 `csv:"alignment"`

	// RMS distance of active agents from the world centre
	Spread float64 `csv:"spread"`

	// Field totals (density channel)
	FieldMass  float64 `csv:"field_mass"`
	VolumeMass float64 `csv:"volume_mass"`
}

// ComputeSpeedStats calculates mean, percentiles, and max from speed values.
func ComputeSpeedStats(values []float64) (mean, p10, p50, p90, maxv float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	maxv = floats.Max(sorted)

	return mean, p10, p50, p90, maxv
}

// ComputeAlignment returns |sum v| / sum |v| over velocity components.
// Returns 0 when no agent is moving.
func ComputeAlignment(vx, vy, vz []float32) float64 {
	var sx, sy, sz, sum float64
	for i := range vx {
		x, y, z := float64(vx[i]), float64(vy[i]), float64(vz[i])
		sx += x
		sy += y
		sz += z
		sum += math.Sqrt(x*x + y*y + z*z)
	}
	if sum == 0 {
		return 0
	}
	return math.Sqrt(sx*sx+sy*sy+sz*sz) / sum
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int64("window_start", s.WindowStartFrame),
		slog.Int64("window_end", s.WindowEndFrame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("paused_frames", s.PausedFrames),
		slog.Int("active", s.Active),
		slog.Int("capacity", s.Capacity),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p10", s.SpeedP10),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("alignment", s.Alignment),
		slog.Float64("spread", s.Spread),
		slog.Float64("field_mass", s.FieldMass),
		slog.Float64("volume_mass", s.VolumeMass),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndFrame,
		"sim_time", s.SimTimeSec,
		"active", s.Active,
		"speed_mean", s.SpeedMean,
		"speed_p50", s.SpeedP50,
		"alignment", s.Alignment,
		"spread", s.Spread,
		"field_mass", s.FieldMass,
		"volume_mass", s.VolumeMass,
	)
}
