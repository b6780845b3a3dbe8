package telemetry

import (
	"math"
	"time"

	"github.com/pthm-cable/voxelboids/agents"
)

// Collector accumulates frames within windows and produces WindowStats.
type Collector struct {
	runID        string
	windowFrames int64
	centre       [3]float64

	// Current window tracking
	windowStartFrame int64
	pausedFrames     int

	// reused across flushes
	speeds []float64
}

// NewCollector creates a new stats collector.
// windowFrames: how many frames each stats window spans
// worldW/H/D: world size, used for the spread metric
func NewCollector(runID string, windowFrames int, worldW, worldH, worldD float32) *Collector {
	if windowFrames < 1 {
		windowFrames = 1
	}
	return &Collector{
		runID:        runID,
		windowFrames: int64(windowFrames),
		centre:       [3]float64{float64(worldW) / 2, float64(worldH) / 2, float64(worldD) / 2},
	}
}

// RecordFrame records one completed frame.
func (c *Collector) RecordFrame(paused bool) {
	if paused {
		c.pausedFrames++
	}
}

// ShouldFlush returns true if enough frames have passed to flush the window.
func (c *Collector) ShouldFlush(frame int64) bool {
	return frame-c.windowStartFrame >= c.windowFrames
}

// Masses holds field totals sampled at window end.
type Masses struct {
	Field  float64
	Volume float64
}

// Flush produces a WindowStats from the agent store and resets the window.
// Must not run concurrently with a frame.
func (c *Collector) Flush(frame int64, simTime time.Duration, st *agents.Store, m Masses) WindowStats {
	n := st.Active()
	c.speeds = c.speeds[:0]
	var spread float64
	for i := 0; i < n; i++ {
		vx, vy, vz := float64(st.VX[i]), float64(st.VY[i]), float64(st.VZ[i])
		c.speeds = append(c.speeds, math.Sqrt(vx*vx+vy*vy+vz*vz))

		dx := float64(st.X[i]) - c.centre[0]
		dy := float64(st.Y[i]) - c.centre[1]
		dz := float64(st.Z[i]) - c.centre[2]
		spread += dx*dx + dy*dy + dz*dz
	}
	if n > 0 {
		spread = math.Sqrt(spread / float64(n))
	}

	mean, p10, p50, p90, maxv := ComputeSpeedStats(c.speeds)

	stats := WindowStats{
		RunID:            c.runID,
		WindowStartFrame: c.windowStartFrame,
		WindowEndFrame:   frame,
		SimTimeSec:       simTime.Seconds(),
		PausedFrames:     c.pausedFrames,

		Active:   n,
		Capacity: st.Cap(),

		SpeedMean: mean,
		SpeedP10:  p10,
		SpeedP50:  p50,
		SpeedP90:  p90,
		SpeedMax:  maxv,

		Alignment: ComputeAlignment(st.VX[:n], st.VY[:n], st.VZ[:n]),
		Spread:    spread,

		FieldMass:  m.Field,
		VolumeMass: m.Volume,
	}

	// Reset for next window
	c.windowStartFrame = frame
	c.pausedFrames = 0

	return stats
}

// WindowFrames returns the number of frames per window.
func (c *Collector) WindowFrames() int64 {
	return c.windowFrames
}
