package telemetry

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/agents"
)

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	// shuffled input must not matter
	rand.New(rand.NewSource(1)).Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	mean, p10, p50, p90, maxv := ComputeSpeedStats(values)

	assert.InDelta(t, 5.5, mean, 1e-9)
	assert.GreaterOrEqual(t, p10, 1.0)
	assert.LessOrEqual(t, p10, 2.0)
	assert.GreaterOrEqual(t, p50, 5.0)
	assert.LessOrEqual(t, p50, 6.0)
	assert.GreaterOrEqual(t, p90, 9.0)
	assert.LessOrEqual(t, p90, 10.0)
	assert.True(t, p10 <= p50 && p50 <= p90, "percentiles out of order: %v %v %v", p10, p50, p90)
	assert.Equal(t, 10.0, maxv)
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, p10, p50, p90, maxv := ComputeSpeedStats(nil)
	assert.Equal(t, [5]float64{}, [5]float64{mean, p10, p50, p90, maxv})
}

func TestComputeAlignment(t *testing.T) {
	tests := []struct {
		name       string
		vx, vy, vz []float32
		want       float64
	}{
		{"empty", nil, nil, nil, 0},
		{"stationary", []float32{0, 0}, []float32{0, 0}, []float32{0, 0}, 0},
		{"parallel", []float32{1, 2}, []float32{0, 0}, []float32{0, 0}, 1},
		{"opposed", []float32{1, -1}, []float32{0, 0}, []float32{0, 0}, 0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, []float32{0, 0}, math.Sqrt2 / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeAlignment(tt.vx, tt.vy, tt.vz), 1e-6)
		})
	}
}

func TestCollectorWindows(t *testing.T) {
	st, err := agents.New(8)
	require.NoError(t, err)
	st.SetActive(2)
	st.Set(0, agents.Vec3{X: 5, Y: 8, Z: 8}, agents.Vec3{X: 1})
	st.Set(1, agents.Vec3{X: 11, Y: 8, Z: 8}, agents.Vec3{X: 1})
	// inactive slot must be ignored
	st.Set(2, agents.Vec3{}, agents.Vec3{X: 100})

	c := NewCollector("run", 4, 16, 16, 16)
	require.Equal(t, int64(4), c.WindowFrames())

	for frame := int64(1); frame <= 3; frame++ {
		c.RecordFrame(frame == 2)
		require.False(t, c.ShouldFlush(frame), "flush requested early at frame %d", frame)
	}
	c.RecordFrame(false)
	require.True(t, c.ShouldFlush(4))

	s := c.Flush(4, 2*time.Second, st, Masses{Field: 3, Volume: 7})
	assert.Equal(t, "run", s.RunID)
	assert.Equal(t, int64(0), s.WindowStartFrame)
	assert.Equal(t, int64(4), s.WindowEndFrame)
	assert.Equal(t, 1, s.PausedFrames)
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 8, s.Capacity)
	assert.Equal(t, 1.0, s.SpeedMean)
	assert.Equal(t, 1.0, s.SpeedMax)
	assert.InDelta(t, 1, s.Alignment, 1e-9)
	assert.InDelta(t, 3, s.Spread, 1e-6)
	assert.Equal(t, 2.0, s.SimTimeSec)
	assert.Equal(t, 3.0, s.FieldMass)
	assert.Equal(t, 7.0, s.VolumeMass)

	// next window starts where the last ended
	assert.False(t, c.ShouldFlush(7), "second window still open")
	s = c.Flush(8, 0, st, Masses{})
	assert.Equal(t, int64(4), s.WindowStartFrame)
	assert.Zero(t, s.PausedFrames)
}
