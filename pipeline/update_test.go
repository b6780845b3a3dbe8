package pipeline

import (
	"math"
	"sync/atomic"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/field"
)

func TestPoolDispatchCoversRangeOnce(t *testing.T) {
	for _, tc := range []struct {
		name               string
		workers, threshold int
		n                  int
	}{
		{"inline", 4, 1000, 100},
		{"parallel", 4, 10, 1001},
		{"single worker", 1, 1, 500},
		{"fewer items than workers", 8, 1, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pool := NewPool(tc.workers, tc.threshold)
			defer pool.Stop()

			hits := make([]int32, tc.n)
			var maxWorker atomic.Int32
			for round := 0; round < 3; round++ {
				pool.Dispatch(tc.n, func(lo, hi, worker int) {
					for i := lo; i < hi; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
					if int32(worker) > maxWorker.Load() {
						maxWorker.Store(int32(worker))
					}
				})
			}
			for i, h := range hits {
				require.Equal(t, int32(3), h, "item %d", i)
			}
			assert.Less(t, int(maxWorker.Load()), pool.Workers())
		})
	}
}

func TestPoolStopIdempotent(t *testing.T) {
	pool := NewPool(2, 1)
	pool.Range(10, func(lo, hi int) {})
	pool.Stop()
	pool.Stop()

	// restarts on demand
	var n atomic.Int32
	pool.Range(10, func(lo, hi int) { n.Add(int32(hi - lo)) })
	pool.Stop()
	assert.Equal(t, int32(10), n.Load())
}

func testFlock() flockParams {
	world := mgl32.Vec3{16, 16, 16}
	return flockParams{maxSpeed: 1, maxForce: 1, step: 1, sense: 2, world: world, centre: world.Mul(0.5)}
}

func TestSeekAndClamp(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, seek(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}, 2))

	s := seek(mgl32.Vec3{0, 3, 0}, mgl32.Vec3{1, 0, 0}, 2)
	assert.InDelta(t, -1, s.X(), 1e-6)
	assert.InDelta(t, 2, s.Y(), 1e-6)

	c := clampLen(mgl32.Vec3{3, 4, 0}, 1)
	assert.InDelta(t, 1, c.Len(), 1e-6)
	assert.Equal(t, mgl32.Vec3{0.1, 0, 0}, clampLen(mgl32.Vec3{0.1, 0, 0}, 1))
}

func TestSenseStencil(t *testing.T) {
	g, err := field.NewGrid("f", 16, 16, 16)
	require.NoError(t, err)
	// mass two voxels to +x at sense distance 2, moving +y
	g.Set(10, 8, 8, field.Value{2, 0, 3, 0})

	s := sense(g, 8, 8, 8, 2, mgl32.Vec3{1, 1, 1})

	assert.Equal(t, float32(2), s.mass)
	assert.Equal(t, mgl32.Vec3{4, 0, 0}, s.centroid)
	assert.Equal(t, mgl32.Vec3{0, 3, 0}, s.velocity)
	assert.Equal(t, mgl32.Vec3{}, s.gradient, "stencil sample is outside the 6-neighbourhood")

	// wraps across the low border
	g.Clear()
	g.Set(15, 8, 8, field.Value{1, 0, 0, 0})
	s = sense(g, 0, 8, 8, 1, mgl32.Vec3{1, 1, 1})
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, s.centroid)
	assert.Equal(t, mgl32.Vec3{-0.5, 0, 0}, s.gradient)
}

func TestSteerRules(t *testing.T) {
	p := mgl32.Vec3{8, 8, 8}

	fp := testFlock()
	fp.cohesion = 1
	a := fp.steer(sensed{mass: 1, centroid: mgl32.Vec3{3, 0, 0}}, p, mgl32.Vec3{})
	assert.Greater(t, a.X(), float32(0), "cohesion pulls toward mass")

	fp = testFlock()
	fp.avoidance = 1
	a = fp.steer(sensed{gradient: mgl32.Vec3{0, 0, 2}}, p, mgl32.Vec3{})
	assert.Less(t, a.Z(), float32(0), "separation climbs down the gradient")

	fp = testFlock()
	fp.alignment = 1
	s := sensed{mass: 2, velocity: mgl32.Vec3{0, 2, 0}}
	assert.Equal(t, mgl32.Vec3{}, fp.steer(s, p, mgl32.Vec3{}), "alignment needs direction channels")
	fp.direction = true
	a = fp.steer(s, p, mgl32.Vec3{})
	assert.InDelta(t, 1, a.Y(), 1e-6)

	fp = testFlock()
	fp.center = 1
	a = fp.steer(sensed{}, mgl32.Vec3{2, 8, 8}, mgl32.Vec3{})
	assert.Greater(t, a.X(), float32(0), "centre attraction")

	fp = testFlock()
	fp.cohesion, fp.avoidance, fp.center = 5, 5, 5
	fp.maxForce = 0.25
	a = fp.steer(sensed{mass: 1, centroid: mgl32.Vec3{1, 0, 0}, gradient: mgl32.Vec3{0, 1, 0}}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{})
	assert.InDelta(t, 0.25, a.Len(), 1e-6)
}

func TestUpdateRangeWrapsAndSkipsNonFinite(t *testing.T) {
	g, _ := field.NewGrid("f", 16, 16, 16)
	fp := testFlock()
	fp.maxSpeed = 2
	nan := float32(math.NaN())

	x := []float32{15.5, nan}
	y := []float32{8, 8}
	z := []float32{0.25, 8}
	vx := []float32{1, 1}
	vy := []float32{0, 0}
	vz := []float32{-0.5, 0}

	updateRange(&fp, g, x, y, z, vx, vy, vz, 0, 2)

	assert.InDelta(t, 0.5, x[0], 1e-6)
	assert.InDelta(t, 15.75, z[0], 1e-6)
	assert.True(t, math.IsNaN(float64(x[1])), "non-finite agent untouched")
	assert.Equal(t, float32(8), y[1])
}
