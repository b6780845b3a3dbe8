package renderer

import (
	"image/color"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/voxelboids/field"
)

func testMatrices(w, h int) (mgl32.Mat4, mgl32.Mat4) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 2}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := mgl32.Perspective(mgl32.DegToRad(60), float32(w)/float32(h), 0.01, 10)
	return view, proj
}

func TestNewImageRejectsBadDims(t *testing.T) {
	_, err := NewImage(0, 10)
	assert.Error(t, err)
}

func TestAddPixelConcurrent(t *testing.T) {
	img, err := NewImage(4, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				img.AddPixel(1, 2, [4]float32{1, 0, 0, 1})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, [4]float32{8000, 0, 0, 8000}, img.At(1, 2))
	img.AddPixel(-1, 0, [4]float32{1, 1, 1, 1})
	img.AddPixel(4, 0, [4]float32{1, 1, 1, 1})
	assert.Equal(t, 16000.0, img.Total()[0]+img.Total()[3])
}

func TestToRGBA8ToneMap(t *testing.T) {
	img, _ := NewImage(3, 1)
	img.Pix = []float32{
		0, 0, 0, 0,
		1, 100, -1, 1,
		0.5, 0.5, 0.5, 1,
	}
	out := make([]color.RGBA, 3)
	img.ToRGBA8(out)

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, out[0])
	assert.Equal(t, uint8(161), out[1].R) // 1-e^-1
	assert.Equal(t, uint8(255), out[1].G)
	assert.Equal(t, uint8(0), out[1].B)
	assert.Equal(t, out[2].R, out[2].G)
}

func TestProjectWorldCentreHitsScreenCentre(t *testing.T) {
	view, proj := testMatrices(200, 100)
	pr := NewProjector(view, proj, 200, 200, 200, SplatParams{SampleWeight: 1})

	px, py, depth, ok := pr.Project(mgl32.Vec3{100, 100, 100}, 200, 100)
	require.True(t, ok)
	assert.InDelta(t, 100, px, 1e-3)
	assert.InDelta(t, 50, py, 1e-3)
	assert.InDelta(t, 2, depth, 1e-4)

	// +Y in world is up on screen
	_, pyUp, _, ok := pr.Project(mgl32.Vec3{100, 150, 100}, 200, 100)
	require.True(t, ok)
	assert.Less(t, pyUp, py)
}

func TestProjectRejectsBehindCamera(t *testing.T) {
	view, proj := testMatrices(100, 100)
	pr := NewProjector(view, proj, 1, 1, 1, SplatParams{})

	// model z = 3 is behind an eye at z = 2 looking toward -z
	_, _, _, ok := pr.Project(mgl32.Vec3{0.5, 0.5, 3.5}, 100, 100)
	assert.False(t, ok)
}

func TestBlurRadius(t *testing.T) {
	pr := Projector{params: SplatParams{DofSize: 8, DofDistribution: 1, DofDistance: 2, DofDepth: 1}}
	assert.Equal(t, float32(0), pr.BlurRadius(2))
	assert.InDelta(t, 4, pr.BlurRadius(2.5), 1e-5)
	assert.InDelta(t, 8, pr.BlurRadius(5), 1e-5)

	pr.params.DofSize = 100
	assert.Equal(t, float32(maxBlurRadius), pr.BlurRadius(5))

	pr.params.DofSize = 0
	assert.Equal(t, float32(0), pr.BlurRadius(5))
}

func TestSplatConservesWeightAcrossDisc(t *testing.T) {
	view, proj := testMatrices(64, 64)
	params := SplatParams{SampleWeight: 0.5, DofSize: 5, DofDistribution: 1, DofDistance: 0, DofDepth: 1}
	pr := NewProjector(view, proj, 10, 10, 10, params)
	img, _ := NewImage(64, 64)

	pr.Splat(img, mgl32.Vec3{5, 5, 5}, mgl32.Vec3{0, 0, -3})

	tot := img.Total()
	assert.InDelta(t, 0.5, tot[3], 1e-5)
	assert.InDelta(t, 0.5, tot[2], 1e-5)
	assert.InDelta(t, 0, tot[0], 1e-7)
	lit := 0
	for i := 0; i < img.Pixels(); i++ {
		if img.Pix[i*4+3] > 0 {
			lit++
		}
	}
	assert.Greater(t, lit, 1, "defocused splat covers a disc")
}

func TestSplatZeroVelocityOnlyAlpha(t *testing.T) {
	view, proj := testMatrices(32, 32)
	pr := NewProjector(view, proj, 10, 10, 10, SplatParams{SampleWeight: 1})
	img, _ := NewImage(32, 32)

	pr.Splat(img, mgl32.Vec3{5, 5, 5}, mgl32.Vec3{})

	assert.Equal(t, [4]float64{0, 0, 0, 1}, img.Total())
}

func TestRayMarch(t *testing.T) {
	vol, err := field.NewGrid("vol", 8, 8, 8)
	require.NoError(t, err)
	view, proj := testMatrices(16, 16)
	img, _ := NewImage(16, 16)
	rp := RayParams{Steps: 32, SampleWeight: 1}

	RayMarch(img, vol, view, proj, 8, 8, 8, rp, nil)
	assert.Equal(t, [4]float64{}, img.Total(), "empty volume renders black")

	for z := 0; z < 8; z++ {
		vol.Set(4, 4, z, field.Value{1, 0, 0, 0})
	}
	RayMarch(img, vol, view, proj, 8, 8, 8, rp, func(n int, fn func(lo, hi int)) {
		var wg sync.WaitGroup
		for lo := 0; lo < n; lo += 64 {
			wg.Add(1)
			go func(lo int) {
				defer wg.Done()
				fn(lo, min(lo+64, n))
			}(lo)
		}
		wg.Wait()
	})

	c := img.At(8, 7)
	assert.Greater(t, c[3], float32(0), "ray through the lit column")
	assert.Equal(t, c[0], c[1], "density-only voxels are white")
	assert.Equal(t, [4]float32{}, img.At(0, 0))
}

func TestRayMarchDegenerateCameraClearsImage(t *testing.T) {
	vol, err := field.NewGrid("vol", 4, 4, 4)
	require.NoError(t, err)
	vol.Set(2, 2, 2, field.Value{1, 0, 0, 0})
	img, err := NewImage(8, 8)
	require.NoError(t, err)
	for i := range img.Pix {
		img.Pix[i] = 7
	}

	_, proj := testMatrices(8, 8)
	RayMarch(img, vol, mgl32.Mat4{}, proj, 4, 4, 4, RayParams{Steps: 8, SampleWeight: 1}, nil)

	for i, v := range img.Pix {
		require.Equal(t, float32(0), v, "component %d keeps a stale value", i)
	}
}
