package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func newTestOrbit() *Orbit {
	return NewOrbit(1600, 900, 60, 0.01, 10, 0, math.Pi/2, 2)
}

func TestNewOrbitEye(t *testing.T) {
	cam := newTestOrbit()

	// Azimuth 0, polar 90 degrees puts the eye on +X
	eye := cam.Eye()
	assert.InDelta(t, 2, eye.X(), 1e-5)
	assert.InDelta(t, 0, eye.Y(), 1e-5)
	assert.InDelta(t, 0, eye.Z(), 1e-5)
}

func TestEyeKeepsRadius(t *testing.T) {
	cam := newTestOrbit()

	for _, drag := range []struct{ dx, dy float32 }{{100, 0}, {-350, 40}, {12, -200}} {
		cam.Rotate(drag.dx, drag.dy)
		assert.InDelta(t, cam.Radius, cam.Eye().Len(), 1e-4, "after drag %v", drag)
	}
}

func TestViewCentresOrigin(t *testing.T) {
	cam := newTestOrbit()
	cam.Rotate(400, 100)

	vp := cam.Projection().Mul4(cam.View())
	clip := vp.Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	ndc := clip.Vec3().Mul(1 / clip.W())

	assert.InDelta(t, 0, ndc.X(), 1e-5, "origin at screen centre")
	assert.InDelta(t, 0, ndc.Y(), 1e-5, "origin at screen centre")
	assert.InDelta(t, cam.Radius, clip.W(), 1e-4, "view depth")
}

func TestRotateClampsPolar(t *testing.T) {
	cam := newTestOrbit()

	cam.Rotate(0, 1e6)
	assert.Equal(t, float32(minPolar), cam.Polar)

	cam.Rotate(0, -1e6)
	assert.Equal(t, float32(maxPolar), cam.Polar)
}

func TestRotateAzimuth(t *testing.T) {
	cam := newTestOrbit()
	cam.Rotate(100, 0)

	assert.InDelta(t, 0.3, cam.Azimuth, 1e-6)
}

func TestZoom(t *testing.T) {
	cam := newTestOrbit()

	cam.Zoom(5)
	assert.InDelta(t, 1.5, cam.Radius, 1e-6)

	cam.Zoom(1000)
	assert.Equal(t, float32(minRadius), cam.Radius)
}

func TestResetRestoresHome(t *testing.T) {
	cam := newTestOrbit()
	cam.Rotate(300, 300)
	cam.Zoom(3)

	cam.Reset()

	assert.Equal(t, float32(0), cam.Azimuth)
	assert.Equal(t, float32(2), cam.Radius)
}

func TestProjectionAspect(t *testing.T) {
	cam := newTestOrbit()
	cam.Resize(100, 100)
	square := cam.Projection()
	cam.Resize(200, 100)
	wide := cam.Projection()

	// Wider viewport shrinks the x scale
	assert.Less(t, wide[0], square[0])
}
