// Package camera provides an orbit camera around the centre of the world box.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Input sensitivities.
const (
	rotateSpeed = 0.003 // radians per pixel of mouse drag
	zoomSpeed   = 0.1   // model units per wheel notch
	minPolar    = 0.02  // keep off the +Y pole where look-at degenerates
	maxPolar    = math.Pi
	minRadius   = 0.05
)

// Orbit looks at the origin of model space from a point on a sphere.
// The world box is mapped into model space centred on the origin with
// its largest axis spanning one unit.
type Orbit struct {
	// Spherical position of the eye
	Azimuth, Polar, Radius float32

	// Projection
	FovDeg    float32
	Near, Far float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	home [3]float32
}

// NewOrbit creates an orbit camera. The initial angles and radius are kept for Reset.
func NewOrbit(viewportW, viewportH, fovDeg, near, far, azimuth, polar, radius float32) *Orbit {
	o := &Orbit{
		FovDeg:    fovDeg,
		Near:      near,
		Far:       far,
		ViewportW: viewportW,
		ViewportH: viewportH,
		home:      [3]float32{azimuth, polar, radius},
	}
	o.Reset()
	return o
}

// Eye returns the camera position in model space.
func (o *Orbit) Eye() mgl32.Vec3 {
	sa, ca := math.Sincos(float64(o.Azimuth))
	sp, cp := math.Sincos(float64(o.Polar))
	return mgl32.Vec3{
		float32(ca * sp),
		float32(cp),
		float32(sa * sp),
	}.Mul(o.Radius)
}

// View returns the look-at matrix toward the origin with +Y up.
func (o *Orbit) View() mgl32.Mat4 {
	return mgl32.LookAtV(o.Eye(), mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
}

// Projection returns the perspective matrix for the current viewport.
func (o *Orbit) Projection() mgl32.Mat4 {
	aspect := float32(1)
	if o.ViewportH > 0 {
		aspect = o.ViewportW / o.ViewportH
	}
	return mgl32.Perspective(mgl32.DegToRad(o.FovDeg), aspect, o.Near, o.Far)
}

// Rotate applies a mouse drag in screen pixels.
func (o *Orbit) Rotate(dx, dy float32) {
	o.Azimuth += dx * rotateSpeed
	o.Polar = clamp(o.Polar-dy*rotateSpeed, minPolar, maxPolar)
}

// Zoom moves the eye toward the origin by scroll wheel notches.
func (o *Orbit) Zoom(scroll float32) {
	o.Radius = max(o.Radius-scroll*zoomSpeed, minRadius)
}

// Resize updates viewport dimensions.
func (o *Orbit) Resize(viewportW, viewportH float32) {
	o.ViewportW = viewportW
	o.ViewportH = viewportH
}

// Reset returns the camera to its initial orbit.
func (o *Orbit) Reset() {
	o.Azimuth = o.home[0]
	o.Polar = clamp(o.home[1], minPolar, maxPolar)
	o.Radius = max(o.home[2], minRadius)
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
