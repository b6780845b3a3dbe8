package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// maxBlurRadius caps the depth-of-field disc in pixels.
const maxBlurRadius = 16

// SplatParams is the post-processing part of the view configuration.
type SplatParams struct {
	SampleWeight    float32
	DofSize         float32 // blur radius in pixels at full defocus
	DofDistribution float32 // exponent shaping the defocus curve
	DofDistance     float32 // focal distance in model units
	DofDepth        float32 // distance from focus to full defocus
}

// Projector maps world-space agents onto an image through a view-projection.
// World positions are recentred and scaled so the largest axis spans one unit.
type Projector struct {
	vp     mgl32.Mat4
	half   mgl32.Vec3
	invMax float32
	params SplatParams
}

// NewProjector builds a projector for one frame.
func NewProjector(view, proj mgl32.Mat4, worldW, worldH, worldD float32, p SplatParams) Projector {
	return Projector{
		vp:     proj.Mul4(view),
		half:   mgl32.Vec3{worldW / 2, worldH / 2, worldD / 2},
		invMax: 1 / max(worldW, worldH, worldD),
		params: p,
	}
}

// Model converts a world position to model space.
func (pr Projector) Model(pos mgl32.Vec3) mgl32.Vec3 {
	return pos.Sub(pr.half).Mul(pr.invMax)
}

// Project returns the pixel coordinates and view depth of a world position.
// ok is false when the point is behind the camera or outside the frustum.
func (pr Projector) Project(pos mgl32.Vec3, w, h int) (px, py, depth float32, ok bool) {
	clip := pr.vp.Mul4x1(pr.Model(pos).Vec4(1))
	if !(clip.W() > 0) {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	if !inUnit(ndc.X()) || !inUnit(ndc.Y()) || !inUnit(ndc.Z()) {
		return 0, 0, 0, false
	}
	px = (ndc.X()*0.5 + 0.5) * float32(w)
	py = (0.5 - ndc.Y()*0.5) * float32(h)
	return px, py, clip.W(), true
}

// BlurRadius returns the defocus disc radius in pixels for a view depth.
func (pr Projector) BlurRadius(depth float32) float32 {
	p := pr.params
	if p.DofSize <= 0 {
		return 0
	}
	t := float32(math.Abs(float64(depth-p.DofDistance))) / p.DofDepth
	t = min(max(t, 0), 1)
	r := p.DofSize * float32(math.Pow(float64(t), float64(p.DofDistribution)))
	return min(r, maxBlurRadius)
}

// Splat accumulates one agent into img. Colour is the absolute normalised
// velocity, alpha counts samples; both are scaled by the sample weight and
// spread evenly over the defocus disc.
func (pr Projector) Splat(img *Image, pos, vel mgl32.Vec3) {
	px, py, depth, ok := pr.Project(pos, img.W, img.H)
	if !ok {
		return
	}
	sw := pr.params.SampleWeight
	var c [4]float32
	if l := vel.Len(); l > 0 {
		n := vel.Mul(1 / l)
		c[0] = abs32(n.X()) * sw
		c[1] = abs32(n.Y()) * sw
		c[2] = abs32(n.Z()) * sw
	}
	c[3] = sw

	cx, cy := int(px), int(py)
	r := pr.BlurRadius(depth)
	ri := int(r + 0.5)
	if ri < 1 {
		img.AddPixel(cx, cy, c)
		return
	}

	r2 := ri * ri
	count := 0
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if dx*dx+dy*dy <= r2 {
				count++
			}
		}
	}
	inv := 1 / float32(count)
	for i := range c {
		c[i] *= inv
	}
	for dy := -ri; dy <= ri; dy++ {
		for dx := -ri; dx <= ri; dx++ {
			if dx*dx+dy*dy <= r2 {
				img.AddPixel(cx+dx, cy+dy, c)
			}
		}
	}
}

// inUnit reports v in [-1, 1]; false for NaN.
func inUnit(v float32) bool { return v >= -1 && v <= 1 }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
