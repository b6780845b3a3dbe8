package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/voxelboids/field"
)

// Parallel runs fn over disjoint ranges covering [0, n) and returns when all finish.
type Parallel func(n int, fn func(lo, hi int))

// Serial is a Parallel that runs inline.
func Serial(n int, fn func(lo, hi int)) { fn(0, n) }

// RayParams configures the volume ray-marcher.
type RayParams struct {
	Steps        int
	SampleWeight float32
}

// RayMarch renders vol into dst by marching one ray per pixel through the
// world box in model space. Density is emitted additively; voxels carrying
// velocity are tinted by its absolute direction, density-only voxels are white.
// dst is cleared first.
func RayMarch(dst *Image, vol *field.Grid, view, proj mgl32.Mat4, worldW, worldH, worldD float32, rp RayParams, par Parallel) {
	if par == nil {
		par = Serial
	}
	inv := proj.Mul4(view).Inv()
	invMax := 1 / max(worldW, worldH, worldD)
	boxMax := mgl32.Vec3{worldW / 2, worldH / 2, worldD / 2}.Mul(invMax)
	boxMin := boxMax.Mul(-1)
	steps := max(rp.Steps, 1)

	// model space to voxel coordinates
	toVoxel := func(m mgl32.Vec3) (int, int, int) {
		u := m.Sub(boxMin)
		x := int(u.X() / (boxMax.X() - boxMin.X()) * float32(vol.W))
		y := int(u.Y() / (boxMax.Y() - boxMin.Y()) * float32(vol.H))
		z := int(u.Z() / (boxMax.Z() - boxMin.Z()) * float32(vol.D))
		return min(max(x, 0), vol.W-1), min(max(y, 0), vol.H-1), min(max(z, 0), vol.D-1)
	}

	par(dst.Pixels(), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			o := i * 4
			dst.Pix[o], dst.Pix[o+1], dst.Pix[o+2], dst.Pix[o+3] = 0, 0, 0, 0

			x, y := i%dst.W, i/dst.W
			nx := (float32(x)+0.5)/float32(dst.W)*2 - 1
			ny := 1 - (float32(y)+0.5)/float32(dst.H)*2
			near := unproject(inv, nx, ny, -1)
			far := unproject(inv, nx, ny, 1)
			dir := far.Sub(near)
			// a degenerate camera yields a zero or NaN direction
			if l := dir.Len(); !(l > 0) || math.IsInf(float64(l), 0) {
				continue
			}
			dir = dir.Normalize()

			t0, t1, hit := slab(near, dir, boxMin, boxMax)
			if !hit {
				continue
			}
			dt := (t1 - t0) / float32(steps)
			var acc [4]float32
			for s := 0; s < steps; s++ {
				p := near.Add(dir.Mul(t0 + (float32(s)+0.5)*dt))
				v := vol.At(toVoxel(p))
				rho := v[field.ChDensity]
				if rho <= 0 {
					continue
				}
				e := rho * rp.SampleWeight * dt
				d := mgl32.Vec3{v[field.ChVelX], v[field.ChVelY], v[field.ChVelZ]}
				if l := d.Len(); l > 0 {
					d = d.Mul(1 / l)
					acc[0] += abs32(d.X()) * e
					acc[1] += abs32(d.Y()) * e
					acc[2] += abs32(d.Z()) * e
				} else {
					acc[0] += e
					acc[1] += e
					acc[2] += e
				}
				acc[3] += e
			}
			copy(dst.Pix[o:o+4], acc[:])
		}
	})
}

func unproject(inv mgl32.Mat4, x, y, z float32) mgl32.Vec3 {
	p := inv.Mul4x1(mgl32.Vec4{x, y, z, 1})
	return p.Vec3().Mul(1 / p.W())
}

// slab intersects a ray with an axis-aligned box, returning the entry and exit
// parameters clamped to t >= 0.
func slab(o, d, lo, hi mgl32.Vec3) (float32, float32, bool) {
	t0, t1 := float32(0), float32(math.MaxFloat32)
	for a := 0; a < 3; a++ {
		if d[a] == 0 {
			if o[a] < lo[a] || o[a] > hi[a] {
				return 0, 0, false
			}
			continue
		}
		inv := 1 / d[a]
		n, f := (lo[a]-o[a])*inv, (hi[a]-o[a])*inv
		if n > f {
			n, f = f, n
		}
		t0 = max(t0, n)
		t1 = min(t1, f)
		if t0 > t1 {
			return 0, 0, false
		}
	}
	return t0, t1, true
}
