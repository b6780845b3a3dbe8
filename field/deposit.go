package field

import "math"

// Depositor scatters agent contributions into one or more grids.
// Voxel addressing wraps with the toroidal world; non-finite positions are dropped.
type Depositor struct {
	WorldW, WorldH, WorldD float32
	Weight                 float32 // density per agent
	Direction              bool    // also accumulate velocity into channels 1..3
}

// VoxelOf maps a world coordinate onto one of n cells along an axis of the given size.
// ok is false for NaN or infinite input.
func VoxelOf(p, size float32, n int) (int, bool) {
	if math.IsNaN(float64(p)) || math.IsInf(float64(p), 0) {
		return 0, false
	}
	w := wrap(p, size)
	i := int(w / size * float32(n))
	if i >= n {
		// w can round up to size
		i = n - 1
	}
	return i, true
}

// Range deposits agents [lo, hi). Contributions are summed with atomic adds, so
// any number of Range calls may run concurrently over disjoint agent ranges.
// All targets must share the shape of the first.
func (d Depositor) Range(x, y, z, vx, vy, vz []float32, lo, hi int, targets ...*Grid) {
	if len(targets) == 0 {
		return
	}
	g0 := targets[0]
	for i := lo; i < hi; i++ {
		cx, okx := VoxelOf(x[i], d.WorldW, g0.W)
		cy, oky := VoxelOf(y[i], d.WorldH, g0.H)
		cz, okz := VoxelOf(z[i], d.WorldD, g0.D)
		if !okx || !oky || !okz {
			continue
		}
		o := g0.Index(cx, cy, cz) * Channels
		for _, g := range targets {
			g.add(o+ChDensity, d.Weight)
			if d.Direction {
				g.add(o+ChVelX, vx[i]*d.Weight)
				g.add(o+ChVelY, vy[i]*d.Weight)
				g.add(o+ChVelZ, vz[i]*d.Weight)
			}
		}
	}
}

// wrap maps p into [0, size).
func wrap(p, size float32) float32 {
	r := float32(math.Mod(float64(p), float64(size)))
	if r < 0 {
		r += size
	}
	return r
}

// Wrap is the exported toroidal wrap shared with the update pass.
func Wrap(p, size float32) float32 {
	w := wrap(p, size)
	if w >= size {
		return 0
	}
	return w
}
