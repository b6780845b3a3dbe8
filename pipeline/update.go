package pipeline

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/voxelboids/config"
	"github.com/pthm-cable/voxelboids/field"
)

// seekEpsilon is the shortest steering direction treated as non-zero.
const seekEpsilon = 1e-6

// flockParams is the float32 view of the flocking configuration for one frame.
type flockParams struct {
	alignment, avoidance, cohesion, center float32
	maxSpeed, maxForce, step               float32
	sense                                  int
	direction                              bool

	world  mgl32.Vec3
	centre mgl32.Vec3
}

func newFlockParams(cfg *config.Config) flockParams {
	f := cfg.Flocking
	world := mgl32.Vec3{cfg.Derived.WorldW32, cfg.Derived.WorldH32, cfg.Derived.WorldD32}
	return flockParams{
		alignment: float32(f.AlignmentWeight),
		avoidance: float32(f.AvoidanceWeight),
		cohesion:  float32(f.CohesionWeight),
		center:    float32(f.CenterAttraction),
		maxSpeed:  float32(f.MaxSpeed),
		maxForce:  float32(f.MaxForce),
		step:      float32(f.VelocityUpdateStep),
		sense:     f.SenseDistance,
		direction: cfg.Derived.Direction,
		world:     world,
		centre:    world.Mul(0.5),
	}
}

// sensed is what an agent reads from the field around its voxel.
type sensed struct {
	mass     float32    // summed density over the stencil
	centroid mgl32.Vec3 // density-weighted offset sum, world units
	velocity mgl32.Vec3 // summed velocity channels
	gradient mgl32.Vec3 // central-difference density gradient at the agent's voxel
}

// sense samples a 3x3x3 stencil spaced sense voxels apart plus the six
// immediate neighbours. Coordinates wrap with the toroidal world.
func sense(g *field.Grid, cx, cy, cz, dist int, scale mgl32.Vec3) sensed {
	var s sensed
	span := 1
	if dist == 0 {
		span = 0
	}
	for oz := -span; oz <= span; oz++ {
		for oy := -span; oy <= span; oy++ {
			for ox := -span; ox <= span; ox++ {
				v := at(g, cx+ox*dist, cy+oy*dist, cz+oz*dist)
				rho := v[field.ChDensity]
				if rho == 0 {
					continue
				}
				off := mgl32.Vec3{
					float32(ox*dist) * scale[0],
					float32(oy*dist) * scale[1],
					float32(oz*dist) * scale[2],
				}
				s.mass += rho
				s.centroid = s.centroid.Add(off.Mul(rho))
				s.velocity = s.velocity.Add(mgl32.Vec3{v[field.ChVelX], v[field.ChVelY], v[field.ChVelZ]})
			}
		}
	}

	s.gradient = mgl32.Vec3{
		(at(g, cx+1, cy, cz)[field.ChDensity] - at(g, cx-1, cy, cz)[field.ChDensity]) / (2 * scale[0]),
		(at(g, cx, cy+1, cz)[field.ChDensity] - at(g, cx, cy-1, cz)[field.ChDensity]) / (2 * scale[1]),
		(at(g, cx, cy, cz+1)[field.ChDensity] - at(g, cx, cy, cz-1)[field.ChDensity]) / (2 * scale[2]),
	}
	return s
}

// at reads a voxel with wrapped coordinates.
func at(g *field.Grid, x, y, z int) field.Value {
	return g.At(wrapIndex(x, g.W), wrapIndex(y, g.H), wrapIndex(z, g.D))
}

func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// seek returns the steering force that turns v toward d at full speed.
func seek(d, v mgl32.Vec3, maxSpeed float32) mgl32.Vec3 {
	l := d.Len()
	if l < seekEpsilon {
		return mgl32.Vec3{}
	}
	return d.Mul(maxSpeed / l).Sub(v)
}

// clampLen scales v down to length m if longer.
func clampLen(v mgl32.Vec3, m float32) mgl32.Vec3 {
	l := v.Len()
	if l > m && l > 0 {
		return v.Mul(m / l)
	}
	return v
}

// steer computes the clamped acceleration for an agent at p moving at v.
func (fp *flockParams) steer(s sensed, p, v mgl32.Vec3) mgl32.Vec3 {
	var a mgl32.Vec3
	if s.mass > 0 {
		if fp.cohesion != 0 {
			a = a.Add(seek(s.centroid.Mul(1/s.mass), v, fp.maxSpeed).Mul(fp.cohesion))
		}
		if fp.direction && fp.alignment != 0 {
			a = a.Add(seek(s.velocity.Mul(1/s.mass), v, fp.maxSpeed).Mul(fp.alignment))
		}
	}
	if fp.avoidance != 0 {
		a = a.Add(seek(s.gradient.Mul(-1), v, fp.maxSpeed).Mul(fp.avoidance))
	}
	if fp.center != 0 {
		a = a.Add(seek(fp.centre.Sub(p), v, fp.maxSpeed).Mul(fp.center))
	}
	return clampLen(a, fp.maxForce)
}

// updateRange integrates agents [lo, hi) against the diffused field g.
// Each agent reads only g and its own slots, so ranges are independent.
func updateRange(fp *flockParams, g *field.Grid, x, y, z, vx, vy, vz []float32, lo, hi int) {
	scale := mgl32.Vec3{
		fp.world[0] / float32(g.W),
		fp.world[1] / float32(g.H),
		fp.world[2] / float32(g.D),
	}
	for i := lo; i < hi; i++ {
		p := mgl32.Vec3{x[i], y[i], z[i]}
		v := mgl32.Vec3{vx[i], vy[i], vz[i]}

		cx, okx := field.VoxelOf(p[0], fp.world[0], g.W)
		cy, oky := field.VoxelOf(p[1], fp.world[1], g.H)
		cz, okz := field.VoxelOf(p[2], fp.world[2], g.D)
		if !okx || !oky || !okz {
			// non-finite agents stay frozen and are skipped by deposit
			continue
		}

		a := fp.steer(sense(g, cx, cy, cz, fp.sense, scale), p, v)
		v = clampLen(v.Add(a.Mul(fp.step)), fp.maxSpeed)
		p = p.Add(v)

		x[i] = field.Wrap(p[0], fp.world[0])
		y[i] = field.Wrap(p[1], fp.world[1])
		z[i] = field.Wrap(p[2], fp.world[2])
		vx[i], vy[i], vz[i] = v[0], v[1], v[2]
	}
}
