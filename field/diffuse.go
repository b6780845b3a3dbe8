package field

import "fmt"

// Axis selects the direction of a 1-D diffusion stage.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// Edge is the boundary policy for taps falling outside the grid.
type Edge int

const (
	// EdgeWrap reads the opposite side (toroidal). Conserves mass exactly.
	EdgeWrap Edge = iota
	// EdgeZero treats outside taps as zero. Mass leaks through the border.
	EdgeZero
)

// ParseEdge converts a config string to an Edge.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "wrap":
		return EdgeWrap, nil
	case "zero":
		return EdgeZero, nil
	}
	return 0, fmt.Errorf("field: unknown edge policy %q", s)
}

// DiffuseRange convolves src with k along axis and writes voxels [lo, hi) of dst.
// dst must not alias src: every output voxel reads 2*Radius+1 input voxels.
func DiffuseRange(dst, src *Grid, axis Axis, k Kernel, edge Edge, lo, hi int) {
	w, h := src.W, src.H
	var n, stride int
	switch axis {
	case AxisX:
		n, stride = src.W, 1
	case AxisY:
		n, stride = src.H, w
	case AxisZ:
		n, stride = src.D, w*h
	}
	r := k.Radius

	for v := lo; v < hi; v++ {
		var c int
		switch axis {
		case AxisX:
			c = v % w
		case AxisY:
			c = (v / w) % h
		case AxisZ:
			c = v / (w * h)
		}
		base := v - c*stride

		var acc Value
		for t := -r; t <= r; t++ {
			cc := c + t
			if cc < 0 || cc >= n {
				if edge == EdgeZero {
					continue
				}
				cc = ((cc % n) + n) % n
			}
			wt := k.Weights[t+r]
			o := (base + cc*stride) * Channels
			acc[0] += wt * src.Data[o]
			acc[1] += wt * src.Data[o+1]
			acc[2] += wt * src.Data[o+2]
			acc[3] += wt * src.Data[o+3]
		}
		o := v * Channels
		dst.Data[o] = acc[0]
		dst.Data[o+1] = acc[1]
		dst.Data[o+2] = acc[2]
		dst.Data[o+3] = acc[3]
	}
}

// Diffuse runs one full stage single-threaded.
func Diffuse(dst, src *Grid, axis Axis, k Kernel, edge Edge) {
	DiffuseRange(dst, src, axis, k, edge, 0, src.Voxels())
}
