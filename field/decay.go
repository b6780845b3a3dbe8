package field

import "gonum.org/v1/gonum/blas/blas32"

// DecayRange writes src*(1-rate) into dst for voxels [lo, hi).
// dst and src may be the same grid (in-place attenuation).
// rate 1 zeroes the range exactly; rate 0 copies it unchanged.
func DecayRange(dst, src *Grid, rate float32, lo, hi int) {
	if hi <= lo {
		return
	}
	a, b := lo*Channels, hi*Channels
	n := b - a
	d := blas32.Vector{N: n, Inc: 1, Data: dst.Data[a:b]}
	if dst != src {
		blas32.Copy(blas32.Vector{N: n, Inc: 1, Data: src.Data[a:b]}, d)
	}
	if rate >= 1 {
		clear(dst.Data[a:b])
		return
	}
	blas32.Scal(1-rate, d)
}

// Decay attenuates an entire grid in place.
func Decay(g *Grid, rate float32) {
	DecayRange(g, g, rate, 0, g.Voxels())
}
