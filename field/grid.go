// Package field provides the voxel grids agents deposit into and sense from,
// and the per-voxel kernels that age and smooth them.
package field

import (
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"github.com/shirou/gopsutil/v3/mem"
	"gonum.org/v1/gonum/blas/blas32"
)

// Channels per voxel: density followed by the summed velocity (x, y, z).
const Channels = 4

// Channel offsets within a voxel.
const (
	ChDensity = 0
	ChVelX    = 1
	ChVelY    = 2
	ChVelZ    = 3
)

// Value is one voxel's four channels.
type Value [Channels]float32

// Grid is a dense W x H x D voxel grid, x-fastest, four float32 channels per voxel.
type Grid struct {
	W, H, D int
	Data    []float32

	name string
}

// NewGrid allocates a zeroed grid.
func NewGrid(name string, w, h, d int) (*Grid, error) {
	if w < 1 || h < 1 || d < 1 {
		return nil, fmt.Errorf("field: grid %s: dimensions must be positive, got %dx%dx%d", name, w, h, d)
	}
	n := w * h * d * Channels
	if n/Channels/w/h != d {
		return nil, fmt.Errorf("field: grid %s: %dx%dx%d overflows", name, w, h, d)
	}
	return &Grid{W: w, H: h, D: d, Data: make([]float32, n), name: name}, nil
}

// Name identifies the grid in bindings and logs.
func (g *Grid) Name() string { return g.name }

// Voxels returns W*H*D.
func (g *Grid) Voxels() int { return g.W * g.H * g.D }

// Bytes returns the size of the backing array.
func (g *Grid) Bytes() uint64 { return uint64(len(g.Data)) * 4 }

// SameShape reports whether o has identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return g.W == o.W && g.H == o.H && g.D == o.D
}

// Index returns the voxel index of (x, y, z). Coordinates must be in range.
func (g *Grid) Index(x, y, z int) int {
	return (z*g.H+y)*g.W + x
}

// Coords is the inverse of Index.
func (g *Grid) Coords(v int) (x, y, z int) {
	x = v % g.W
	v /= g.W
	return x, v % g.H, v / g.H
}

// At returns the value at (x, y, z).
func (g *Grid) At(x, y, z int) Value {
	o := g.Index(x, y, z) * Channels
	return Value(g.Data[o : o+Channels])
}

// Set overwrites the value at (x, y, z).
func (g *Grid) Set(x, y, z int, v Value) {
	o := g.Index(x, y, z) * Channels
	copy(g.Data[o:o+Channels], v[:])
}

// Add accumulates v into (x, y, z). Safe for concurrent use.
func (g *Grid) Add(x, y, z int, v Value) {
	o := g.Index(x, y, z) * Channels
	for c := range Channels {
		if v[c] != 0 {
			g.add(o+c, v[c])
		}
	}
}

// Clear zeroes every voxel.
func (g *Grid) Clear() {
	clear(g.Data)
}

// ClearRange zeroes voxels [lo, hi).
func (g *Grid) ClearRange(lo, hi int) {
	clear(g.Data[lo*Channels : hi*Channels])
}

// Mass returns the total density (channel 0) over the grid.
func (g *Grid) Mass() float64 {
	return float64(blas32.Asum(g.channel(ChDensity)))
}

// Sum returns per-channel totals, accumulated in float64.
func (g *Grid) Sum() [Channels]float64 {
	var s [Channels]float64
	for i, v := range g.Data {
		s[i%Channels] += float64(v)
	}
	return s
}

// channel returns a strided view of one channel.
func (g *Grid) channel(c int) blas32.Vector {
	return blas32.Vector{N: g.Voxels(), Inc: Channels, Data: g.Data[c:]}
}

// add accumulates delta into the float at g.Data[i] with a CAS loop,
// so concurrent deposits into the same voxel never lose an update.
func (g *Grid) add(i int, delta float32) {
	p := (*uint32)(unsafe.Pointer(&g.Data[i]))
	for {
		old := atomic.LoadUint32(p)
		next := math.Float32bits(math.Float32frombits(old) + delta)
		if atomic.CompareAndSwapUint32(p, old, next) {
			return
		}
	}
}

// CheckMemory fails if the host cannot provide need bytes. Grids are allocated
// once at startup and there is no degraded mode, so this runs before the first make.
func CheckMemory(need uint64) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// No host stats (sandboxed); let the allocation itself decide.
		return nil
	}
	if need > vm.Available {
		return fmt.Errorf("field: need %d MiB for grids, host has %d MiB available", need>>20, vm.Available>>20)
	}
	return nil
}

// GridBytes returns the allocation size of one w x h x d grid.
func GridBytes(w, h, d int) uint64 {
	return uint64(w) * uint64(h) * uint64(d) * Channels * 4
}
