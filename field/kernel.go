package field

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Kernel is a symmetric 1-D smoothing kernel shared by all three axes.
// Weights[k] applies to offset k-Radius.
type Kernel struct {
	Radius  int
	Weights []float32
}

// NewKernel builds a binomial kernel of the given radius normalised to sum 1.
// Radius 1 yields (1/4, 1/2, 1/4).
func NewKernel(radius int) (Kernel, error) {
	if radius < 1 {
		return Kernel{}, fmt.Errorf("field: kernel radius must be at least 1, got %d", radius)
	}
	n := 2*radius + 1
	w := make([]float64, n)
	// Row n-1 of Pascal's triangle
	w[0] = 1
	for k := 1; k < n; k++ {
		w[k] = w[k-1] * float64(n-k) / float64(k)
	}
	floats.Scale(1/floats.Sum(w), w)

	out := make([]float32, n)
	for i, v := range w {
		out[i] = float32(v)
	}
	return Kernel{Radius: radius, Weights: out}, nil
}

// Sum returns the total weight (1 within float32 rounding).
func (k Kernel) Sum() float32 {
	var s float32
	for _, w := range k.Weights {
		s += w
	}
	return s
}
