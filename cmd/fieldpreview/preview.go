package main

import (
	"fmt"
	"image/color"

	"github.com/pthm-cable/voxelboids/field"
)

// Params holds the tunable field parameters.
type Params struct {
	KernelRadius int
	Decay        float32
	ZeroEdge     bool
	Impulse      float32 // density injected at the centre on reset
}

// DefaultParams uses the default kernel and edge with a slow decay so the impulse fades visibly.
func DefaultParams() Params {
	return Params{KernelRadius: 1, Decay: 0.001, Impulse: 1000}
}

// preview runs decay and three-axis diffusion on a cube grid, standalone.
type preview struct {
	n      int
	pp     *field.PingPong
	kernel field.Kernel
	radius int
	steps  int
}

func newPreview(n int) (*preview, error) {
	a, err := field.NewGrid("a", n, n, n)
	if err != nil {
		return nil, err
	}
	b, err := field.NewGrid("b", n, n, n)
	if err != nil {
		return nil, err
	}
	pp, err := field.NewPingPong(a, b)
	if err != nil {
		return nil, err
	}
	return &preview{n: n, pp: pp}, nil
}

// reset clears both grids and injects a single impulse at the centre.
func (p *preview) reset(params Params) {
	p.pp.A().Clear()
	p.pp.B().Clear()
	p.pp.Reset()
	c := p.n / 2
	p.pp.Current().Set(c, c, c, field.Value{params.Impulse})
	p.steps = 0
}

// step applies one frame's decay and diffusion.
func (p *preview) step(params Params) error {
	if p.radius != params.KernelRadius {
		k, err := field.NewKernel(params.KernelRadius)
		if err != nil {
			return err
		}
		p.kernel, p.radius = k, params.KernelRadius
	}
	edge := field.EdgeWrap
	if params.ZeroEdge {
		edge = field.EdgeZero
	}

	field.Decay(p.pp.Current(), params.Decay)
	for _, axis := range []field.Axis{field.AxisX, field.AxisY, field.AxisZ} {
		field.Diffuse(p.pp.Next(), p.pp.Current(), axis, p.kernel, edge)
		p.pp.Flip()
	}
	p.steps++
	return nil
}

// slice renders the density of the centre z slice into dst, scaled by the slice peak.
// Returns mass and peak of the whole grid.
func (p *preview) slice(dst []color.RGBA) (mass float64, peak float32) {
	g := p.pp.Current()
	z := p.n / 2
	for i := 0; i < g.Voxels(); i++ {
		peak = max(peak, g.Data[i*field.Channels+field.ChDensity])
	}
	var slicePeak float32
	for y := 0; y < p.n; y++ {
		for x := 0; x < p.n; x++ {
			slicePeak = max(slicePeak, g.At(x, y, z)[field.ChDensity])
		}
	}
	for y := 0; y < p.n; y++ {
		for x := 0; x < p.n; x++ {
			var v float32
			if slicePeak > 0 {
				v = g.At(x, y, z)[field.ChDensity] / slicePeak
			}
			gray := uint8(v * 255)
			dst[y*p.n+x] = color.RGBA{R: gray, G: gray, B: gray, A: 255}
		}
	}
	return g.Mass(), peak
}

// yaml renders params as a field config fragment.
func (params Params) yaml() []string {
	edge := "wrap"
	if params.ZeroEdge {
		edge = "zero"
	}
	return []string{
		"field:",
		fmt.Sprintf("  kernel_radius: %d", params.KernelRadius),
		fmt.Sprintf("  edge: %s", edge),
		"view:",
		fmt.Sprintf("  decay: %.4f", params.Decay),
	}
}
