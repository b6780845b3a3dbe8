// Package renderer provides the CPU render targets: an additive float RGBA
// image agents splat into, the volume ray-marcher, and RGBA8 tone mapping
// for texture upload.
package renderer

import (
	"fmt"
	"image/color"
	"math"
	"sync/atomic"
	"unsafe"
)

// Image is a W x H float RGBA accumulation buffer, row-major, top row first.
type Image struct {
	W, H int
	Pix  []float32 // 4 floats per pixel
}

// NewImage allocates a cleared image.
func NewImage(w, h int) (*Image, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("renderer: image dimensions must be positive, got %dx%d", w, h)
	}
	return &Image{W: w, H: h, Pix: make([]float32, w*h*4)}, nil
}

// Pixels returns W*H.
func (m *Image) Pixels() int { return m.W * m.H }

// Clear zeroes every pixel.
func (m *Image) Clear() { clear(m.Pix) }

// ClearRange zeroes pixels [lo, hi).
func (m *Image) ClearRange(lo, hi int) { clear(m.Pix[lo*4 : hi*4]) }

// At returns the RGBA value at (x, y).
func (m *Image) At(x, y int) [4]float32 {
	o := (y*m.W + x) * 4
	return [4]float32(m.Pix[o : o+4])
}

// Total returns the per-channel sum over the image.
func (m *Image) Total() [4]float64 {
	var s [4]float64
	for i, v := range m.Pix {
		s[i&3] += float64(v)
	}
	return s
}

// AddPixel accumulates c at (x, y). Out-of-range pixels are ignored.
// Safe for concurrent use.
func (m *Image) AddPixel(x, y int, c [4]float32) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	o := (y*m.W + x) * 4
	for i, v := range c {
		if v != 0 {
			atomicAdd(&m.Pix[o+i], v)
		}
	}
}

// ToRGBA8 tone maps into dst with 1-exp(-x) per colour channel.
// dst must hold at least W*H pixels.
func (m *Image) ToRGBA8(dst []color.RGBA) {
	m.ToRGBA8Range(dst, 0, m.Pixels())
}

// ToRGBA8Range tone maps pixels [lo, hi).
func (m *Image) ToRGBA8Range(dst []color.RGBA, lo, hi int) {
	for i := lo; i < hi; i++ {
		o := i * 4
		dst[i] = color.RGBA{
			R: tone(m.Pix[o]),
			G: tone(m.Pix[o+1]),
			B: tone(m.Pix[o+2]),
			A: 255,
		}
	}
}

func tone(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	t := 1 - math.Exp(-float64(v))
	return uint8(t*255 + 0.5)
}

// atomicAdd adds delta to *p with a CAS loop on the float's bit pattern.
func atomicAdd(p *float32, delta float32) {
	u := (*uint32)(unsafe.Pointer(p))
	for {
		old := atomic.LoadUint32(u)
		next := math.Float32bits(math.Float32frombits(old) + delta)
		if atomic.CompareAndSwapUint32(u, old, next) {
			return
		}
	}
}
