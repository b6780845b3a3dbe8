package field

import "fmt"

// PingPong owns the two diffusion grids and the one-bit selector saying which
// of them was written last. Stages read Current and write Next, then Flip.
type PingPong struct {
	grids [2]*Grid
	cur   int
	flips int
}

// NewPingPong pairs two same-shaped, distinct grids. a starts as current.
func NewPingPong(a, b *Grid) (*PingPong, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("field: ping-pong needs two grids")
	}
	if a == b {
		return nil, fmt.Errorf("field: ping-pong grids must be distinct")
	}
	if !a.SameShape(b) {
		return nil, fmt.Errorf("field: ping-pong shape mismatch %dx%dx%d vs %dx%dx%d", a.W, a.H, a.D, b.W, b.H, b.D)
	}
	return &PingPong{grids: [2]*Grid{a, b}}, nil
}

// Current is the most recently written grid.
func (p *PingPong) Current() *Grid { return p.grids[p.cur] }

// Next is the grid the next stage writes.
func (p *PingPong) Next() *Grid { return p.grids[1-p.cur] }

// A and B return the fixed handles regardless of the selector.
func (p *PingPong) A() *Grid { return p.grids[0] }
func (p *PingPong) B() *Grid { return p.grids[1] }

// Flip makes Next current.
func (p *PingPong) Flip() {
	p.cur = 1 - p.cur
	p.flips++
}

// Flips returns how many times the selector has toggled.
func (p *PingPong) Flips() int { return p.flips }

// Reset makes A current again without touching grid contents.
func (p *PingPong) Reset() {
	p.cur = 0
	p.flips = 0
}
