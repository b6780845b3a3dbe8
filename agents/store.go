// Package agents holds the agent arena: flat per-component arrays for a fixed
// number of slots, of which the first Active() take part in each frame.
package agents

import (
	"fmt"
	"math"
	"math/rand"
)

// Vec3 is a position or velocity triple.
type Vec3 struct {
	X, Y, Z float32
}

// Store is the Agent Store. Slot indices are stable for the process lifetime;
// slots are never added or removed after New, only their motion state changes.
type Store struct {
	// Position components in world units
	X, Y, Z []float32
	// Velocity components in world units per frame
	VX, VY, VZ []float32

	capacity int
	active   int
}

// New allocates capacity slots, all at the origin with zero velocity.
func New(capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("agents: capacity must be positive, got %d", capacity)
	}
	return &Store{
		X:        make([]float32, capacity),
		Y:        make([]float32, capacity),
		Z:        make([]float32, capacity),
		VX:       make([]float32, capacity),
		VY:       make([]float32, capacity),
		VZ:       make([]float32, capacity),
		capacity: capacity,
	}, nil
}

// Cap returns N_max.
func (s *Store) Cap() int { return s.capacity }

// Active returns the number of slots taking part in the current frame.
func (s *Store) Active() int { return s.active }

// SetActive sets active_count, clamped to [0, Cap()], and returns the applied value.
// The pipeline latches this at frame start; callers outside a frame may use it directly.
func (s *Store) SetActive(n int) int {
	s.active = max(0, min(n, s.capacity))
	return s.active
}

// Pos returns the position of slot i.
func (s *Store) Pos(i int) Vec3 {
	return Vec3{s.X[i], s.Y[i], s.Z[i]}
}

// Vel returns the velocity of slot i.
func (s *Store) Vel(i int) Vec3 {
	return Vec3{s.VX[i], s.VY[i], s.VZ[i]}
}

// Set overwrites the motion state of slot i.
func (s *Store) Set(i int, pos, vel Vec3) {
	s.X[i], s.Y[i], s.Z[i] = pos.X, pos.Y, pos.Z
	s.VX[i], s.VY[i], s.VZ[i] = vel.X, vel.Y, vel.Z
}

// Seed scatters every slot uniformly through the world with a random unit velocity.
// Direction is drawn from uniform azimuth in [0, 2pi) and polar in [0, pi).
func (s *Store) Seed(rng *rand.Rand, w, h, d float32) {
	for i := 0; i < s.capacity; i++ {
		s.X[i] = rng.Float32() * w
		s.Y[i] = rng.Float32() * h
		s.Z[i] = rng.Float32() * d

		azimuth := rng.Float64() * 2 * math.Pi
		polar := rng.Float64() * math.Pi
		s.VX[i] = float32(math.Sin(azimuth) * math.Sin(polar))
		s.VY[i] = float32(math.Cos(polar))
		s.VZ[i] = float32(math.Cos(azimuth) * math.Sin(polar))
	}
}

// Buffers returns the six component arrays in binding order (x, y, z, vx, vy, vz).
func (s *Store) Buffers() [6][]float32 {
	return [6][]float32{s.X, s.Y, s.Z, s.VX, s.VY, s.VZ}
}

// Clone returns a deep copy. Used by tests and telemetry to compare frames.
func (s *Store) Clone() *Store {
	c := &Store{capacity: s.capacity, active: s.active}
	c.X = append([]float32(nil), s.X...)
	c.Y = append([]float32(nil), s.Y...)
	c.Z = append([]float32(nil), s.Z...)
	c.VX = append([]float32(nil), s.VX...)
	c.VY = append([]float32(nil), s.VY...)
	c.VZ = append([]float32(nil), s.VZ...)
	return c
}
