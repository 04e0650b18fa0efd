// Package particles holds the falling sprites that decorate every frame.
package particles

import (
	"math"
	"math/rand/v2"
)

const (
	MinSpeed = 80.0  // units per second
	MaxSpeed = 240.0
	MinSize  = 28.0
	MaxSize  = 50.0
	MinSway  = 0.3
	MaxSway  = 1.8

	// RespawnMargin is how far past the bottom edge a particle falls before
	// it is sent back above the frame.
	RespawnMargin = 40.0
	// MaxDelta bounds a single integration step, in seconds.
	MaxDelta = 0.1
)

// Particle is one falling sprite. It has no identity beyond its slot.
type Particle struct {
	X, Y     float64
	Speed    float64
	Rotation float64
	Size     float64
	Sway     float64
}

// Field is a fixed-size set of particles over a width x height area.
type Field struct {
	Width, Height float64
	Particles     []Particle
	rng           *rand.Rand
}

// New populates count particles starting above the frame. A nil rng uses a
// randomly seeded source.
func New(width, height, count int, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	f := &Field{
		Width:     float64(width),
		Height:    float64(height),
		Particles: make([]Particle, count),
		rng:       rng,
	}
	for i := range f.Particles {
		f.Particles[i] = Particle{
			X:        f.uniform(0, f.Width),
			Y:        f.uniform(-f.Height, 0),
			Speed:    f.uniform(MinSpeed, MaxSpeed),
			Rotation: f.uniform(0, 2*math.Pi),
			Size:     f.uniform(MinSize, MaxSize),
			Sway:     f.uniform(MinSway, MaxSway),
		}
	}
	return f
}

// Advance moves every particle down by speed*dt and respawns the ones that
// fell past the bottom margin.
func (f *Field) Advance(dt float64) {
	limit := f.Height + RespawnMargin
	for i := range f.Particles {
		p := &f.Particles[i]
		p.Y += p.Speed * dt
		if p.Y > limit {
			p.Y = f.uniform(-f.Height*0.6-RespawnMargin, -RespawnMargin)
			p.X = f.uniform(0, f.Width)
		}
	}
}

// uniform returns a value in [lo, hi).
func (f *Field) uniform(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}

// ClampDelta bounds a frame delta to [0, MaxDelta] seconds so a stalled
// clock cannot teleport particles.
func ClampDelta(dt float64) float64 {
	if dt < 0 {
		return 0
	}
	return math.Min(dt, MaxDelta)
}
