package particles

import (
	"math"
	"math/rand/v2"
	"testing"
)

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestNewRanges(t *testing.T) {
	const w, h = 1280, 720
	f := New(w, h, 500, newRand())
	if len(f.Particles) != 500 {
		t.Fatalf("len = %d, want 500", len(f.Particles))
	}
	for i, p := range f.Particles {
		check := func(name string, v, lo, hi float64) {
			if v < lo || v >= hi {
				t.Errorf("particle %d %s = %v, want [%v, %v)", i, name, v, lo, hi)
			}
		}
		check("x", p.X, 0, w)
		check("y", p.Y, -h, 0)
		check("speed", p.Speed, MinSpeed, MaxSpeed)
		check("rotation", p.Rotation, 0, 2*math.Pi)
		check("size", p.Size, MinSize, MaxSize)
		check("sway", p.Sway, MinSway, MaxSway)
	}
}

func TestAdvanceMovesBySpeed(t *testing.T) {
	f := New(100, 100, 1, newRand())
	f.Particles[0] = Particle{X: 10, Y: -50, Speed: 100}
	f.Advance(0.1)
	if got := f.Particles[0].Y; math.Abs(got-(-40)) > 1e-9 {
		t.Errorf("Y = %v, want -40", got)
	}
	if f.Particles[0].X != 10 {
		t.Errorf("X changed without respawn: %v", f.Particles[0].X)
	}
}

func TestAdvanceRespawnsPastBottom(t *testing.T) {
	const w, h = 640, 360
	f := New(w, h, 1, newRand())

	// Exactly at the margin: no respawn.
	f.Particles[0] = Particle{X: 5, Y: h + RespawnMargin, Speed: 100}
	f.Advance(0)
	if f.Particles[0].Y != h+RespawnMargin {
		t.Errorf("respawned at the margin: Y = %v", f.Particles[0].Y)
	}

	for i := 0; i < 200; i++ {
		f.Particles[0] = Particle{X: 5, Y: h + RespawnMargin - 1, Speed: 100}
		f.Advance(0.05)
		p := f.Particles[0]
		if p.Y < -h*0.6-RespawnMargin || p.Y >= -RespawnMargin {
			t.Fatalf("respawn Y = %v, want [%v, %v)", p.Y, -h*0.6-RespawnMargin, -RespawnMargin)
		}
		if p.X < 0 || p.X >= w {
			t.Fatalf("respawn X = %v, want [0, %v)", p.X, w)
		}
	}
}

func TestAdvanceKeepsBound(t *testing.T) {
	const w, h = 1280, 720
	f := New(w, h, 80, newRand())
	for step := 0; step < 1000; step++ {
		f.Advance(ClampDelta(0.5))
		for i, p := range f.Particles {
			if p.Y > h+RespawnMargin {
				t.Fatalf("step %d particle %d Y = %v beyond %v", step, i, p.Y, h+RespawnMargin)
			}
		}
	}
}

func TestClampDelta(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.033, 0.033},
		{0.1, 0.1},
		{2.5, 0.1},
	}
	for _, tt := range tests {
		if got := ClampDelta(tt.in); got != tt.want {
			t.Errorf("ClampDelta(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	a := New(100, 100, 10, rand.New(rand.NewPCG(7, 7)))
	b := New(100, 100, 10, rand.New(rand.NewPCG(7, 7)))
	for i := range a.Particles {
		if a.Particles[i] != b.Particles[i] {
			t.Fatalf("particle %d differs with the same seed", i)
		}
	}
}
