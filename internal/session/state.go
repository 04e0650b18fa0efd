// Package session runs one recording from an empty surface to a published
// artifact.
package session

import (
	"time"

	"github.com/satindergrewal/fryreel/internal/particles"
)

// Phase is where a run is in its lifecycle.
type Phase int

const (
	Idle Phase = iota
	Rendering
	Finalizing
	Ready
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Rendering:
		return "rendering"
	case Finalizing:
		return "finalizing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Status is the human-readable line shown next to the controls.
func (p Phase) Status() string {
	switch p {
	case Rendering, Finalizing:
		return "rendering…"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	}
	return ""
}

// Busy reports whether the start control is disabled.
func (p Phase) Busy() bool {
	return p == Rendering || p == Finalizing
}

// State is the animation state advanced by each tick.
type State struct {
	Elapsed  time.Duration
	Duration time.Duration
	Width    int
	Height   int
	Field    *particles.Field
	Notes    int // notes triggered so far
	Voices   int // notes still sounding
}

// Progress is elapsed/duration capped at 1.
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(1, float64(s.Elapsed)/float64(s.Duration))
}

// Snapshot is a copy of the controller state for readers.
type Snapshot struct {
	Phase    Phase
	Status   string
	Progress float64
	Ticks    int
	Notes    int
	Voices   int
	Format   string
	Handle   *Handle
}
