package audio

import (
	"sync"
	"time"
)

// Bus mixes voices into interleaved int16 PCM at a fixed master gain.
// Overlapping voices are summed, so decay tails of successive notes ring on.
type Bus struct {
	mu     sync.Mutex
	gain   float64
	voices []Voice
	pos    int64 // sample frames rendered so far
	closed bool
}

// NewBus creates a mix bus with the given master gain.
func NewBus(gain float64) *Bus {
	return &Bus{gain: gain}
}

// Add schedules a voice. Voices added after Close are ignored.
func (b *Bus) Add(v Voice) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.voices = append(b.voices, v)
}

// Active returns the number of voices that have not finished yet.
func (b *Bus) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.voices)
}

// RenderUntil renders every sample frame between the current position and t.
func (b *Bus) RenderUntil(t time.Duration) []int16 {
	b.mu.Lock()
	n := SamplesAt(t) - b.pos
	b.mu.Unlock()
	if n <= 0 {
		return nil
	}
	return b.Render(int(n))
}

// Render produces n sample frames of interleaved PCM and advances the position.
func (b *Bus) Render(n int) []int16 {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]int16, n*Channels)
	if b.closed {
		b.pos += int64(n)
		return out
	}

	for i := 0; i < n; i++ {
		now := float64(b.pos+int64(i)) / SampleRate
		mixed := 0.0
		for _, v := range b.voices {
			start := v.Start.Seconds()
			if now < start || now >= v.End().Seconds() {
				continue
			}
			mixed += v.Sample(now - start)
		}
		s := clip(mixed * b.gain)
		for ch := 0; ch < Channels; ch++ {
			out[i*Channels+ch] = s
		}
	}
	b.pos += int64(n)

	// Drop voices whose oscillator has stopped.
	end := DurationOf(b.pos)
	live := b.voices[:0]
	for _, v := range b.voices {
		if v.End() > end {
			live = append(live, v)
		}
	}
	b.voices = live
	return out
}

// Close silences the bus. Later renders return silence.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.voices = nil
	return nil
}
