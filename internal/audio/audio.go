package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	BitDepth      = 16
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// Arpeggio timing and levels.
const (
	NotePeriod = 250 * time.Millisecond // one note per period
	NoteLength = NotePeriod             // envelope reaches its floor here
	Attack     = 20 * time.Millisecond
	StopTail   = 20 * time.Millisecond // oscillator stops this long after NoteLength
	PeakGain   = 0.9
	FloorGain  = 0.001
	MasterGain = 0.15
)

// NoteCycle is the C major arpeggio played round-robin (Hz).
var NoteCycle = []float64{261.63, 329.63, 392.00, 523.25}

// Note returns the frequency of the n-th note of the cycle.
func Note(n int) float64 {
	i := n % len(NoteCycle)
	if i < 0 {
		i += len(NoteCycle)
	}
	return NoteCycle[i]
}

// SamplesAt returns the number of sample frames (per channel) covering d.
func SamplesAt(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d) * SampleRate / int64(time.Second)
}

// DurationOf returns the play time of n sample frames.
func DurationOf(n int64) time.Duration {
	return time.Duration(n * int64(time.Second) / SampleRate)
}
