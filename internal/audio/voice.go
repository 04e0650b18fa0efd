package audio

import (
	"math"
	"time"
)

// Voice is one enveloped triangle tone placed on the bus timeline.
type Voice struct {
	Freq   float64
	Start  time.Duration
	Length time.Duration // time at which the envelope reaches FloorGain
}

// End is when the oscillator stops.
func (v Voice) End() time.Duration {
	return v.Start + v.Length + StopTail
}

// Envelope returns the gain t seconds after the voice starts: a linear ramp
// to PeakGain over Attack, then an exponential ramp to FloorGain at Length,
// held there until the oscillator stops.
func (v Voice) Envelope(t float64) float64 {
	attack := Attack.Seconds()
	length := v.Length.Seconds()
	switch {
	case t < 0:
		return 0
	case t < attack:
		return PeakGain * t / attack
	case t < length && length > attack:
		p := (t - attack) / (length - attack)
		return PeakGain * math.Pow(FloorGain/PeakGain, p)
	case t < (v.Length + StopTail).Seconds():
		return FloorGain
	default:
		return 0
	}
}

// Sample returns the enveloped oscillator output t seconds after start.
func (v Voice) Sample(t float64) float64 {
	return Triangle(v.Freq*t) * v.Envelope(t)
}

// Triangle is a unit triangle wave starting at zero and rising; phase is in cycles.
func Triangle(phase float64) float64 {
	p := phase + 0.25
	p -= math.Floor(p)
	return 1 - 4*math.Abs(p-0.5)
}
