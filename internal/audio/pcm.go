package audio

import "encoding/binary"

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// clip converts a float sample in [-1, 1] to int16, saturating outside that range.
func clip(v float64) int16 {
	v *= 32767
	if v > 32767 {
		return 32767
	} else if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Framer regroups arbitrary-length interleaved PCM into fixed 20ms frames.
type Framer struct {
	pending []int16
}

// Write appends samples and calls emit for every complete frame. The slice
// passed to emit is owned by the callee.
func (f *Framer) Write(samples []int16, emit func([]int16)) {
	f.pending = append(f.pending, samples...)
	for len(f.pending) >= FrameSamples {
		frame := make([]int16, FrameSamples)
		copy(frame, f.pending[:FrameSamples])
		f.pending = f.pending[FrameSamples:]
		emit(frame)
	}
}

