package capture

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/satindergrewal/fryreel/internal/audio"
)

var (
	// ErrStopped is returned when writing to a recorder after Stop.
	ErrStopped = errors.New("capture: recorder stopped")
	// ErrNotFinished is returned by Artifact before the stop acknowledgment.
	ErrNotFinished = errors.New("capture: recorder has not finished")
)

// Options configures a recording.
type Options struct {
	Width, Height int
	FrameRate     int
	VideoBitrate  int // bits per second
	AudioBitrate  int // bits per second, Opus formats only
	SampleRate    int
	Channels      int
	FFmpegPath    string
	JPEGQuality   int // built-in muxer only
}

// DefaultOptions is 1280x720 at 30 fps, 6 Mbit/s, with the mix bus format.
func DefaultOptions() Options {
	return Options{
		Width:        1280,
		Height:       720,
		FrameRate:    30,
		VideoBitrate: 6000000,
		AudioBitrate: 128000,
		SampleRate:   audio.SampleRate,
		Channels:     audio.Channels,
		FFmpegPath:   "ffmpeg",
		JPEGQuality:  85,
	}
}

// FrameInterval is the duration of one video frame.
func (o Options) FrameInterval() time.Duration {
	if o.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(o.FrameRate)
}

// Encoder turns raw tracks into container bytes.
type Encoder interface {
	// Start begins encoding; emit receives output chunks in order.
	Start(ctx context.Context, emit func(Chunk)) error
	// WriteVideo encodes one frame presented at pts.
	WriteVideo(frame *image.RGBA, pts time.Duration) error
	// WriteAudio encodes interleaved PCM starting at pts.
	WriteAudio(samples []int16, pts time.Duration) error
	// Finish signals end of stream and returns once the last chunk is emitted.
	Finish() error
	// Close abandons the stream and releases everything the encoder holds,
	// including any child process. It is safe to call more than once and
	// after Finish.
	Close() error
}

// NewEncoder returns the encoder that produces f.
func NewEncoder(f Format, opts Options) Encoder {
	if f.Container == "webm" {
		return newFFmpegEncoder(f, opts)
	}
	return newMatroskaEncoder(opts)
}
