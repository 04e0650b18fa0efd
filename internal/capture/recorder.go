package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/satindergrewal/fryreel/internal/audio"
	"github.com/satindergrewal/fryreel/internal/mkv"
)

// Artifact is a finished recording.
type Artifact struct {
	Format    Format
	Data      []byte
	Duration  time.Duration
	Frames    int
	Chunks    int
	Poster    []byte // PNG, optional
	CreatedAt time.Time
}

// Size returns the encoded byte count.
func (a Artifact) Size() int {
	return len(a.Data)
}

// Recorder combines one video track and one audio track into a container.
// Frames are stamped at a constant rate; chunks are kept in arrival order.
type Recorder struct {
	format Format
	opts   Options
	enc    Encoder
	chunks ChunkBuffer

	mu       sync.Mutex
	frames   int
	samples  int64 // per channel
	stopping bool

	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// Open starts recording in format f.
func Open(ctx context.Context, opts Options, f Format) (*Recorder, error) {
	return OpenWith(ctx, opts, f, NewEncoder(f, opts))
}

// OpenWith starts recording through a specific encoder.
func OpenWith(ctx context.Context, opts Options, f Format, enc Encoder) (*Recorder, error) {
	r := &Recorder{
		format: f,
		opts:   opts,
		enc:    enc,
		done:   make(chan struct{}),
	}
	if err := enc.Start(ctx, r.chunks.Append); err != nil {
		return nil, fmt.Errorf("start %s encoder: %w", f.Name, err)
	}
	log.Printf("Recording %s %dx%d@%dfps (%s)", f.Name, opts.Width, opts.Height, opts.FrameRate, f.MimeType)
	return r, nil
}

// Frames returns how many video frames were written.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// WriteVideo captures the current surface as the next frame.
func (r *Recorder) WriteVideo(frame *image.RGBA) error {
	r.mu.Lock()
	if r.stopping {
		r.mu.Unlock()
		return ErrStopped
	}
	pts := time.Duration(r.frames) * r.opts.FrameInterval()
	r.frames++
	r.mu.Unlock()
	return r.enc.WriteVideo(frame, pts)
}

// WriteVideoUntil writes frame as often as needed for the video track to
// reach elapsed, and at least once. Ticks the clock skipped under load are
// filled with the current frame so video keeps pace with audio.
func (r *Recorder) WriteVideoUntil(frame *image.RGBA, elapsed time.Duration) error {
	interval := r.opts.FrameInterval()
	target := int((elapsed + interval/2) / interval)
	r.mu.Lock()
	n := max(1, target-r.frames)
	r.mu.Unlock()
	for range n {
		if err := r.WriteVideo(frame); err != nil {
			return err
		}
	}
	return nil
}

// WriteAudio captures interleaved PCM following what was written before.
func (r *Recorder) WriteAudio(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	r.mu.Lock()
	if r.stopping {
		r.mu.Unlock()
		return ErrStopped
	}
	pts := audio.DurationOf(r.samples)
	r.samples += int64(len(samples) / r.opts.Channels)
	r.mu.Unlock()
	if !r.format.HasAudio() {
		return nil
	}
	return r.enc.WriteAudio(samples, pts)
}

// Stop signals end of stream. The returned channel closes once the encoder
// has flushed its final chunk. Calling Stop again returns the same channel.
func (r *Recorder) Stop() <-chan struct{} {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopping = true
		r.mu.Unlock()
		go func() {
			err := r.enc.Finish()
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			close(r.done)
		}()
	})
	return r.done
}

// Err returns the encoder's error after the stop acknowledgment.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// StopTracks releases the inputs.
func (r *Recorder) StopTracks() error {
	return r.enc.Close()
}

// Artifact concatenates the chunks into the finished recording.
func (r *Recorder) Artifact() (Artifact, error) {
	select {
	case <-r.done:
	default:
		return Artifact{}, ErrNotFinished
	}
	if err := r.Err(); err != nil {
		return Artifact{}, err
	}

	data := r.chunks.Bytes()
	art := Artifact{
		Format:    r.format,
		Data:      data,
		Frames:    r.Frames(),
		Chunks:    r.chunks.Len(),
		CreatedAt: time.Now(),
	}
	info, err := mkv.Inspect(bytes.NewReader(data))
	if err != nil || info.Duration == 0 {
		log.Printf("Could not read duration from %s output (%v), using frame count", r.format.Name, err)
		art.Duration = time.Duration(art.Frames) * r.opts.FrameInterval()
	} else {
		art.Duration = info.Duration
	}
	return art, nil
}
