package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"github.com/at-wat/ebml-go/mkvcore"

	"github.com/satindergrewal/fryreel/internal/audio"
	"github.com/satindergrewal/fryreel/internal/mkv"
)

const (
	videoTrack = 1
	audioTrack = 2
	muxingApp  = "fryreel"
)

// matroskaEncoder is the built-in muxer: every video frame becomes a JPEG
// keyframe and every audio write a PCM block, both stamped in milliseconds.
type matroskaEncoder struct {
	opts Options

	mu      sync.Mutex
	video   mkvcore.BlockWriteCloser
	audio   mkvcore.BlockWriteCloser
	out     *chunkWriter
	closed  bool
	jpegBuf bytes.Buffer
}

func newMatroskaEncoder(opts Options) *matroskaEncoder {
	return &matroskaEncoder{opts: opts}
}

func (m *matroskaEncoder) tracks() []mkv.TrackEntry {
	return []mkv.TrackEntry{
		{
			Name:            "Video",
			TrackNumber:     videoTrack,
			TrackUID:        videoTrack,
			TrackType:       mkv.TrackVideo,
			CodecID:         "V_MJPEG",
			DefaultDuration: uint64(m.opts.FrameInterval()),
			Video: &mkv.Video{
				PixelWidth:  uint64(m.opts.Width),
				PixelHeight: uint64(m.opts.Height),
			},
		},
		{
			Name:        "Audio",
			TrackNumber: audioTrack,
			TrackUID:    audioTrack,
			TrackType:   mkv.TrackAudio,
			CodecID:     "A_PCM/INT/LIT",
			Audio: &mkv.Audio{
				SamplingFrequency: float64(m.opts.SampleRate),
				Channels:          uint64(m.opts.Channels),
				BitDepth:          audio.BitDepth,
			},
		},
	}
}

func (m *matroskaEncoder) Start(ctx context.Context, emit func(Chunk)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := newChunkWriter(emit)
	ws, err := mkv.NewWriter(out, muxingApp, m.tracks()...)
	if err != nil {
		return fmt.Errorf("matroska header: %w", err)
	}
	m.out, m.video, m.audio = out, ws[0], ws[1]
	return nil
}

func (m *matroskaEncoder) WriteVideo(frame *image.RGBA, pts time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.video == nil {
		return ErrStopped
	}

	m.jpegBuf.Reset()
	if err := jpeg.Encode(&m.jpegBuf, frame, &jpeg.Options{Quality: m.opts.JPEGQuality}); err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	// The block writer keeps the slice until its goroutine has written it.
	if _, err := m.video.Write(true, pts.Milliseconds(), bytes.Clone(m.jpegBuf.Bytes())); err != nil {
		return fmt.Errorf("write video block: %w", err)
	}
	return nil
}

func (m *matroskaEncoder) WriteAudio(samples []int16, pts time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.audio == nil {
		return ErrStopped
	}
	if len(samples) == 0 {
		return nil
	}
	if _, err := m.audio.Write(true, pts.Milliseconds(), audio.SamplesToBytes(samples)); err != nil {
		return fmt.Errorf("write audio block: %w", err)
	}
	return nil
}

// Finish closes both tracks and waits until the last cluster is emitted.
func (m *matroskaEncoder) Finish() error {
	err := m.closeTracks()
	if m.out != nil {
		<-m.out.done
	}
	return err
}

func (m *matroskaEncoder) Close() error {
	return m.Finish()
}

func (m *matroskaEncoder) closeTracks() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	var errs []error
	for _, w := range []mkvcore.BlockWriteCloser{m.video, m.audio} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	return errors.Join(errs...)
}

// chunkWriter turns the muxer's writes into chunks. The muxer closes it
// after the last block.
type chunkWriter struct {
	emit  func(Chunk)
	start time.Time
	once  sync.Once
	done  chan struct{}
}

func newChunkWriter(emit func(Chunk)) *chunkWriter {
	return &chunkWriter{emit: emit, start: time.Now(), done: make(chan struct{})}
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.emit(Chunk{Timestamp: time.Since(w.start), Data: bytes.Clone(p)})
	return len(p), nil
}

func (w *chunkWriter) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}
