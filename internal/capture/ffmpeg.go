package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/satindergrewal/fryreel/internal/audio"
)

// ffmpegEncoder pipes raw RGBA frames (stdin) and s16le PCM (fd 3) into
// ffmpeg and collects the WebM it writes to stdout.
type ffmpegEncoder struct {
	format Format
	opts   Options

	cmd    *exec.Cmd
	video  io.WriteCloser
	audio  *os.File
	stderr lockedBuffer
	group  *errgroup.Group
	start  time.Time

	closeOnce sync.Once
	closeErr  error
	waitErr   error
}

func newFFmpegEncoder(f Format, opts Options) *ffmpegEncoder {
	return &ffmpegEncoder{format: f, opts: opts}
}

func (e *ffmpegEncoder) args() []string {
	o := e.opts
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", o.Width, o.Height),
		"-framerate", strconv.Itoa(o.FrameRate),
		"-i", "pipe:0",
	}
	if e.format.HasAudio() {
		args = append(args,
			"-f", "s16le",
			"-ar", strconv.Itoa(o.SampleRate),
			"-ac", strconv.Itoa(o.Channels),
			"-i", "pipe:3",
		)
	}
	args = append(args, "-map", "0:v")
	if e.format.HasAudio() {
		args = append(args, "-map", "1:a")
	}
	args = append(args,
		"-c:v", e.format.VideoCodec,
		"-b:v", strconv.Itoa(o.VideoBitrate),
		"-pix_fmt", "yuv420p",
		"-deadline", "realtime",
		"-cpu-used", "8",
	)
	if e.format.VideoCodec == "libvpx-vp9" {
		args = append(args, "-row-mt", "1")
	}
	if e.format.HasAudio() {
		args = append(args, "-c:a", e.format.AudioCodec, "-b:a", strconv.Itoa(o.AudioBitrate))
	}
	return append(args, "-f", e.format.Container, "pipe:1")
}

func (e *ffmpegEncoder) Start(ctx context.Context, emit func(Chunk)) error {
	e.cmd = exec.CommandContext(ctx, e.opts.FFmpegPath, e.args()...)
	e.cmd.Stderr = &e.stderr

	video, err := e.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin pipe: %w", err)
	}
	e.video = video

	var audioRead *os.File
	if e.format.HasAudio() {
		r, w, err := os.Pipe()
		if err != nil {
			return fmt.Errorf("ffmpeg audio pipe: %w", err)
		}
		audioRead, e.audio = r, w
		e.cmd.ExtraFiles = []*os.File{r}
	}

	stdout, err := e.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if err := e.cmd.Start(); err != nil {
		if audioRead != nil {
			audioRead.Close()
			e.audio.Close()
		}
		return fmt.Errorf("ffmpeg start: %w", err)
	}
	// The child holds its own copy of the read end.
	if audioRead != nil {
		audioRead.Close()
	}
	e.start = time.Now()

	e.group = new(errgroup.Group)
	e.group.Go(func() error {
		buf := make([]byte, 64*1024)
		for {
			n, err := stdout.Read(buf)
			if n > 0 {
				data := make([]byte, n)
				copy(data, buf[:n])
				emit(Chunk{Timestamp: time.Since(e.start), Data: data})
			}
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("ffmpeg read: %w", err)
			}
		}
	})
	return nil
}

func (e *ffmpegEncoder) WriteVideo(frame *image.RGBA, pts time.Duration) error {
	if _, err := e.video.Write(frame.Pix); err != nil {
		return fmt.Errorf("ffmpeg video write: %w", e.describe(err))
	}
	return nil
}

func (e *ffmpegEncoder) WriteAudio(samples []int16, pts time.Duration) error {
	if e.audio == nil || len(samples) == 0 {
		return nil
	}
	if _, err := e.audio.Write(audio.SamplesToBytes(samples)); err != nil {
		return fmt.Errorf("ffmpeg audio write: %w", e.describe(err))
	}
	return nil
}

func (e *ffmpegEncoder) Finish() error {
	return e.shutdown(false)
}

// Close releases the inputs and kills ffmpeg without waiting for a clean
// flush. The process and the stdout reader are still reaped.
func (e *ffmpegEncoder) Close() error {
	e.shutdown(true)
	return e.closeErr
}

// shutdown closes the inputs, optionally kills the child, then waits for
// the reader and the process. Only the first call does any work.
func (e *ffmpegEncoder) shutdown(kill bool) error {
	e.closeOnce.Do(func() {
		var errs []error
		if e.video != nil {
			errs = append(errs, e.video.Close())
		}
		if e.audio != nil {
			errs = append(errs, e.audio.Close())
		}
		e.closeErr = errors.Join(errs...)
		if e.cmd == nil || e.cmd.Process == nil {
			return
		}
		if kill {
			e.cmd.Process.Kill()
		}
		readErr := e.group.Wait()
		if err := e.cmd.Wait(); err != nil && !kill {
			e.waitErr = fmt.Errorf("ffmpeg exit: %w", e.describe(err))
			return
		}
		if !kill {
			e.waitErr = readErr
		}
	})
	return e.waitErr
}

// describe attaches ffmpeg's own error output, which is usually more useful
// than a broken pipe.
func (e *ffmpegEncoder) describe(err error) error {
	msg := strings.TrimSpace(e.stderr.String())
	if msg == "" {
		return err
	}
	if len(msg) > 512 {
		msg = msg[len(msg)-512:]
	}
	return fmt.Errorf("%w: %s", err, msg)
}

// lockedBuffer collects stderr; exec writes to it from its own goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
