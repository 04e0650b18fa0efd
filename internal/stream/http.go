package stream

import (
	"context"
	"io"
	"log"
	"net/http"
	"os/exec"
	"strconv"

	"github.com/satindergrewal/fryreel/internal/audio"
)

// MP3Handler serves the mix bus as a chunked MP3 stream for clients
// without WebRTC. Each connection runs its own ffmpeg.
type MP3Handler struct {
	broadcaster *Broadcaster
	ffmpeg      string
	bitrate     int
}

// NewMP3Handler creates a handler encoding with the ffmpeg at bin.
func NewMP3Handler(b *Broadcaster, bin string, bitrate int) *MP3Handler {
	return &MP3Handler{broadcaster: b, ffmpeg: bin, bitrate: bitrate}
}

func (h *MP3Handler) args() []string {
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "s16le",
		"-ar", strconv.Itoa(audio.SampleRate),
		"-ac", strconv.Itoa(audio.Channels),
		"-i", "pipe:0",
		"-codec:a", "libmp3lame",
		"-b:a", strconv.Itoa(h.bitrate),
		"-f", "mp3",
		"-fflags", "nobuffer",
		"-flush_packets", "1",
		"pipe:1",
	}
}

func (h *MP3Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cmd := exec.CommandContext(ctx, h.ffmpeg, h.args()...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		http.Error(w, "monitor unavailable", http.StatusInternalServerError)
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		http.Error(w, "monitor unavailable", http.StatusInternalServerError)
		return
	}
	if err := cmd.Start(); err != nil {
		log.Printf("MP3 monitor: ffmpeg start error: %v", err)
		http.Error(w, "monitor unavailable", http.StatusServiceUnavailable)
		return
	}
	defer cmd.Wait()

	listener := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(listener)
	log.Printf("MP3 monitor connected (listeners: %d)", h.broadcaster.ListenerCount())

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache, no-store")

	go func() {
		defer stdin.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Done():
				return
			case frame := <-listener.C:
				if _, err := stdin.Write(audio.SamplesToBytes(frame)); err != nil {
					return
				}
			}
		}
	}()

	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				cancel()
				break
			}
			flusher.Flush()
		}
		if err != nil {
			if err != io.EOF {
				log.Printf("MP3 monitor: ffmpeg read error: %v", err)
			}
			break
		}
	}
	log.Printf("MP3 monitor disconnected")
}
