// Package capture records the rendered frames and the mix bus into a single
// compressed container held in memory.
package capture

// Format is a container/codec pair the recorder can produce.
type Format struct {
	Name       string
	MimeType   string
	Container  string // ffmpeg muxer name
	VideoCodec string // ffmpeg encoder name, or "mjpeg" for the built-in muxer
	AudioCodec string // empty for video-only formats
}

// HasAudio reports whether the format carries the audio track.
func (f Format) HasAudio() bool {
	return f.AudioCodec != ""
}

// Ext is the file extension for downloads.
func (f Format) Ext() string {
	if f.Container == "webm" {
		return "webm"
	}
	return "mkv"
}

var (
	VP9Opus = Format{Name: "vp9+opus", MimeType: "video/webm;codecs=vp9,opus", Container: "webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus"}
	VP8Opus = Format{Name: "vp8+opus", MimeType: "video/webm;codecs=vp8,opus", Container: "webm", VideoCodec: "libvpx", AudioCodec: "libopus"}
	VP9     = Format{Name: "vp9", MimeType: "video/webm;codecs=vp9", Container: "webm", VideoCodec: "libvpx-vp9"}
	VP8     = Format{Name: "vp8", MimeType: "video/webm;codecs=vp8", Container: "webm", VideoCodec: "libvpx"}

	// Generic needs no external encoder: Motion JPEG and PCM in Matroska.
	Generic = Format{Name: "generic", MimeType: "video/x-matroska", Container: "matroska", VideoCodec: "mjpeg", AudioCodec: "pcm_s16le"}
)

// Preferences is the negotiation order, best first.
var Preferences = []Format{VP9Opus, VP8Opus, VP9, VP8}

// SupportFunc reports whether a format can be encoded.
type SupportFunc func(Format) bool

// Negotiate returns the first format in prefs that supported accepts, or
// Generic when none does.
func Negotiate(prefs []Format, supported SupportFunc) Format {
	if supported == nil {
		return Generic
	}
	for _, f := range prefs {
		if supported(f) {
			return f
		}
	}
	return Generic
}
