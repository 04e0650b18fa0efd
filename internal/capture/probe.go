package capture

import (
	"bufio"
	"bytes"
	"context"
	"log"
	"os/exec"
	"strings"
)

// Support is the set of ffmpeg encoders available on this host.
type Support struct {
	encoders map[string]bool
}

// ProbeFFmpeg asks ffmpeg which encoders it has. A missing or failing binary
// yields an empty Support, so negotiation falls back to Generic.
func ProbeFFmpeg(ctx context.Context, bin string) Support {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Printf("ffmpeg probe failed (%s): %v", bin, err)
		return Support{}
	}
	return parseEncoders(out)
}

// parseEncoders reads the table printed by `ffmpeg -encoders`:
//
//	V....D libvpx-vp9           libvpx VP9 (codec vp9)
func parseEncoders(out []byte) Support {
	s := Support{encoders: make(map[string]bool)}
	sc := bufio.NewScanner(bytes.NewReader(out))
	inTable := false
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		if fields[0] == "------" {
			inTable = true
			continue
		}
		if !inTable || len(fields[0]) != 6 {
			continue
		}
		s.encoders[fields[1]] = true
	}
	return s
}

// Has reports whether the named encoder exists.
func (s Support) Has(encoder string) bool {
	return s.encoders[encoder]
}

// Supports reports whether every encoder f needs is available. Generic is
// always supported.
func (s Support) Supports(f Format) bool {
	if f.Container != "webm" {
		return true
	}
	if !s.Has(f.VideoCodec) {
		return false
	}
	return !f.HasAudio() || s.Has(f.AudioCodec)
}
