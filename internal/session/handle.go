package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/satindergrewal/fryreel/internal/capture"
)

// Handle is a published artifact. Both the player and the download link
// reference it until the next run releases it.
type Handle struct {
	ID       uuid.UUID
	Artifact capture.Artifact

	mu       sync.Mutex
	released bool
}

func newHandle(art capture.Artifact) *Handle {
	return &Handle{ID: uuid.New(), Artifact: art}
}

// URL is the playable media location.
func (h *Handle) URL() string {
	return "/media/" + h.ID.String()
}

// DownloadURL serves the same bytes as an attachment.
func (h *Handle) DownloadURL() string {
	return h.URL() + "/download"
}

// PosterURL is the still image of the last frame.
func (h *Handle) PosterURL() string {
	return h.URL() + "/poster.png"
}

// Filename is the suggested download name.
func (h *Handle) Filename() string {
	return "fryreel-" + h.ID.String()[:8] + "." + h.Artifact.Format.Ext()
}

// Release invalidates both URLs.
func (h *Handle) Release() {
	h.mu.Lock()
	h.released = true
	h.mu.Unlock()
}

// Released reports whether Release was called.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}
