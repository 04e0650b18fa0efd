package web

import (
	"github.com/satindergrewal/fryreel/internal/session"
)

// artifactView is the JSON form of a published handle.
type artifactView struct {
	ID       string  `json:"id"`
	Format   string  `json:"format"`
	Mime     string  `json:"mime"`
	Size     int     `json:"size"`
	Duration float64 `json:"duration"` // seconds
	Frames   int     `json:"frames"`
	URL      string  `json:"url"`
	Download string  `json:"download"`
	Filename string  `json:"filename"`
	Poster   string  `json:"poster,omitempty"`
}

type statusView struct {
	State    string        `json:"state"`
	Status   string        `json:"status"`
	Busy     bool          `json:"busy"`
	Progress float64       `json:"progress"`
	Ticks    int           `json:"ticks"`
	Notes    int           `json:"notes"`
	Voices   int           `json:"voices"`
	Format   string        `json:"format,omitempty"`
	Artifact *artifactView `json:"artifact,omitempty"`
	Monitor  *monitorView  `json:"monitor,omitempty"`
}

// monitorView reports the live audio fan-out.
type monitorView struct {
	Listeners int    `json:"listeners"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

func viewArtifact(h *session.Handle) *artifactView {
	if h == nil {
		return nil
	}
	a := h.Artifact
	v := &artifactView{
		ID:       h.ID.String(),
		Format:   a.Format.Name,
		Mime:     a.Format.MimeType,
		Size:     a.Size(),
		Duration: a.Duration.Seconds(),
		Frames:   a.Frames,
		URL:      h.URL(),
		Download: h.DownloadURL(),
		Filename: h.Filename(),
	}
	if len(a.Poster) > 0 {
		v.Poster = h.PosterURL()
	}
	return v
}

func viewStatus(s session.Snapshot) statusView {
	return statusView{
		State:    s.Phase.String(),
		Status:   s.Status,
		Busy:     s.Phase.Busy(),
		Progress: s.Progress,
		Ticks:    s.Ticks,
		Notes:    s.Notes,
		Voices:   s.Voices,
		Format:   s.Format,
		Artifact: viewArtifact(s.Handle),
	}
}

func viewMonitor(f Fanout) *monitorView {
	if f == nil {
		return nil
	}
	pub, drop := f.Stats()
	return &monitorView{Listeners: f.ListenerCount(), Published: pub, Dropped: drop}
}
