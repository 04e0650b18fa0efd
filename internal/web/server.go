// Package web is the page, the JSON API and the media endpoints.
package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/satindergrewal/fryreel/internal/session"
)

//go:embed index.html
var IndexHTML []byte

// Fanout reports how the live audio is being shared.
type Fanout interface {
	ListenerCount() int
	Stats() (published, dropped uint64)
}

// Monitor is the optional live audio surface. Any field may be nil.
type Monitor struct {
	Offer  http.Handler // WebRTC signaling
	MP3    http.Handler
	Fanout Fanout
}

// Server routes requests to the session controller.
type Server struct {
	ctx  context.Context
	ctrl *session.Controller
	hub  *Hub
	mon  Monitor
	mux  *http.ServeMux
}

// NewServer builds the routes. Runs started over HTTP live as long as ctx,
// not as long as the request.
func NewServer(ctx context.Context, ctrl *session.Controller, hub *Hub, mon Monitor) *Server {
	s := &Server{ctx: ctx, ctrl: ctrl, hub: hub, mon: mon, mux: http.NewServeMux()}

	s.mux.HandleFunc("GET /{$}", s.index)
	s.mux.HandleFunc("POST /api/generate", s.generate)
	s.mux.HandleFunc("POST /api/regenerate", s.generate)
	s.mux.HandleFunc("GET /api/status", s.status)
	s.mux.HandleFunc("GET /media/{id}", s.media)
	s.mux.HandleFunc("GET /media/{id}/download", s.download)
	s.mux.HandleFunc("GET /media/{id}/poster.png", s.poster)
	if hub != nil {
		s.mux.Handle("GET /ws", hub)
	}
	if mon.Offer != nil {
		s.mux.Handle("POST /offer", mon.Offer)
	}
	if mon.MP3 != nil {
		s.mux.Handle("GET /monitor.mp3", mon.MP3)
	}
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(IndexHTML)
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Launch(s.ctx); err != nil {
		if errors.Is(err, session.ErrBusy) {
			writeJSON(w, http.StatusConflict, map[string]any{"ok": false, "error": "a render is already in progress"})
			return
		}
		log.Printf("Launch error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "failed"})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	v := viewStatus(s.ctrl.Snapshot())
	v.Monitor = viewMonitor(s.mon.Fanout)
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Handle, bool) {
	h, ok := s.ctrl.Lookup(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
	}
	return h, ok
}

func (s *Server) media(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", h.Artifact.Format.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, r, "", h.Artifact.CreatedAt, bytes.NewReader(h.Artifact.Data))
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", h.Artifact.Format.MimeType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.Filename()+`"`)
	http.ServeContent(w, r, h.Filename(), h.Artifact.CreatedAt, bytes.NewReader(h.Artifact.Data))
}

func (s *Server) poster(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if len(h.Artifact.Poster) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(h.Artifact.Poster)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
