package web

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satindergrewal/fryreel/internal/capture"
	"github.com/satindergrewal/fryreel/internal/session"
)

func testController(deps session.Deps) *session.Controller {
	cfg := session.DefaultConfig()
	cfg.Duration = 300 * time.Millisecond
	cfg.FrameRate = 10
	cfg.Width, cfg.Height = 160, 90
	cfg.Particles = 4
	cfg.Realtime = false
	deps.Support = func(capture.Format) bool { return false }
	deps.Rand = rand.New(rand.NewPCG(3, 4))
	return session.New(cfg, deps)
}

func getStatus(t *testing.T, srv http.Handler) statusView {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var v statusView
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return v
}

func waitReady(t *testing.T, srv http.Handler) statusView {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if v := getStatus(t, srv); v.State == "ready" || v.State == "failed" {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("run did not finish")
	return statusView{}
}

func post(srv http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
	return rec
}

func TestIndex(t *testing.T) {
	srv := NewServer(context.Background(), testController(session.Deps{}), nil, Monitor{})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Generate video") {
		t.Errorf("GET / = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
}

func TestIdleStatus(t *testing.T) {
	srv := NewServer(context.Background(), testController(session.Deps{}), nil, Monitor{})
	v := getStatus(t, srv)
	if v.State != "idle" || v.Busy || v.Artifact != nil || v.Monitor != nil {
		t.Errorf("status = %+v", v)
	}
}

type fakeFanout struct{}

func (fakeFanout) ListenerCount() int { return 2 }
func (fakeFanout) Stats() (published, dropped uint64) { return 40, 3 }

func TestStatusReportsMonitor(t *testing.T) {
	srv := NewServer(context.Background(), testController(session.Deps{}), nil, Monitor{Fanout: fakeFanout{}})
	v := getStatus(t, srv)
	if v.Monitor == nil {
		t.Fatal("status has no monitor")
	}
	if *v.Monitor != (monitorView{Listeners: 2, Published: 40, Dropped: 3}) {
		t.Errorf("monitor = %+v", *v.Monitor)
	}

	// Without a signaling handler the offer route does not exist.
	rec := post(srv, "/offer")
	if rec.Code != http.StatusNotFound && rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST /offer = %d, want 404", rec.Code)
	}
}

func TestGenerateAndServeMedia(t *testing.T) {
	srv := NewServer(context.Background(), testController(session.Deps{}), nil, Monitor{})

	if rec := post(srv, "/api/generate"); rec.Code != http.StatusAccepted {
		t.Fatalf("generate = %d", rec.Code)
	}
	v := waitReady(t, srv)
	if v.State != "ready" || v.Status != "ready" || v.Artifact == nil {
		t.Fatalf("status = %+v", v)
	}
	a := v.Artifact
	if a.Format != "generic" || a.Mime != "video/x-matroska" || a.Frames != 3 {
		t.Errorf("artifact = %+v", a)
	}
	// One note fires at 250ms.
	if v.Notes != 1 {
		t.Errorf("notes = %d, want 1", v.Notes)
	}

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", a.URL, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/x-matroska" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Body.Len() != a.Size {
		t.Errorf("body = %d bytes, want %d", rec.Body.Len(), a.Size)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.Download, nil))
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, a.Filename) || !strings.HasSuffix(a.Filename, ".mkv") {
		t.Errorf("Content-Disposition = %q, filename %q", cd, a.Filename)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.Poster, nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("GET %s = %d %q", a.Poster, rec.Code, rec.Header().Get("Content-Type"))
	}

	// Re-running releases the first artifact.
	if rec := post(srv, "/api/regenerate"); rec.Code != http.StatusAccepted {
		t.Fatalf("regenerate = %d", rec.Code)
	}
	if v2 := waitReady(t, srv); v2.Artifact == nil || v2.Artifact.ID == a.ID {
		t.Fatalf("artifact not replaced: %+v", v2.Artifact)
	}
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, a.URL, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("released media = %d, want 404", rec.Code)
	}
}

func TestGenerateWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	ctrl := testController(session.Deps{
		Open: func(ctx context.Context, o capture.Options, f capture.Format) (*capture.Recorder, error) {
			close(entered)
			<-gate
			return capture.Open(ctx, o, f)
		},
	})
	srv := NewServer(context.Background(), ctrl, nil, Monitor{})

	if rec := post(srv, "/api/generate"); rec.Code != http.StatusAccepted {
		t.Fatalf("generate = %d", rec.Code)
	}
	<-entered
	if v := getStatus(t, srv); !v.Busy || v.Status != "rendering…" {
		t.Errorf("status while rendering = %+v", v)
	}
	if rec := post(srv, "/api/regenerate"); rec.Code != http.StatusConflict {
		t.Errorf("regenerate while busy = %d, want 409", rec.Code)
	}
	close(gate)
	waitReady(t, srv)
}

func TestUnknownMedia(t *testing.T) {
	srv := NewServer(context.Background(), testController(session.Deps{}), nil, Monitor{})
	for _, path := range []string{"/media/abc", "/media/abc/download", "/media/abc/poster.png"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s = %d, want 404", path, rec.Code)
		}
	}
}

func TestHubPushesStatusAndPlay(t *testing.T) {
	hub := NewHub()
	defer hub.Close()
	ts := httptest.NewServer(hub)
	defer ts.Close()

	if err := hub.Play(nil); !errors.Is(err, ErrNoViewer) {
		t.Errorf("Play without viewers = %v, want ErrNoViewer", err)
	}
	hub.Update(session.Snapshot{Phase: session.Rendering, Status: "rendering…", Progress: 0.5})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var m message
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	if m.Type != "status" || m.Status == nil || m.Status.State != "rendering" || m.Status.Progress != 0.5 {
		t.Errorf("replayed message = %+v", m)
	}

	if err := hub.Play(nil); err != nil {
		t.Errorf("Play with viewer = %v", err)
	}
	if err := conn.ReadJSON(&m); err != nil {
		t.Fatalf("read: %v", err)
	}
	if m.Type != "play" {
		t.Errorf("message type = %q, want play", m.Type)
	}
}

func TestHubRejectsPlainHTTP(t *testing.T) {
	hub := NewHub()
	rec := httptest.NewRecorder()
	hub.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d", hub.ClientCount())
	}
}
