package stream

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	if b.ListenerCount() != 0 {
		t.Fatalf("initial ListenerCount = %d, want 0", b.ListenerCount())
	}

	l1 := b.Subscribe()
	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("ListenerCount = %d, want 1", b.ListenerCount())
	}
	select {
	case <-l1.Done():
	default:
		t.Error("Done not closed after Unsubscribe")
	}

	b.Unsubscribe(l2)
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", b.ListenerCount())
	}
}

func TestPublishDelivers(t *testing.T) {
	b := NewBroadcaster()
	listeners := make([]*Listener, 3)
	for i := range listeners {
		listeners[i] = b.Subscribe()
	}

	b.Publish([]int16{42, -42})

	for i, l := range listeners {
		select {
		case got := <-l.C:
			if len(got) != 2 || got[0] != 42 || got[1] != -42 {
				t.Errorf("listener %d got %v", i, got)
			}
		default:
			t.Errorf("listener %d got nothing", i)
		}
	}
	if pub, drop := b.Stats(); pub != 1 || drop != 0 {
		t.Errorf("Stats = %d, %d, want 1, 0", pub, drop)
	}
}

func TestPublishWithoutListeners(t *testing.T) {
	b := NewBroadcaster()
	b.Publish([]int16{1})
	if pub, drop := b.Stats(); pub != 1 || drop != 0 {
		t.Errorf("Stats = %d, %d, want 1, 0", pub, drop)
	}
}

func TestPublishDropsForSlowListener(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe()
	fast := b.Subscribe()

	const total = ListenerBuffer + 30
	fastCount := 0
	for i := range total {
		b.Publish([]int16{int16(i)})
		select {
		case <-fast.C:
			fastCount++
		default:
		}
	}

	if fastCount != total {
		t.Errorf("fast listener got %d frames, want %d", fastCount, total)
	}
	if len(slow.C) != ListenerBuffer {
		t.Errorf("slow listener holds %d frames, want %d", len(slow.C), ListenerBuffer)
	}
	// The oldest frames are kept.
	if first := <-slow.C; first[0] != 0 {
		t.Errorf("slow listener first frame = %d, want 0", first[0])
	}
	if _, drop := b.Stats(); drop != total-ListenerBuffer {
		t.Errorf("dropped = %d, want %d", drop, total-ListenerBuffer)
	}
}

func TestMonitorRejectsBadOffers(t *testing.T) {
	h := NewMonitorHandler(NewBroadcaster(), 128000)
	defer h.Close()

	tests := []struct {
		method string
		body   string
		want   int
	}{
		{http.MethodGet, "", http.StatusMethodNotAllowed},
		{http.MethodPost, "not json", http.StatusBadRequest},
		{http.MethodPost, `{"type":"offer"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/offer", strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s %q: status %d, want %d", tt.method, tt.body, rec.Code, tt.want)
		}
	}
	if h.PeerCount() != 0 {
		t.Errorf("PeerCount = %d, want 0", h.PeerCount())
	}
}

func TestMP3Args(t *testing.T) {
	h := NewMP3Handler(NewBroadcaster(), "ffmpeg", 192000)
	args := " " + strings.Join(h.args(), " ") + " "
	for _, want := range []string{" -f s16le ", " -ar 48000 ", " -ac 2 ", " -b:a 192000 ", " -f mp3 "} {
		if !strings.Contains(args, want) {
			t.Errorf("args missing %q: %s", want, args)
		}
	}
}

func TestMP3HandlerMissingFFmpeg(t *testing.T) {
	b := NewBroadcaster()
	h := NewMP3Handler(b, "/nonexistent/ffmpeg", 192000)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/monitor.mp3", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", b.ListenerCount())
	}
}
