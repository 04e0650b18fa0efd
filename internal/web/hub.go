package web

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/satindergrewal/fryreel/internal/session"
)

// ErrNoViewer is returned by Play when no page is connected to autoplay.
var ErrNoViewer = errors.New("web: no viewer connected")

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

// message is one push to the page.
type message struct {
	Type     string        `json:"type"` // status, artifact, play
	Status   *statusView   `json:"status,omitempty"`
	Artifact *artifactView `json:"artifact,omitempty"`
}

// Hub pushes session updates to every connected page over a websocket.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte // latest status, replayed to new clients
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a hub with no clients. It serves /ws.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		clients:  make(map[*client]struct{}),
	}
}

// ClientCount returns the number of connected pages.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Update pushes a status change.
func (h *Hub) Update(s session.Snapshot) {
	v := viewStatus(s)
	b := encode(message{Type: "status", Status: &v})
	h.mu.Lock()
	h.last = b
	h.mu.Unlock()
	h.broadcast(b)
}

// Present announces a new artifact; pages swap their player source.
func (h *Hub) Present(handle *session.Handle) {
	h.broadcast(encode(message{Type: "artifact", Artifact: viewArtifact(handle)}))
}

// Play asks connected pages to start playback.
func (h *Hub) Play(handle *session.Handle) error {
	if h.broadcast(encode(message{Type: "play", Artifact: viewArtifact(handle)})) == 0 {
		return ErrNoViewer
	}
	return nil
}

// broadcast queues b for every client and returns how many accepted it.
func (h *Hub) broadcast(b []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for c := range h.clients {
		select {
		case c.send <- b:
			n++
		default:
			// too slow; the page resyncs from /api/status on reconnect
			close(c.send)
			delete(h.clients, c)
		}
	}
	return n
}

func encode(m message) []byte {
	b, err := json.Marshal(m)
	if err != nil {
		log.Printf("Websocket encode error: %v", err)
	}
	return b
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Printf("Viewer connected (total: %d)", n)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and notices disconnects.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			close(c.send)
		}
		n := len(h.clients)
		h.mu.Unlock()
		c.conn.Close()
		log.Printf("Viewer disconnected (remaining: %d)", n)
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case b, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every page.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
