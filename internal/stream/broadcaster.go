// Package stream carries the mix bus to live monitor clients.
package stream

import (
	"sync"
	"sync/atomic"
)

// ListenerBuffer is how many 20ms frames a listener may fall behind (1s)
// before frames are dropped for it.
const ListenerBuffer = 50

// Broadcaster fans PCM frames out to any number of listeners. Publishing
// never blocks on a listener.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[*Listener]struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
}

// Listener receives 20ms PCM frames until it is unsubscribed.
type Listener struct {
	C    chan []int16
	done chan struct{}
	once sync.Once
}

// Done is closed when the listener is unsubscribed.
func (l *Listener) Done() <-chan struct{} {
	return l.done
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[*Listener]struct{}),
	}
}

// Subscribe registers a new listener.
func (b *Broadcaster) Subscribe() *Listener {
	l := &Listener{
		C:    make(chan []int16, ListenerBuffer),
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.listeners[l] = struct{}{}
	b.mu.Unlock()
	return l
}

// Unsubscribe removes l and closes its Done channel. Safe to call twice.
func (b *Broadcaster) Unsubscribe(l *Listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	b.mu.Unlock()
	l.once.Do(func() { close(l.done) })
}

func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Publish delivers frame to every listener that has room for it.
func (b *Broadcaster) Publish(frame []int16) {
	b.published.Add(1)
	b.mu.RLock()
	defer b.mu.RUnlock()
	for l := range b.listeners {
		select {
		case l.C <- frame:
		default:
			b.dropped.Add(1)
		}
	}
}

// Stats returns how many frames were published and how many deliveries
// were dropped.
func (b *Broadcaster) Stats() (published, dropped uint64) {
	return b.published.Load(), b.dropped.Load()
}
