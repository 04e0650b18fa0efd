package capture

import (
	"sync"
	"time"
)

// Chunk is one piece of encoder output.
type Chunk struct {
	Timestamp time.Duration
	Data      []byte
}

// ChunkBuffer keeps chunks in arrival order. Reordering them corrupts the
// container.
type ChunkBuffer struct {
	mu     sync.Mutex
	chunks []Chunk
	size   int
}

// Append adds c after every chunk received so far. Empty chunks are dropped.
func (b *ChunkBuffer) Append(c Chunk) {
	if len(c.Data) == 0 {
		return
	}
	b.mu.Lock()
	b.chunks = append(b.chunks, c)
	b.size += len(c.Data)
	b.mu.Unlock()
}

// Len returns the number of chunks.
func (b *ChunkBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// Size returns the total byte count.
func (b *ChunkBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Bytes concatenates the chunks in arrival order.
func (b *ChunkBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, 0, b.size)
	for _, c := range b.chunks {
		out = append(out, c.Data...)
	}
	return out
}

