package audio

import (
	"sync"
	"time"
)

// Sequencer triggers one note of NoteCycle every NotePeriod on the bus timeline.
// The first note fires one period after the start, like an interval timer.
type Sequencer struct {
	bus    *Bus
	period time.Duration
	length time.Duration

	mu      sync.Mutex
	index   int
	stopped bool
}

// NewSequencer creates a sequencer feeding bus.
func NewSequencer(bus *Bus) *Sequencer {
	return &Sequencer{
		bus:    bus,
		period: NotePeriod,
		length: NoteLength,
	}
}

// Advance triggers every note scheduled at or before until and returns how
// many were triggered.
func (s *Sequencer) Advance(until time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return 0
	}

	fired := 0
	for {
		at := time.Duration(s.index+1) * s.period
		if at > until {
			return fired
		}
		s.bus.Add(Voice{Freq: Note(s.index), Start: at, Length: s.length})
		s.index++
		fired++
	}
}

// Index returns how many notes have been triggered.
func (s *Sequencer) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Stop cancels the timer; later Advance calls do nothing.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
}
