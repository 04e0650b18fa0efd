package session

import (
	"context"
	"time"
)

// Clock drives the tick loop. Next blocks until the next tick and returns
// the time elapsed since Start.
type Clock interface {
	Start()
	Next(ctx context.Context) (time.Duration, error)
	Stop()
}

// ClockFactory builds a clock ticking fps times per second.
type ClockFactory func(fps int) Clock

// RealtimeClock ticks on the wall clock.
type RealtimeClock struct {
	interval time.Duration
	ticker   *time.Ticker
	start    time.Time
}

// NewRealtimeClock returns a clock ticking every 1/fps seconds of wall time.
func NewRealtimeClock(fps int) Clock {
	return &RealtimeClock{interval: time.Second / time.Duration(fps)}
}

// Start resets elapsed time and starts the ticker.
func (c *RealtimeClock) Start() {
	c.start = time.Now()
	c.ticker = time.NewTicker(c.interval)
}

// Next waits for the ticker. Ticks missed while the caller was busy are
// dropped, so elapsed time can jump by more than one interval.
func (c *RealtimeClock) Next(ctx context.Context) (time.Duration, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.ticker.C:
		return time.Since(c.start), nil
	}
}

// Stop releases the ticker. It is safe before Start.
func (c *RealtimeClock) Stop() {
	if c.ticker != nil {
		c.ticker.Stop()
	}
}

// VirtualClock advances exactly one frame per Next without sleeping, so a
// run renders as fast as the encoder accepts frames.
type VirtualClock struct {
	fps  int
	tick int64
}

// NewVirtualClock returns a clock stepping 1/fps seconds per Next.
func NewVirtualClock(fps int) Clock {
	return &VirtualClock{fps: fps}
}

// Start rewinds to zero.
func (c *VirtualClock) Start() { c.tick = 0 }

// Next advances one frame. It fails only when ctx is done.
func (c *VirtualClock) Next(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	c.tick++
	return time.Duration(c.tick) * time.Second / time.Duration(c.fps), nil
}

// Stop does nothing.
func (c *VirtualClock) Stop() {}
