package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/satindergrewal/fryreel/internal/audio"
	"github.com/satindergrewal/fryreel/internal/capture"
	"github.com/satindergrewal/fryreel/internal/particles"
	"github.com/satindergrewal/fryreel/internal/render"
)

// ErrBusy is returned when a run is requested while one is in progress.
var ErrBusy = errors.New("session: a run is already in progress")

// Poster size of the still attached to each artifact.
const (
	posterWidth  = 640
	posterHeight = 360
)

// Config is the fixed shape of every run.
type Config struct {
	Duration     time.Duration
	FrameRate    int
	Width        int
	Height       int
	Particles    int
	VideoBitrate int
	AudioBitrate int
	FFmpegPath   string
	Realtime     bool
	Title        string
	Tagline      string
}

// DefaultConfig is a 10 second 1280x720 run at 30 fps with 80 particles.
func DefaultConfig() Config {
	sc := render.DefaultScene()
	return Config{
		Duration:     10 * time.Second,
		FrameRate:    30,
		Width:        sc.Width,
		Height:       sc.Height,
		Particles:    80,
		VideoBitrate: 6000000,
		AudioBitrate: 128000,
		FFmpegPath:   "ffmpeg",
		Realtime:     true,
		Title:        sc.Title,
		Tagline:      sc.Tagline,
	}
}

func (c Config) captureOptions() capture.Options {
	opts := capture.DefaultOptions()
	opts.Width, opts.Height = c.Width, c.Height
	opts.FrameRate = c.FrameRate
	opts.VideoBitrate = c.VideoBitrate
	opts.AudioBitrate = c.AudioBitrate
	opts.FFmpegPath = c.FFmpegPath
	return opts
}

// OpenFunc opens the capture pipeline.
type OpenFunc func(ctx context.Context, opts capture.Options, f capture.Format) (*capture.Recorder, error)

// Presenter is the output surface.
type Presenter interface {
	// Update receives every state change and periodic progress.
	Update(Snapshot)
	// Present shows a newly published handle.
	Present(*Handle)
	// Play asks the player to start; an error means autoplay was denied.
	Play(*Handle) error
}

// Monitor receives the mix bus in 20ms frames while rendering.
type Monitor interface {
	Publish(frame []int16)
}

// Deps are the replaceable collaborators. Zero fields get production defaults.
type Deps struct {
	Open      OpenFunc
	Support   capture.SupportFunc
	Clock     ClockFactory
	Presenter Presenter
	Monitor   Monitor
	Rand      *rand.Rand
}

// Controller owns the run state machine and the single current handle.
type Controller struct {
	cfg  Config
	deps Deps

	probeOnce sync.Once

	mu      sync.Mutex
	phase   Phase
	state   State
	ticks   int
	format  capture.Format
	current *Handle
}

// New creates an idle controller.
func New(cfg Config, deps Deps) *Controller {
	if deps.Open == nil {
		deps.Open = capture.Open
	}
	if deps.Clock == nil {
		if cfg.Realtime {
			deps.Clock = NewRealtimeClock
		} else {
			deps.Clock = NewVirtualClock
		}
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	return &Controller{cfg: cfg, deps: deps}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		Phase:    c.phase,
		Status:   c.phase.Status(),
		Progress: c.state.Progress(),
		Ticks:    c.ticks,
		Notes:    c.state.Notes,
		Voices:   c.state.Voices,
		Handle:   c.current,
	}
	if c.phase != Idle {
		s.Format = c.format.Name
	}
	return s
}

// Current returns the published handle, or nil.
func (c *Controller) Current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Lookup returns the current handle if id names it.
func (c *Controller) Lookup(id string) (*Handle, bool) {
	h := c.Current()
	if h == nil || h.ID.String() != id || h.Released() {
		return nil, false
	}
	return h, true
}

// Start runs one session to completion. It returns ErrBusy if a run is in
// progress.
func (c *Controller) Start(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	return c.execute(ctx)
}

// Regenerate starts a fresh run; it is the same as Start.
func (c *Controller) Regenerate(ctx context.Context) error {
	return c.Start(ctx)
}

// Launch starts a run in the background. It returns ErrBusy if a run is in
// progress.
func (c *Controller) Launch(ctx context.Context) error {
	if err := c.begin(); err != nil {
		return err
	}
	go c.execute(ctx)
	return nil
}

// begin claims the controls for a new run.
func (c *Controller) begin() error {
	c.mu.Lock()
	if c.phase.Busy() {
		c.mu.Unlock()
		return ErrBusy
	}
	c.phase = Rendering
	c.ticks = 0
	c.state = State{Duration: c.cfg.Duration, Width: c.cfg.Width, Height: c.cfg.Height}
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.deps.Presenter.Update(snap)
	return nil
}

func (c *Controller) execute(ctx context.Context) error {
	started := time.Now()
	h, err := c.run(ctx)
	if err != nil {
		log.Printf("Render failed after %s: %v", time.Since(started).Round(time.Millisecond), err)
		c.transition(Failed)
		return err
	}

	c.publish(h)
	log.Printf("Render ready: %s (%s, %d bytes, %s) in %s",
		h.ID, h.Artifact.Format.Name, h.Artifact.Size(), h.Artifact.Duration, time.Since(started).Round(time.Millisecond))
	c.deps.Presenter.Present(h)
	if err := c.deps.Presenter.Play(h); err != nil {
		log.Printf("Autoplay not started: %v", err)
	}
	return nil
}

// recording holds the resources of one run. teardown releases each of them
// once, whatever happened before.
type recording struct {
	surface  *render.Surface
	renderer *render.Renderer
	bus      *audio.Bus
	seq      *audio.Sequencer
	rec      *capture.Recorder
	clock    Clock
	framer   audio.Framer

	teardownOnce sync.Once
}

func (r *recording) teardown() {
	r.teardownOnce.Do(func() {
		if r.seq != nil {
			safely("sequencer stop", func() error { r.seq.Stop(); return nil })
		}
		if r.bus != nil {
			safely("audio bus close", r.bus.Close)
		}
		if r.rec != nil {
			safely("track stop", r.rec.StopTracks)
		}
		if r.clock != nil {
			safely("tick loop stop", func() error { r.clock.Stop(); return nil })
		}
	})
}

func (c *Controller) run(ctx context.Context) (*Handle, error) {
	r := &recording{}
	defer r.teardown()

	if err := c.setup(ctx, r); err != nil {
		return nil, err
	}
	if err := c.tickLoop(ctx, r); err != nil {
		return nil, err
	}

	select {
	case <-r.rec.Stop():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := r.rec.Err(); err != nil {
		return nil, fmt.Errorf("finish recording: %w", err)
	}
	c.transition(Finalizing)

	r.teardown()
	art, err := r.rec.Artifact()
	if err != nil {
		return nil, fmt.Errorf("build artifact: %w", err)
	}
	if poster, err := render.Poster(r.surface.Img, posterWidth, posterHeight); err != nil {
		log.Printf("Poster failed: %v", err)
	} else {
		art.Poster = poster
	}
	return newHandle(art), nil
}

// setup allocates the surface, particles, audio graph and recorder.
func (c *Controller) setup(ctx context.Context, r *recording) error {
	cfg := c.cfg
	if cfg.FrameRate <= 0 || cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("invalid run config %dx%d@%d", cfg.Width, cfg.Height, cfg.FrameRate)
	}

	var err error
	r.renderer, err = render.NewRenderer(render.Scene{
		Width:   cfg.Width,
		Height:  cfg.Height,
		Title:   cfg.Title,
		Tagline: cfg.Tagline,
	})
	if err != nil {
		return fmt.Errorf("prepare renderer: %w", err)
	}
	r.surface = render.NewSurface(cfg.Width, cfg.Height)
	field := particles.New(cfg.Width, cfg.Height, cfg.Particles, c.deps.Rand)

	r.bus = audio.NewBus(audio.MasterGain)
	r.seq = audio.NewSequencer(r.bus)

	format := capture.Negotiate(capture.Preferences, c.support(ctx))
	c.mu.Lock()
	c.format = format
	c.state.Field = field
	c.mu.Unlock()
	log.Printf("Negotiated format: %s (%s)", format.Name, format.MimeType)

	r.rec, err = c.deps.Open(ctx, cfg.captureOptions(), format)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}

	r.clock = c.deps.Clock(cfg.FrameRate)
	r.clock.Start()
	log.Printf("Rendering %s at %dx%d@%dfps, %d particles", cfg.Duration, cfg.Width, cfg.Height, cfg.FrameRate, cfg.Particles)
	return nil
}

func (c *Controller) support(ctx context.Context) capture.SupportFunc {
	c.probeOnce.Do(func() {
		if c.deps.Support == nil {
			c.deps.Support = capture.ProbeFFmpeg(ctx, c.cfg.FFmpegPath).Supports
		}
	})
	return c.deps.Support
}

// tickLoop renders frames until the configured duration has elapsed.
func (c *Controller) tickLoop(ctx context.Context, r *recording) error {
	var last time.Duration
	for {
		now, err := r.clock.Next(ctx)
		if err != nil {
			return err
		}
		if err := c.tick(r, now, last); err != nil {
			return err
		}
		last = now
		if now >= c.cfg.Duration {
			return nil
		}
	}
}

func (c *Controller) tick(r *recording, now, last time.Duration) error {
	dt := particles.ClampDelta((now - last).Seconds())

	c.mu.Lock()
	c.state.Elapsed = now
	field := c.state.Field
	field.Advance(dt)
	c.ticks++
	ticks := c.ticks
	c.mu.Unlock()

	r.renderer.Render(r.surface, now.Seconds(), render.FrameState{
		Elapsed:   now,
		Duration:  c.cfg.Duration,
		Particles: field.Particles,
	})

	r.seq.Advance(now)
	pcm := r.bus.RenderUntil(now)
	c.mu.Lock()
	c.state.Notes = r.seq.Index()
	c.state.Voices = r.bus.Active()
	c.mu.Unlock()
	if err := r.rec.WriteAudio(pcm); err != nil {
		return fmt.Errorf("write audio: %w", err)
	}
	if c.deps.Monitor != nil {
		r.framer.Write(pcm, c.deps.Monitor.Publish)
	}
	if err := r.rec.WriteVideoUntil(r.surface.Img, now); err != nil {
		return fmt.Errorf("write frame %d: %w", ticks, err)
	}

	if ticks%c.cfg.FrameRate == 0 {
		c.deps.Presenter.Update(c.Snapshot())
	}
	return nil
}

func (c *Controller) transition(p Phase) {
	c.mu.Lock()
	c.phase = p
	snap := c.snapshotLocked()
	c.mu.Unlock()
	log.Printf("Session %s", p)
	c.deps.Presenter.Update(snap)
}

// publish releases the previous handle and makes h current.
func (c *Controller) publish(h *Handle) {
	c.mu.Lock()
	prev := c.current
	if prev != nil {
		prev.Release()
	}
	c.current = h
	c.phase = Ready
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if prev != nil {
		log.Printf("Released artifact %s", prev.ID)
	}
	log.Printf("Session %s", Ready)
	c.deps.Presenter.Update(snap)
}

// safely runs one teardown step, logging instead of propagating failures
// so the remaining steps still run.
func safely(name string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Teardown %s panicked: %v", name, p)
		}
	}()
	if err := fn(); err != nil {
		log.Printf("Teardown %s failed: %v", name, err)
	}
}

type nopPresenter struct{}

func (nopPresenter) Update(Snapshot)    {}
func (nopPresenter) Present(*Handle)    {}
func (nopPresenter) Play(*Handle) error { return nil }
