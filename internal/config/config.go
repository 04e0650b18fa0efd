package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/satindergrewal/fryreel/internal/session"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Render
	Duration  time.Duration
	FrameRate int
	Width     int
	Height    int
	Particles int
	Title     string
	Tagline   string
	Realtime  bool // false renders as fast as possible

	// Encoding
	VideoBitrate   int    // bits per second
	AudioBitrate   int    // bits per second, Opus formats
	FFmpegPath     string // binary used to probe and encode
	MonitorBitrate int    // live monitor Opus bits per second
}

// LoadDotEnv sets variables from the given files (default ".env") without
// overriding ones already in the environment. Missing files are ignored.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("Ignoring env file: %v", err)
		}
		return
	}
	log.Println("Loaded env file")
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	def := session.DefaultConfig()
	cfg := Config{
		Port: envInt("FRYREEL_PORT", 8080),

		Duration:  time.Duration(envInt("FRYREEL_DURATION_MS", 10000)) * time.Millisecond,
		FrameRate: envInt("FRYREEL_FPS", 30),
		Width:     envInt("FRYREEL_WIDTH", 1280),
		Height:    envInt("FRYREEL_HEIGHT", 720),
		Particles: envInt("FRYREEL_PARTICLES", 80),
		Title:     envStr("FRYREEL_TITLE", def.Title),
		Tagline:   envStr("FRYREEL_TAGLINE", def.Tagline),
		Realtime:  envBool("FRYREEL_REALTIME", true),

		VideoBitrate:   envInt("FRYREEL_VIDEO_BITRATE", 6000000),
		AudioBitrate:   envInt("FRYREEL_AUDIO_BITRATE", 128000),
		FFmpegPath:     envStr("FRYREEL_FFMPEG", "ffmpeg"),
		MonitorBitrate: envInt("FRYREEL_MONITOR_BITRATE", 128000),
	}
	cfg.sanitize(def)
	return cfg
}

// sanitize replaces values no run could use with the defaults.
func (c *Config) sanitize(def session.Config) {
	if c.Duration <= 0 {
		log.Printf("FRYREEL_DURATION_MS must be positive, using %s", def.Duration)
		c.Duration = def.Duration
	}
	if c.FrameRate <= 0 || c.FrameRate > 120 {
		log.Printf("FRYREEL_FPS must be 1-120, using %d", def.FrameRate)
		c.FrameRate = def.FrameRate
	}
	// yuv420p needs even dimensions.
	if c.Width < 16 || c.Height < 16 || c.Width%2 != 0 || c.Height%2 != 0 {
		log.Printf("FRYREEL_WIDTH/HEIGHT must be even and at least 16, using %dx%d", def.Width, def.Height)
		c.Width, c.Height = def.Width, def.Height
	}
	if c.Particles < 0 {
		c.Particles = 0
	}
}

// Session is the run configuration for the session controller.
func (c Config) Session() session.Config {
	return session.Config{
		Duration:     c.Duration,
		FrameRate:    c.FrameRate,
		Width:        c.Width,
		Height:       c.Height,
		Particles:    c.Particles,
		VideoBitrate: c.VideoBitrate,
		AudioBitrate: c.AudioBitrate,
		FFmpegPath:   c.FFmpegPath,
		Realtime:     c.Realtime,
		Title:        c.Title,
		Tagline:      c.Tagline,
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
