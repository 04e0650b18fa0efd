package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envVars = []string{
	"FRYREEL_PORT", "FRYREEL_DURATION_MS", "FRYREEL_FPS", "FRYREEL_WIDTH",
	"FRYREEL_HEIGHT", "FRYREEL_PARTICLES", "FRYREEL_TITLE", "FRYREEL_TAGLINE",
	"FRYREEL_REALTIME", "FRYREEL_VIDEO_BITRATE", "FRYREEL_AUDIO_BITRATE",
	"FRYREEL_FFMPEG", "FRYREEL_MONITOR_BITRATE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", cfg.Duration)
	}
	if cfg.FrameRate != 30 {
		t.Errorf("FrameRate = %d, want 30", cfg.FrameRate)
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if cfg.Particles != 80 {
		t.Errorf("Particles = %d, want 80", cfg.Particles)
	}
	if cfg.Title != "FRENCH FRIES" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if !cfg.Realtime {
		t.Error("Realtime = false, want true")
	}
	if cfg.VideoBitrate != 6000000 {
		t.Errorf("VideoBitrate = %d, want 6000000", cfg.VideoBitrate)
	}
	if cfg.AudioBitrate != 128000 || cfg.MonitorBitrate != 128000 {
		t.Errorf("AudioBitrate = %d, MonitorBitrate = %d, want 128000", cfg.AudioBitrate, cfg.MonitorBitrate)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.FFmpegPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRYREEL_PORT", "3000")
	t.Setenv("FRYREEL_DURATION_MS", "2500")
	t.Setenv("FRYREEL_FPS", "24")
	t.Setenv("FRYREEL_WIDTH", "640")
	t.Setenv("FRYREEL_HEIGHT", "360")
	t.Setenv("FRYREEL_PARTICLES", "12")
	t.Setenv("FRYREEL_TITLE", "CURLY FRIES")
	t.Setenv("FRYREEL_REALTIME", "false")
	t.Setenv("FRYREEL_VIDEO_BITRATE", "2000000")
	t.Setenv("FRYREEL_FFMPEG", "/usr/local/bin/ffmpeg")
	t.Setenv("FRYREEL_MONITOR_BITRATE", "64000")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Duration != 2500*time.Millisecond {
		t.Errorf("Duration = %v, want 2.5s", cfg.Duration)
	}
	if cfg.FrameRate != 24 || cfg.Width != 640 || cfg.Height != 360 || cfg.Particles != 12 {
		t.Errorf("render = %d fps %dx%d %d particles", cfg.FrameRate, cfg.Width, cfg.Height, cfg.Particles)
	}
	if cfg.Title != "CURLY FRIES" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.Realtime {
		t.Error("Realtime = true, want false")
	}
	if cfg.VideoBitrate != 2000000 || cfg.MonitorBitrate != 64000 {
		t.Errorf("bitrates = %d, %d", cfg.VideoBitrate, cfg.MonitorBitrate)
	}
	if cfg.FFmpegPath != "/usr/local/bin/ffmpeg" {
		t.Errorf("FFmpegPath = %q", cfg.FFmpegPath)
	}

	sc := cfg.Session()
	if sc.Duration != cfg.Duration || sc.FrameRate != 24 || sc.Realtime || sc.Title != "CURLY FRIES" {
		t.Errorf("Session() = %+v", sc)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		key, value string
		check      func(Config) bool
	}{
		{"FRYREEL_PORT", "not-a-number", func(c Config) bool { return c.Port == 8080 }},
		{"FRYREEL_DURATION_MS", "-5", func(c Config) bool { return c.Duration == 10*time.Second }},
		{"FRYREEL_FPS", "0", func(c Config) bool { return c.FrameRate == 30 }},
		{"FRYREEL_FPS", "1000", func(c Config) bool { return c.FrameRate == 30 }},
		{"FRYREEL_WIDTH", "641", func(c Config) bool { return c.Width == 1280 && c.Height == 720 }},
		{"FRYREEL_PARTICLES", "-3", func(c Config) bool { return c.Particles == 0 }},
		{"FRYREEL_REALTIME", "maybe", func(c Config) bool { return c.Realtime }},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if cfg := Load(); !tt.check(cfg) {
				t.Errorf("%s=%q gave %+v", tt.key, tt.value, cfg)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("FRYREEL_PORT=9090\nFRYREEL_FPS=60\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FRYREEL_FPS", "25")

	LoadDotEnv(path)

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from file", cfg.Port)
	}
	if cfg.FrameRate != 25 {
		t.Errorf("FrameRate = %d, want 25 from the environment", cfg.FrameRate)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	clearEnv(t)
	LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"))
	if cfg := Load(); cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
}
