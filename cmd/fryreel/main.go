package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/satindergrewal/fryreel/internal/capture"
	"github.com/satindergrewal/fryreel/internal/config"
	"github.com/satindergrewal/fryreel/internal/session"
	"github.com/satindergrewal/fryreel/internal/stream"
	"github.com/satindergrewal/fryreel/internal/web"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Println("fryreel starting up...")

	// Probe once at startup so the first run does not pay for it.
	probeCtx, probeCancel := context.WithTimeout(ctx, 10*time.Second)
	support := capture.ProbeFFmpeg(probeCtx, cfg.FFmpegPath)
	probeCancel()
	format := capture.Negotiate(capture.Preferences, support.Supports)
	log.Printf("Best available format: %s (%s)", format.Name, format.MimeType)

	// Live monitor: mix bus frames fanned out to WebRTC and MP3 listeners
	broadcaster := stream.NewBroadcaster()
	monitor := stream.NewMonitorHandler(broadcaster, cfg.MonitorBitrate)
	defer monitor.Close()
	live := web.Monitor{Offer: monitor, Fanout: broadcaster}
	if support.Has("libmp3lame") {
		live.MP3 = stream.NewMP3Handler(broadcaster, cfg.FFmpegPath, cfg.MonitorBitrate)
	}

	hub := web.NewHub()
	defer hub.Close()

	ctrl := session.New(cfg.Session(), session.Deps{
		Support:   support.Supports,
		Presenter: hub,
		Monitor:   broadcaster,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: web.NewServer(ctx, ctrl, hub, live)}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		server.Close()
	}()

	log.Printf("fryreel live on %s (%dx%d@%dfps, %s)", addr, cfg.Width, cfg.Height, cfg.FrameRate, cfg.Duration)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("HTTP server error: %v", err)
	}
}
