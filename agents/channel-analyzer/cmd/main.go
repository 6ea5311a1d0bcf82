package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	channelanalyzer "content-strategy/agents/channel-analyzer"
	"content-strategy/agents/channel-analyzer/api"
	"content-strategy/agents/channel-analyzer/youtube"
	"content-strategy/shared/ai"
	"content-strategy/shared/config"
	"content-strategy/shared/email"
	"content-strategy/shared/monitoring"
	"content-strategy/shared/scheduler"
	"content-strategy/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatalf("Failed to open record store: %v", err)
	}
	defer store.Close()

	source, err := newSource(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create video source: %v", err)
	}

	analyzer, err := ai.NewAnalyzer(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model)
	if err != nil {
		log.Fatalf("Failed to create AI analyzer: %v", err)
	}

	scorer := ai.NewSentimentScorer(analyzer, cfg.Pipeline.CommentWorkers)
	agent := channelanalyzer.New(source, scorer, analyzer, store, cfg.Pipeline.VideoWorkers)

	monitor := monitoring.NewMonitor()
	monitoring.NewHealthServer(monitor, cfg.Monitoring.HealthPort).Start()

	if len(cfg.Tracking.Channels) > 0 {
		var reporter scheduler.Reporter
		if cfg.Email.ToEmail != "" {
			reporter = email.NewSender(&cfg.Email)
		}
		tracker := scheduler.NewTracker(&cfg.Tracking, agent, monitor, reporter)

		if len(os.Args) > 1 && os.Args[1] == "--once" {
			fmt.Println("Running tracking once...")
			if err := tracker.RunOnce(ctx); err != nil {
				log.Fatalf("Tracking run failed: %v", err)
			}
			return
		}

		go func() {
			if err := tracker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Tracking scheduler failed: %v", err)
			}
		}()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewServer(agent, store),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Analysis API listening on port %d", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

func newSource(ctx context.Context, cfg *config.Config) (youtube.Source, error) {
	switch cfg.YouTube.Source {
	case "scrape":
		return youtube.NewScrapeSource(cfg.YouTube.ScrapeRequestsPerSecond), nil
	default:
		return youtube.NewDataAPISource(ctx, cfg.YouTube.APIKey)
	}
}
