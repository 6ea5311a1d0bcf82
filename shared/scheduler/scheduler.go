// Package scheduler re-analyzes a configured set of competitor channels
// on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"content-strategy/agents/channel-analyzer/youtube"
	"content-strategy/internal/models"
	"content-strategy/shared/config"
	"content-strategy/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Runner is the analysis pipeline a tracking run drives.
type Runner interface {
	AnalyzeChannel(ctx context.Context, channelRef string, window youtube.Window, order youtube.Order) (*models.AnalysisResult, error)
}

// Reporter delivers the results of a tracking run. Nil disables reporting.
type Reporter interface {
	SendTrackingReport(results []*models.AnalysisResult) error
}

// Tracker runs the configured channels through the pipeline on a schedule.
type Tracker struct {
	config   *config.TrackingConfig
	runner   Runner
	monitor  *monitoring.Monitor
	reporter Reporter
	cron     *cron.Cron
}

func NewTracker(cfg *config.TrackingConfig, runner Runner, monitor *monitoring.Monitor, reporter Reporter) *Tracker {
	return &Tracker{
		config:   cfg,
		runner:   runner,
		monitor:  monitor,
		reporter: reporter,
		// Prevent overlapping runs
		cron: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start blocks until the context is cancelled.
func (t *Tracker) Start(ctx context.Context) error {
	if len(t.config.Channels) == 0 {
		return fmt.Errorf("no channels configured for tracking")
	}

	_, err := t.cron.AddFunc(t.config.Schedule, func() {
		if err := t.RunOnce(ctx); err != nil {
			log.Printf("Error running scheduled tracking: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	log.Printf("Tracking %d channels with schedule: %s", len(t.config.Channels), t.config.Schedule)
	t.cron.Start()

	<-ctx.Done()
	log.Printf("Tracking scheduler stopped")
	t.cron.Stop()
	return ctx.Err()
}

// RunOnce analyzes every tracked channel. A channel that fails doesn't
// stop the batch; the run is critical only when no channel succeeded.
func (t *Tracker) RunOnce(ctx context.Context) error {
	startTime := time.Now()
	log.Printf("Starting tracking run for %d channels...", len(t.config.Channels))

	var results []*models.AnalysisResult
	var failures []error
	for _, channel := range t.config.Channels {
		result, err := t.runner.AnalyzeChannel(ctx, channel, youtube.Window{}, youtube.OrderDate)
		if err != nil {
			log.Printf("Warning: tracking failed for channel %s: %v", channel, err)
			failures = append(failures, fmt.Errorf("channel %s: %w", channel, err))
			continue
		}
		results = append(results, result)
	}

	duration := time.Since(startTime)
	if len(results) == 0 && len(failures) > 0 {
		err := errors.Join(failures...)
		t.monitor.RecordCriticalFailure(fmt.Errorf("all tracked channels failed: %w", err), duration)
		return err
	}
	if len(failures) > 0 {
		t.monitor.RecordPartialFailure(errors.Join(failures...), duration)
	}

	var analyzed int
	for _, r := range results {
		analyzed += r.VideosAnalyzed
	}
	t.monitor.RecordSuccess(fmt.Sprintf("tracked %d/%d channels, %d videos analyzed",
		len(results), len(t.config.Channels), analyzed), duration)

	if t.reporter != nil && len(results) > 0 {
		if err := t.reporter.SendTrackingReport(results); err != nil {
			log.Printf("Warning: failed to send tracking report: %v", err)
		}
	}
	return nil
}
