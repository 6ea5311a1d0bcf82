package channelanalyzer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"content-strategy/agents/channel-analyzer/metrics"
	"content-strategy/agents/channel-analyzer/terms"
	"content-strategy/agents/channel-analyzer/transcript"
	"content-strategy/agents/channel-analyzer/youtube"
	"content-strategy/internal/models"
)

// State tracks where a channel analysis currently is. Transitions are
// linear: Discovering -> Enriching -> Aggregating -> Done, with Failed
// reachable only when the channel itself cannot be resolved.
type State string

const (
	StateIdle        State = "idle"
	StateDiscovering State = "discovering"
	StateEnriching   State = "enriching"
	StateAggregating State = "aggregating"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

const (
	// contentGapTerms is how many terms the run-corpus ranking keeps.
	contentGapTerms = 20
	// topTopicTerms is how many terms the top-performer ranking keeps.
	topTopicTerms = 10
	// topVideoCorpusSize bounds the by-views corpus read from the store.
	topVideoCorpusSize = 50
)

// SentimentScorer aggregates per-comment classifications into ratios.
type SentimentScorer interface {
	Score(ctx context.Context, comments []string) models.SentimentSummary
}

// HighlightGenerator produces a short positive summary of a transcript.
type HighlightGenerator interface {
	GenerateHighlights(ctx context.Context, transcript string) (string, error)
}

// Store is the persistence the pipeline needs for analysis records.
type Store interface {
	UpsertRecord(ctx context.Context, record *models.AnalysisRecord) error
	TopVideosByViews(ctx context.Context, channelRef string, limit int) ([]*models.AnalysisRecord, error)
}

// Agent runs the full analysis pipeline for one channel at a time:
// discover video IDs, enrich each video concurrently, persist records,
// then rank terms for content gaps and top-performing topics.
type Agent struct {
	source     youtube.Source
	scorer     SentimentScorer
	highlights HighlightGenerator
	store      Store
	workers    int
	now        func() time.Time

	mu    sync.Mutex
	state State
}

func New(source youtube.Source, scorer SentimentScorer, highlights HighlightGenerator, store Store, workers int) *Agent {
	if workers < 1 {
		workers = 1
	}
	return &Agent{
		source:     source,
		scorer:     scorer,
		highlights: highlights,
		store:      store,
		workers:    workers,
		now:        time.Now,
		state:      StateIdle,
	}
}

func (a *Agent) Name() string {
	return "Channel Analyzer"
}

// State reports the most recent pipeline phase, for status endpoints.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// AnalyzeChannel runs the pipeline for one channel. A video whose
// enrichment fails is skipped and the batch continues; the run as a
// whole fails only when the channel reference does not resolve or the
// context is cancelled.
func (a *Agent) AnalyzeChannel(ctx context.Context, channelRef string, window youtube.Window, order youtube.Order) (*models.AnalysisResult, error) {
	startTime := time.Now()

	a.setState(StateDiscovering)
	log.Printf("Discovering videos for channel %s...", channelRef)
	videoIDs, err := a.source.Discover(ctx, channelRef, window, order)
	if err != nil {
		a.setState(StateFailed)
		return nil, fmt.Errorf("failed to discover videos for %s: %w", channelRef, err)
	}
	log.Printf("Discovered %d videos for channel %s", len(videoIDs), channelRef)

	a.setState(StateEnriching)
	recordsByID := a.enrichAll(ctx, channelRef, videoIDs, window)
	if ctx.Err() != nil {
		a.setState(StateFailed)
		return nil, ctx.Err()
	}

	// Rebuild in discovery order so term ranking stays deterministic
	// regardless of which worker finished first.
	var records []*models.AnalysisRecord
	for _, id := range videoIDs {
		if rec, ok := recordsByID[id]; ok {
			records = append(records, rec)
		}
	}

	a.setState(StateAggregating)
	result := &models.AnalysisResult{
		ChannelRef:          channelRef,
		VideosDiscovered:    len(videoIDs),
		VideosAnalyzed:      len(records),
		VideosSkipped:       len(videoIDs) - len(records),
		ContentGaps:         terms.TopTerms(runCorpus(records), contentGapTerms),
		TopPerformingTopics: a.topPerformingTopics(ctx, channelRef),
	}

	a.setState(StateDone)
	log.Printf("Analysis complete for %s: %d discovered, %d analyzed, %d skipped (took %v)",
		channelRef, result.VideosDiscovered, result.VideosAnalyzed, result.VideosSkipped, time.Since(startTime))
	return result, nil
}

// enrichAll fans the video IDs out over a bounded worker pool and
// returns the records that completed, keyed by video ID.
func (a *Agent) enrichAll(ctx context.Context, channelRef string, videoIDs []string, window youtube.Window) map[string]*models.AnalysisRecord {
	jobs := make(chan string)
	recordsByID := make(map[string]*models.AnalysisRecord)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < a.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for videoID := range jobs {
				record, err := a.enrich(ctx, channelRef, videoID, window)
				if err != nil {
					log.Printf("Warning: skipping video %s: %v", videoID, err)
					continue
				}
				if record == nil {
					continue // outside the requested window
				}
				mu.Lock()
				recordsByID[videoID] = record
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range videoIDs {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	return recordsByID
}

// enrich runs the full per-video unit: stats, comments + sentiment,
// transcript readability + highlights, derived metrics, then one upsert.
// A nil record with nil error means the video fell outside the window.
func (a *Agent) enrich(ctx context.Context, channelRef, videoID string, window youtube.Window) (*models.AnalysisRecord, error) {
	stats, err := a.source.FetchStats(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stats: %w", err)
	}
	stats.ChannelRef = channelRef

	// The scraping source cannot filter server-side, so the window is
	// enforced here for every source.
	if !window.IsZero() && !window.Contains(stats.PublishedAt) {
		return nil, nil
	}

	comments, err := a.source.FetchComments(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comments: %w", err)
	}
	sentiment := a.scorer.Score(ctx, comments)

	text, err := a.source.FetchTranscript(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript: %w", err)
	}

	insight := models.TranscriptInsight{
		ReadabilityScore: transcript.ReadabilityScore(text),
	}
	if text != "" {
		highlights, err := a.highlights.GenerateHighlights(ctx, text)
		if err != nil {
			// Highlights are best-effort; the record ships without them.
			log.Printf("Warning: highlights failed for video %s: %v", videoID, err)
		} else {
			insight.Highlights = highlights
		}
	}

	record := &models.AnalysisRecord{
		VideoStats:        *stats,
		SentimentSummary:  sentiment,
		TranscriptInsight: insight,
		DerivedMetrics:    metrics.Derive(stats),
		AnalyzedAt:        a.now().UTC(),
	}
	if err := a.store.UpsertRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist record: %w", err)
	}
	return record, nil
}

// topPerformingTopics ranks terms over the channel's historical
// top-by-views corpus. A store failure degrades to an empty ranking
// rather than failing the run; the ranking is never nil so the JSON
// field stays an array either way.
func (a *Agent) topPerformingTopics(ctx context.Context, channelRef string) []string {
	top, err := a.store.TopVideosByViews(ctx, channelRef, topVideoCorpusSize)
	if err != nil {
		log.Printf("Warning: could not load top videos for %s: %v", channelRef, err)
		return []string{}
	}
	return terms.TopTerms(runCorpus(top), topTopicTerms)
}

func runCorpus(records []*models.AnalysisRecord) []terms.Document {
	corpus := make([]terms.Document, 0, len(records))
	for _, r := range records {
		corpus = append(corpus, terms.Document{
			ID:   r.VideoID,
			Text: r.Title + " " + r.Description,
		})
	}
	return corpus
}
