package channelanalyzer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-strategy/agents/channel-analyzer/youtube"
	"content-strategy/internal/models"
)

type fakeSource struct {
	videos      []string
	stats       map[string]*models.VideoStats
	statsErr    map[string]error
	comments    map[string][]string
	transcripts map[string]string
	discoverErr error
}

func (f *fakeSource) Discover(_ context.Context, _ string, _ youtube.Window, _ youtube.Order) ([]string, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return f.videos, nil
}

func (f *fakeSource) FetchStats(_ context.Context, videoID string) (*models.VideoStats, error) {
	if err := f.statsErr[videoID]; err != nil {
		return nil, err
	}
	stats, ok := f.stats[videoID]
	if !ok {
		return nil, fmt.Errorf("no stats for %s", videoID)
	}
	copied := *stats
	return &copied, nil
}

func (f *fakeSource) FetchComments(_ context.Context, videoID string) ([]string, error) {
	return f.comments[videoID], nil
}

func (f *fakeSource) FetchTranscript(_ context.Context, videoID string) (string, error) {
	return f.transcripts[videoID], nil
}

type fakeScorer struct {
	summary models.SentimentSummary
}

func (f *fakeScorer) Score(_ context.Context, _ []string) models.SentimentSummary {
	return f.summary
}

type fakeHighlights struct {
	text string
	err  error
}

func (f *fakeHighlights) GenerateHighlights(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.AnalysisRecord
	topErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*models.AnalysisRecord)}
}

func (f *fakeStore) UpsertRecord(_ context.Context, record *models.AnalysisRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *record
	f.records[record.VideoID] = &copied
	return nil
}

func (f *fakeStore) TopVideosByViews(_ context.Context, channelRef string, limit int) ([]*models.AnalysisRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.topErr != nil {
		return nil, f.topErr
	}
	var out []*models.AnalysisRecord
	for _, r := range f.records {
		if r.ChannelRef == channelRef {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func testStats(videoID, title string, views int64, published time.Time) *models.VideoStats {
	return &models.VideoStats{
		VideoID:     videoID,
		Title:       title,
		Description: "description for " + title,
		Views:       views,
		Likes:       views / 10,
		Comments:    views / 100,
		PublishedAt: published,
	}
}

func newTestAgent(source *fakeSource, store *fakeStore) *Agent {
	return New(source, &fakeScorer{summary: models.SentimentSummary{PositiveRatio: 0.5}}, &fakeHighlights{text: "great pacing"}, store, 2)
}

func TestAnalyzeChannel(t *testing.T) {
	published := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		videos: []string{"v1", "v2", "v3"},
		stats: map[string]*models.VideoStats{
			"v1": testStats("v1", "kubernetes networking deep dive", 9000, published),
			"v2": testStats("v2", "kubernetes storage explained", 5000, published),
			"v3": testStats("v3", "terraform modules tutorial", 2000, published),
		},
		comments:    map[string][]string{"v1": {"nice", "bad"}},
		transcripts: map[string]string{"v1": "This is a simple talk. It is short."},
	}
	store := newFakeStore()
	agent := newTestAgent(source, store)

	result, err := agent.AnalyzeChannel(context.Background(), "@devops", youtube.Window{}, youtube.OrderDate)
	require.NoError(t, err)

	assert.Equal(t, 3, result.VideosDiscovered)
	assert.Equal(t, 3, result.VideosAnalyzed)
	assert.Equal(t, 0, result.VideosSkipped)
	assert.NotEmpty(t, result.ContentGaps)
	assert.Contains(t, result.ContentGaps, "kubernetes")
	assert.NotEmpty(t, result.TopPerformingTopics)
	assert.Equal(t, StateDone, agent.State())

	require.Len(t, store.records, 3)
	record := store.records["v1"]
	assert.Equal(t, "@devops", record.ChannelRef)
	assert.Equal(t, 0.5, record.PositiveRatio)
	assert.Equal(t, "great pacing", record.Highlights)
	assert.Greater(t, record.ReadabilityScore, 0.0)
	assert.Greater(t, record.EngagementRate, 0.0)
	assert.False(t, record.AnalyzedAt.IsZero())

	// v2 has no transcript, so no highlights and the readability sentinel.
	assert.Empty(t, store.records["v2"].Highlights)
	assert.Equal(t, 0.0, store.records["v2"].ReadabilityScore)
}

func TestAnalyzeChannelPartialFailure(t *testing.T) {
	published := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		videos: []string{"v1", "v2", "v3", "v4", "v5"},
		stats: map[string]*models.VideoStats{
			"v1": testStats("v1", "alpha", 100, published),
			"v2": testStats("v2", "bravo", 200, published),
			"v4": testStats("v4", "delta", 400, published),
			"v5": testStats("v5", "echo", 500, published),
		},
		statsErr: map[string]error{"v3": errors.New("boom")},
	}
	store := newFakeStore()
	agent := newTestAgent(source, store)

	result, err := agent.AnalyzeChannel(context.Background(), "@devops", youtube.Window{}, youtube.OrderDate)
	require.NoError(t, err)

	assert.Equal(t, 5, result.VideosDiscovered)
	assert.Equal(t, 4, result.VideosAnalyzed)
	assert.Equal(t, 1, result.VideosSkipped)
	assert.NotContains(t, store.records, "v3")
	for _, id := range []string{"v1", "v2", "v4", "v5"} {
		assert.Contains(t, store.records, id)
	}
}

func TestAnalyzeChannelEmpty(t *testing.T) {
	source := &fakeSource{}
	agent := newTestAgent(source, newFakeStore())

	result, err := agent.AnalyzeChannel(context.Background(), "@quiet", youtube.Window{}, youtube.OrderDate)
	require.NoError(t, err)

	assert.Equal(t, 0, result.VideosDiscovered)
	assert.Empty(t, result.ContentGaps)
	assert.Empty(t, result.TopPerformingTopics)
	assert.Equal(t, StateDone, agent.State())
}

func TestAnalyzeChannelUnknown(t *testing.T) {
	source := &fakeSource{discoverErr: youtube.ErrChannelNotFound}
	agent := newTestAgent(source, newFakeStore())

	_, err := agent.AnalyzeChannel(context.Background(), "@missing", youtube.Window{}, youtube.OrderDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, youtube.ErrChannelNotFound))
	assert.Equal(t, StateFailed, agent.State())
}

func TestAnalyzeChannelWindowFilter(t *testing.T) {
	source := &fakeSource{
		videos: []string{"old", "new"},
		stats: map[string]*models.VideoStats{
			"old": testStats("old", "ancient upload", 100, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
			"new": testStats("new", "fresh upload", 100, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	store := newFakeStore()
	agent := newTestAgent(source, store)

	window := youtube.Window{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	result, err := agent.AnalyzeChannel(context.Background(), "@devops", window, youtube.OrderDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.VideosAnalyzed)
	assert.Equal(t, 1, result.VideosSkipped)
	assert.Contains(t, store.records, "new")
	assert.NotContains(t, store.records, "old")
}

func TestAnalyzeChannelHighlightsFailureNonFatal(t *testing.T) {
	published := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		videos:      []string{"v1"},
		stats:       map[string]*models.VideoStats{"v1": testStats("v1", "alpha", 100, published)},
		transcripts: map[string]string{"v1": "A transcript that exists."},
	}
	store := newFakeStore()
	agent := New(source, &fakeScorer{}, &fakeHighlights{err: errors.New("model overloaded")}, store, 1)

	result, err := agent.AnalyzeChannel(context.Background(), "@devops", youtube.Window{}, youtube.OrderDate)
	require.NoError(t, err)

	assert.Equal(t, 1, result.VideosAnalyzed)
	record := store.records["v1"]
	require.NotNil(t, record)
	assert.Empty(t, record.Highlights)
	assert.Greater(t, record.ReadabilityScore, 0.0)
}

// blockingSource parks one video's stats fetch until the context is
// cancelled, so a test can cancel a run mid-enrichment.
type blockingSource struct {
	fakeSource
	blockOn string
	entered chan struct{}
}

func (b *blockingSource) FetchStats(ctx context.Context, videoID string) (*models.VideoStats, error) {
	if videoID == b.blockOn {
		close(b.entered)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return b.fakeSource.FetchStats(ctx, videoID)
}

func TestAnalyzeChannelCancellationKeepsCommittedRecords(t *testing.T) {
	published := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &blockingSource{
		fakeSource: fakeSource{
			videos: []string{"v1", "v2"},
			stats: map[string]*models.VideoStats{
				"v1": testStats("v1", "alpha", 100, published),
			},
		},
		blockOn: "v2",
		entered: make(chan struct{}),
	}
	store := newFakeStore()
	agent := New(source, &fakeScorer{}, &fakeHighlights{}, store, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-source.entered
		cancel()
	}()

	result, err := agent.AnalyzeChannel(ctx, "@devops", youtube.Window{}, youtube.OrderDate)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
	assert.Equal(t, StateFailed, agent.State())

	// The record committed before cancellation survives untouched.
	require.Len(t, store.records, 1)
	record := store.records["v1"]
	require.NotNil(t, record)
	assert.Equal(t, "alpha", record.Title)
	assert.Equal(t, int64(100), record.Views)
	assert.NotContains(t, store.records, "v2")
}

func TestAnalyzeChannelTopTopicsStoreFailure(t *testing.T) {
	published := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	source := &fakeSource{
		videos: []string{"v1"},
		stats:  map[string]*models.VideoStats{"v1": testStats("v1", "alpha", 100, published)},
	}
	store := newFakeStore()
	store.topErr = errors.New("disk gone")
	agent := newTestAgent(source, store)

	result, err := agent.AnalyzeChannel(context.Background(), "@devops", youtube.Window{}, youtube.OrderDate)
	require.NoError(t, err)

	// Degrades to an empty array, never null in the response.
	require.NotNil(t, result.TopPerformingTopics)
	assert.Empty(t, result.TopPerformingTopics)
	assert.Equal(t, 1, result.VideosAnalyzed)
}

func TestAnalyzeChannelTopTopicsFromHistory(t *testing.T) {
	store := newFakeStore()
	// Seed history from a previous run.
	for i, title := range []string{"rust async runtime", "rust borrow checker", "python packaging"} {
		require.NoError(t, store.UpsertRecord(context.Background(), &models.AnalysisRecord{
			VideoStats: models.VideoStats{
				VideoID:    fmt.Sprintf("h%d", i),
				ChannelRef: "@lang",
				Title:      title,
				Views:      int64(1000 - i),
			},
		}))
	}
	agent := newTestAgent(&fakeSource{}, store)

	result, err := agent.AnalyzeChannel(context.Background(), "@lang", youtube.Window{}, youtube.OrderViewCount)
	require.NoError(t, err)
	assert.Contains(t, result.TopPerformingTopics, "rust")
}
