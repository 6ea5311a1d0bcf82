package youtube

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"content-strategy/internal/models"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

const searchPageSize = 50

// DataAPISource retrieves channel and video data through the YouTube Data
// API v3 with API-key access. Discovery follows NextPageToken until the API
// stops returning one, so a channel's full result set is paged through rather
// than just the first page.
type DataAPISource struct {
	service   *yt.Service
	timedText *timedTextClient
	retry     retryConfig
}

// NewDataAPISource builds a Data API backed source.
func NewDataAPISource(ctx context.Context, apiKey string) (*DataAPISource, error) {
	service, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &DataAPISource{
		service:   service,
		timedText: newTimedTextClient(&http.Client{Timeout: 20 * time.Second}, "https://www.youtube.com"),
		retry:     defaultRetry,
	}, nil
}

// Discover resolves the channel reference and pages through its videos for
// the window and ordering. Video IDs come back deduplicated in API order.
func (s *DataAPISource) Discover(ctx context.Context, channelRef string, window Window, order Order) ([]string, error) {
	channelID, err := s.resolveChannel(ctx, channelRef)
	if err != nil {
		return nil, err
	}

	var videoIDs []string
	seen := make(map[string]bool)
	pageToken := ""

	for {
		call := s.service.Search.List([]string{"id"}).
			ChannelId(channelID).
			Type("video").
			Order(string(order)).
			MaxResults(searchPageSize)
		if !window.Start.IsZero() {
			call = call.PublishedAfter(window.Start.Format(time.RFC3339))
		}
		if !window.End.IsZero() {
			call = call.PublishedBefore(window.End.Format(time.RFC3339))
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *yt.SearchListResponse
		err := withRetry(ctx, s.retry, func() error {
			var callErr error
			resp, callErr = call.Context(ctx).Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("search videos for channel %s: %w: %v", channelRef, ErrSourceUnavailable, err)
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			if !seen[item.Id.VideoId] {
				seen[item.Id.VideoId] = true
				videoIDs = append(videoIDs, item.Id.VideoId)
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Printf("Discovered %d videos for channel %s", len(videoIDs), channelRef)
	return videoIDs, nil
}

// resolveChannel maps a handle, legacy username, or channel ID to a canonical
// channel ID. An unresolvable reference is ErrChannelNotFound, distinct from a
// channel that simply has no videos in the window.
func (s *DataAPISource) resolveChannel(ctx context.Context, channelRef string) (string, error) {
	channels := s.service.Channels

	var calls []*yt.ChannelsListCall
	switch {
	case strings.HasPrefix(channelRef, "@"):
		calls = append(calls, channels.List([]string{"id"}).ForHandle(channelRef))
	case strings.HasPrefix(channelRef, "UC"):
		calls = append(calls, channels.List([]string{"id"}).Id(channelRef))
	default:
		// A bare reference may be a legacy username or a handle written
		// without its @.
		calls = append(calls,
			channels.List([]string{"id"}).ForUsername(channelRef),
			channels.List([]string{"id"}).ForHandle(channelRef))
	}

	for _, call := range calls {
		id, err := s.lookupChannelID(ctx, call)
		if err != nil {
			return "", fmt.Errorf("resolve channel %s: %w: %v", channelRef, ErrSourceUnavailable, err)
		}
		if id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("resolve channel %s: %w", channelRef, ErrChannelNotFound)
}

// lookupChannelID runs one Channels.List call with backoff, returning "" when
// the lookup succeeds but matches nothing.
func (s *DataAPISource) lookupChannelID(ctx context.Context, call *yt.ChannelsListCall) (string, error) {
	var resp *yt.ChannelListResponse
	err := withRetry(ctx, s.retry, func() error {
		var callErr error
		resp, callErr = call.Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", err
	}
	if len(resp.Items) == 0 {
		return "", nil
	}
	return resp.Items[0].Id, nil
}

// FetchStats retrieves metadata and counters for one video.
func (s *DataAPISource) FetchStats(ctx context.Context, videoID string) (*models.VideoStats, error) {
	call := s.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).Id(videoID)

	var resp *yt.VideoListResponse
	err := withRetry(ctx, s.retry, func() error {
		var callErr error
		resp, callErr = call.Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: %w: %v", videoID, ErrSourceUnavailable, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("fetch stats for %s: %w", videoID, ErrParseMismatch)
	}

	item := resp.Items[0]
	if item.Snippet == nil || item.Statistics == nil || item.ContentDetails == nil {
		return nil, fmt.Errorf("fetch stats for %s: %w", videoID, ErrParseMismatch)
	}

	stats := &models.VideoStats{
		VideoID:         videoID,
		ChannelRef:      item.Snippet.ChannelId,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		Views:           int64(item.Statistics.ViewCount),
		Likes:           int64(item.Statistics.LikeCount),
		Comments:        int64(item.Statistics.CommentCount),
		Duration:        item.ContentDetails.Duration,
		DurationSeconds: parseDurationSeconds(item.ContentDetails.Duration),
	}

	if publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		stats.PublishedAt = publishedAt
	}

	return stats, nil
}

// FetchComments pages through all top-level comments of a video.
func (s *DataAPISource) FetchComments(ctx context.Context, videoID string) ([]string, error) {
	var comments []string
	pageToken := ""

	for {
		call := s.service.CommentThreads.List([]string{"snippet"}).
			VideoId(videoID).
			TextFormat("plainText").
			MaxResults(100)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		var resp *yt.CommentThreadListResponse
		err := withRetry(ctx, s.retry, func() error {
			var callErr error
			resp, callErr = call.Context(ctx).Do()
			return callErr
		})
		if err != nil {
			return nil, fmt.Errorf("fetch comments for %s: %w: %v", videoID, ErrSourceUnavailable, err)
		}

		for _, thread := range resp.Items {
			if thread.Snippet == nil || thread.Snippet.TopLevelComment == nil || thread.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			comments = append(comments, thread.Snippet.TopLevelComment.Snippet.TextDisplay)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return comments, nil
}

// FetchTranscript returns the video's caption text, or "" when none exists.
func (s *DataAPISource) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	return s.timedText.fetch(ctx, videoID)
}
