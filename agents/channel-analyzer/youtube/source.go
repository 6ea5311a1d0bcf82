// Package youtube provides the video source capability the analysis pipeline
// runs against. The pipeline only sees the Source interface; the concrete
// retrieval mechanism (official Data API or page scraping) is an adapter
// concern, so selector or API drift never leaks into orchestration logic.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"content-strategy/internal/models"
)

var (
	// ErrChannelNotFound means the channel reference could not be resolved at
	// all. This is the only discovery failure that fails a whole pipeline run;
	// a resolvable channel with zero videos is a valid empty result.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrSourceUnavailable marks a transient retrieval failure (timeout,
	// non-success status after retries). Recoverable per video or comment.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParseMismatch marks retrieved content whose expected structure is
	// absent (selector drift, missing field). Handled like ErrSourceUnavailable:
	// skip the unit, never crash the batch.
	ErrParseMismatch = errors.New("expected structure missing")
)

// Order selects the discovery ordering. The values are the literal orderings
// the upstream search API accepts.
type Order string

const (
	OrderDate       Order = "date"
	OrderRating     Order = "rating"
	OrderRelevance  Order = "relevance"
	OrderTitle      Order = "title"
	OrderVideoCount Order = "videoCount"
	OrderViewCount  Order = "viewCount"
)

// ParseOrder validates an ordering parameter, defaulting to date when empty.
func ParseOrder(s string) (Order, error) {
	if s == "" {
		return OrderDate, nil
	}
	switch o := Order(s); o {
	case OrderDate, OrderRating, OrderRelevance, OrderTitle, OrderVideoCount, OrderViewCount:
		return o, nil
	}
	return "", fmt.Errorf("invalid order %q", s)
}

// Window bounds discovery by publish date. Zero times mean unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded on both sides.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Source is the capability the pipeline needs from a video platform.
type Source interface {
	// Discover resolves the deduplicated video IDs of a channel for the given
	// window and ordering, following pagination until the source reports no
	// further page. Returns ErrChannelNotFound when the reference itself does
	// not resolve, as opposed to an empty slice for "no videos in window".
	Discover(ctx context.Context, channelRef string, window Window, order Order) ([]string, error)

	// FetchStats retrieves a video's metadata and raw counters.
	FetchStats(ctx context.Context, videoID string) (*models.VideoStats, error)

	// FetchComments retrieves all available comments for a video, paged until
	// exhausted.
	FetchComments(ctx context.Context, videoID string) ([]string, error)

	// FetchTranscript returns the video's transcript text, or "" when no
	// transcript exists. A missing transcript is a valid state, not an error.
	FetchTranscript(ctx context.Context, videoID string) (string, error)
}
