package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"content-strategy/internal/models"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

// Selectors for the fields we extract from channel and watch pages. Selector
// drift shows up as ErrParseMismatch on the affected unit, never as a crash.
const (
	selVideoLink    = "a.yt-simple-endpoint.style-scope.ytd-grid-video-renderer"
	selCommentText  = "yt-formatted-string.style-scope.ytd-comment-renderer"
	selContinuation = "[data-continuation]"
)

// errStatusNotFound marks a 404 from the source; callers decide what a
// missing page means for their unit.
var errStatusNotFound = errors.New("page not found")

// ScrapeSource retrieves channel and video data by scraping public pages.
// Every request passes through a rate limiter sized for the upstream, and
// throttle or 5xx responses are retried with backoff before the unit is
// reported unavailable.
//
// Pagination follows the data-continuation token embedded in each page and
// stops when a page carries none; ordering beyond date/viewCount and date
// windows are not expressible in page URLs, so the pipeline enforces the
// window after stats are fetched.
type ScrapeSource struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	retry     retryConfig
	timedText *timedTextClient
	userAgent string
}

// NewScrapeSource builds a scraping source limited to requestsPerSecond
// against the public site.
func NewScrapeSource(requestsPerSecond float64) *ScrapeSource {
	return newScrapeSource(&http.Client{Timeout: 20 * time.Second}, "https://www.youtube.com", requestsPerSecond)
}

func newScrapeSource(client *http.Client, baseURL string, requestsPerSecond float64) *ScrapeSource {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &ScrapeSource{
		client:    client,
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		baseURL:   baseURL,
		retry:     defaultRetry,
		timedText: newTimedTextClient(client, baseURL),
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// Discover pages through a channel's videos grid, following the continuation
// token until a page carries none. A 404 on the channel page itself means the
// reference does not resolve.
func (s *ScrapeSource) Discover(ctx context.Context, channelRef string, window Window, order Order) ([]string, error) {
	var videoIDs []string
	seen := make(map[string]bool)
	continuation := ""

	for {
		pageURL := s.channelVideosURL(channelRef, order, continuation)
		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			if errors.Is(err, errStatusNotFound) {
				return nil, fmt.Errorf("discover channel %s: %w", channelRef, ErrChannelNotFound)
			}
			return nil, fmt.Errorf("discover channel %s: %w: %v", channelRef, ErrSourceUnavailable, err)
		}

		doc.Find(selVideoLink).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			id := videoIDFromHref(href)
			if id != "" && !seen[id] {
				seen[id] = true
				videoIDs = append(videoIDs, id)
			}
		})

		next, _ := doc.Find(selContinuation).First().Attr("data-continuation")
		if next == "" || next == continuation {
			break
		}
		continuation = next
	}

	log.Printf("Discovered %d videos for channel %s via scraping", len(videoIDs), channelRef)
	return videoIDs, nil
}

// FetchStats extracts a video's metadata and counters from its watch page.
// Any required field missing from the markup fails this video only.
func (s *ScrapeSource) FetchStats(ctx context.Context, videoID string) (*models.VideoStats, error) {
	doc, err := s.fetchDocument(ctx, s.watchURL(videoID, ""))
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: %w: %v", videoID, ErrSourceUnavailable, err)
	}

	title, ok := doc.Find(`meta[name="title"]`).Attr("content")
	if !ok || title == "" {
		return nil, fmt.Errorf("fetch stats for %s: title: %w", videoID, ErrParseMismatch)
	}
	description, ok := doc.Find(`meta[name="description"]`).Attr("content")
	if !ok {
		return nil, fmt.Errorf("fetch stats for %s: description: %w", videoID, ErrParseMismatch)
	}

	viewsRaw, ok := doc.Find(`meta[itemprop="interactionCount"]`).Attr("content")
	if !ok {
		return nil, fmt.Errorf("fetch stats for %s: views: %w", videoID, ErrParseMismatch)
	}
	views, err := parseCount(viewsRaw)
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: views %q: %w", videoID, viewsRaw, ErrParseMismatch)
	}

	likes, err := parseCount(doc.Find(`button[title="I like this"]`).First().Text())
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: likes: %w", videoID, ErrParseMismatch)
	}

	comments, err := parseCount(doc.Find("h2#count").First().Text())
	if err != nil {
		return nil, fmt.Errorf("fetch stats for %s: comments: %w", videoID, ErrParseMismatch)
	}

	stats := &models.VideoStats{
		VideoID:     videoID,
		Title:       title,
		Description: description,
		Views:       views,
		Likes:       likes,
		Comments:    comments,
	}

	if channelID, ok := doc.Find(`meta[itemprop="channelId"]`).Attr("content"); ok {
		stats.ChannelRef = channelID
	}
	if duration, ok := doc.Find(`meta[itemprop="duration"]`).Attr("content"); ok {
		stats.Duration = duration
		stats.DurationSeconds = parseDurationSeconds(duration)
	}
	if published, ok := doc.Find(`meta[itemprop="datePublished"]`).Attr("content"); ok {
		if t, err := time.Parse("2006-01-02", published); err == nil {
			stats.PublishedAt = t
		}
	}

	return stats, nil
}

// FetchComments pages through the rendered comments of a watch page.
func (s *ScrapeSource) FetchComments(ctx context.Context, videoID string) ([]string, error) {
	var comments []string
	continuation := ""

	for {
		doc, err := s.fetchDocument(ctx, s.watchURL(videoID, continuation))
		if err != nil {
			return nil, fmt.Errorf("fetch comments for %s: %w: %v", videoID, ErrSourceUnavailable, err)
		}

		doc.Find(selCommentText).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text != "" {
				comments = append(comments, text)
			}
		})

		next, _ := doc.Find(selContinuation).First().Attr("data-continuation")
		if next == "" || next == continuation {
			break
		}
		continuation = next
	}

	return comments, nil
}

// FetchTranscript returns the video's caption text, or "" when none exists.
func (s *ScrapeSource) FetchTranscript(ctx context.Context, videoID string) (string, error) {
	return s.timedText.fetch(ctx, videoID)
}

// fetchDocument gets a page through the rate limiter, retrying throttle and
// transient failures with backoff.
func (s *ScrapeSource) fetchDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	var doc *goquery.Document

	err := withRetry(ctx, s.retry, func() error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", s.userAgent)

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return &rateLimitedError{status: resp.StatusCode}
		case resp.StatusCode >= 500:
			return &transientStatusError{status: resp.StatusCode}
		case resp.StatusCode == http.StatusNotFound:
			return errStatusNotFound
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return fmt.Errorf("parse page: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *ScrapeSource) channelVideosURL(channelRef string, order Order, continuation string) string {
	var path string
	if strings.HasPrefix(channelRef, "UC") {
		path = fmt.Sprintf("%s/channel/%s/videos", s.baseURL, url.PathEscape(channelRef))
	} else {
		// Handle references arrive with or without the @; the page path
		// carries exactly one.
		handle := strings.TrimPrefix(channelRef, "@")
		path = fmt.Sprintf("%s/@%s/videos", s.baseURL, url.PathEscape(handle))
	}

	query := url.Values{}
	// The grid only understands date and popularity sorting; other orderings
	// fall back to the page default.
	switch order {
	case OrderDate:
		query.Set("sort", "dd")
	case OrderViewCount:
		query.Set("sort", "p")
	}
	if continuation != "" {
		query.Set("continuation", continuation)
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}

func (s *ScrapeSource) watchURL(videoID, continuation string) string {
	query := url.Values{}
	query.Set("v", videoID)
	if continuation != "" {
		query.Set("continuation", continuation)
	}
	return fmt.Sprintf("%s/watch?%s", s.baseURL, query.Encode())
}

// videoIDFromHref extracts the video ID from a watch link.
func videoIDFromHref(href string) string {
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return parsed.Query().Get("v")
}

// parseCount normalizes a displayed count ("12,345", "1 234") to an integer.
func parseCount(raw string) (int64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', ' ':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return 0, fmt.Errorf("empty count")
	}
	return strconv.ParseInt(cleaned, 10, 64)
}
