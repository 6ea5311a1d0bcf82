package youtube

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// timedTextClient fetches caption tracks from the public timedtext endpoint.
// Both source adapters use it: the Data API only exposes caption downloads to
// the video owner, so transcripts come from here either way.
type timedTextClient struct {
	client  *http.Client
	baseURL string
	lang    string
	retry   retryConfig
}

func newTimedTextClient(client *http.Client, baseURL string) *timedTextClient {
	return &timedTextClient{
		client:  client,
		baseURL: baseURL,
		lang:    "en",
		retry:   defaultRetry,
	}
}

type timedTextDocument struct {
	Lines []struct {
		Text string `xml:",chardata"`
	} `xml:"text"`
}

// fetch returns the transcript text for a video, or "" when the video has no
// caption track. A missing transcript is not an error; throttle and 5xx
// responses are retried with backoff like every other source call.
func (t *timedTextClient) fetch(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s/api/timedtext?lang=%s&v=%s", t.baseURL, t.lang, url.QueryEscape(videoID))

	var body []byte
	var missing bool
	err := withRetry(ctx, t.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("build timedtext request: %w", err)
		}

		resp, err := t.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			missing = true
			return nil
		case resp.StatusCode == http.StatusTooManyRequests:
			return &rateLimitedError{status: resp.StatusCode}
		case resp.StatusCode >= 500:
			return &transientStatusError{status: resp.StatusCode}
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("fetch transcript for %s: %w: %v", videoID, ErrSourceUnavailable, err)
	}
	if missing {
		return "", nil
	}

	if len(strings.TrimSpace(string(body))) == 0 {
		// No caption track published for this video.
		return "", nil
	}

	var doc timedTextDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("parse transcript for %s: %w", videoID, ErrParseMismatch)
	}

	lines := make([]string, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, " "), nil
}
