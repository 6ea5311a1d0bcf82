// Package ai wraps the Gemini text endpoints the pipeline depends on: one
// classification prompt per comment and one highlight-generation prompt per
// transcript. Responses are never trusted to be well formed.
package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

const (
	sentimentPromptFormat = "Analyze the sentiment of the following text and classify it as Positive or Negative. Answer with exactly one word.\n\n%s"
	highlightPromptFormat = "Highlight the positive points in the following transcript in two or three sentences:\n\n%s"

	highlightMaxTokens = 150
	sentimentMaxTokens = 10

	// Transcripts are truncated before prompting; highlights summarize, they
	// don't need the whole hour of captions.
	maxTranscriptPromptChars = 12000
)

// Analyzer issues the Gemini calls for sentiment classification and
// transcript highlights.
type Analyzer struct {
	client *genai.Client
	model  string
}

// NewAnalyzer creates a Gemini-backed analyzer.
func NewAnalyzer(ctx context.Context, apiKey, model string) (*Analyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Analyzer{client: client, model: model}, nil
}

// ClassifyComment asks the model for a one-word sentiment label and returns
// the raw response text. Callers interpret the label; anything that is not
// recognizably Positive or Negative counts as ambiguous.
func (a *Analyzer) ClassifyComment(ctx context.Context, comment string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: sentimentMaxTokens,
		Temperature:     genai.Ptr(float32(0)),
	}
	return a.generate(ctx, fmt.Sprintf(sentimentPromptFormat, comment), cfg)
}

// GenerateHighlights produces a short positive-points summary for a
// transcript. The caller treats a failure as empty highlights, not as a
// failure of the video's record.
func (a *Analyzer) GenerateHighlights(ctx context.Context, transcript string) (string, error) {
	if len(transcript) > maxTranscriptPromptChars {
		transcript = transcript[:maxTranscriptPromptChars]
	}

	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: highlightMaxTokens,
		Temperature:     genai.Ptr(float32(0.5)),
	}
	return a.generate(ctx, fmt.Sprintf(highlightPromptFormat, transcript), cfg)
}

func (a *Analyzer) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}

	var text string
	wait := 500 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := a.client.Models.GenerateContent(ctx, a.model, contents, cfg)
		if err == nil {
			text = result.Text()
			return text, nil
		}
		lastErr = err

		if !isThrottled(err) {
			return "", err
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		wait *= 2
	}
	return "", lastErr
}

// isThrottled reports whether the API rejected the call for quota or
// transient capacity reasons, which are worth a backoff-and-retry.
func isThrottled(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 500, 503:
			return true
		}
	}
	return false
}
