package ai

import (
	"context"
	"log"
	"strings"
	"unicode"

	"content-strategy/internal/models"
)

// CommentClassifier produces a raw sentiment label for one comment.
type CommentClassifier interface {
	ClassifyComment(ctx context.Context, comment string) (string, error)
}

// SentimentScorer classifies a video's comments concurrently and aggregates
// the results into positive/negative ratios.
//
// Ratio policy: the denominator is the full comment count. A comment whose
// classification fails or returns neither label stays in the denominator and
// counts toward neither ratio, so 6 positive + 3 negative + 1 ambiguous out
// of 10 comments yields 0.6 and 0.3.
type SentimentScorer struct {
	classifier CommentClassifier
	workers    int
}

// NewSentimentScorer builds a scorer with the given classification fan-out
// limit. The limit is per video; classification calls for one video never
// exceed it regardless of how many comments the video has.
func NewSentimentScorer(classifier CommentClassifier, workers int) *SentimentScorer {
	if workers <= 0 {
		workers = 8
	}
	return &SentimentScorer{classifier: classifier, workers: workers}
}

// Score classifies every comment with bounded concurrency and waits for all
// of them to settle before computing ratios. One comment's failure never
// affects the others. Zero comments yields zero ratios, not NaN.
func (s *SentimentScorer) Score(ctx context.Context, comments []string) models.SentimentSummary {
	if len(comments) == 0 {
		return models.SentimentSummary{}
	}

	results := make(chan string, len(comments))
	sem := make(chan struct{}, s.workers)

	for _, comment := range comments {
		go func(comment string) {
			sem <- struct{}{}
			defer func() { <-sem }()

			raw, err := s.classifier.ClassifyComment(ctx, comment)
			if err != nil {
				log.Printf("Comment classification failed, counting as ambiguous: %v", err)
				results <- ""
				return
			}
			results <- raw
		}(comment)
	}

	var positive, negative int
	for range comments {
		label, ok := parseSentimentLabel(<-results)
		if !ok {
			continue
		}
		switch label {
		case "Positive":
			positive++
		case "Negative":
			negative++
		}
	}

	total := float64(len(comments))
	return models.SentimentSummary{
		PositiveRatio: float64(positive) / total,
		NegativeRatio: float64(negative) / total,
	}
}

// parseSentimentLabel normalizes a model response to one of the two expected
// labels. Anything else is ambiguous and excluded from both counts.
func parseSentimentLabel(raw string) (string, bool) {
	cleaned := strings.TrimFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	switch strings.ToLower(cleaned) {
	case "positive":
		return "Positive", true
	case "negative":
		return "Negative", true
	}
	return "", false
}
