package models

import "time"

// VideoStats holds the raw per-video statistics fetched from the source.
// Each analysis run produces a fresh VideoStats; prior values are never merged.
type VideoStats struct {
	VideoID         string    `json:"video_id"`
	ChannelRef      string    `json:"channel_ref"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Views           int64     `json:"views"`
	Likes           int64     `json:"likes"`
	Comments        int64     `json:"comments"`
	Duration        string    `json:"duration"`
	DurationSeconds int       `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`
}

// SentimentSummary aggregates per-comment sentiment classifications for one
// video. Ratios are computed over the full comment count, so comments whose
// classification failed or was ambiguous push both ratios down; the two
// ratios need not sum to 1.
type SentimentSummary struct {
	PositiveRatio float64 `json:"positive_comment_ratio"`
	NegativeRatio float64 `json:"negative_comment_ratio"`
}

// TranscriptInsight holds the transcript-derived signals for one video.
// ReadabilityScore is on the Flesch Reading Ease scale; an empty transcript
// scores 0. Highlights may be empty when the generation call failed.
type TranscriptInsight struct {
	ReadabilityScore float64 `json:"readability_score"`
	Highlights       string  `json:"highlights"`
}

// DerivedMetrics are the pure-function metrics computed from raw counts.
type DerivedMetrics struct {
	EngagementRate     float64 `json:"engagement_rate"`
	CommentToLikeRatio float64 `json:"comment_to_like_ratio"`
	TranscriptScore    float64 `json:"transcript_score"`
}

// AnalysisRecord is the full per-video result persisted after one enrichment
// run, keyed by VideoID. The record store replaces the whole row on upsert;
// a record always reflects the most recent run that completed for its video.
type AnalysisRecord struct {
	VideoStats
	SentimentSummary
	TranscriptInsight
	DerivedMetrics
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// AnalysisResult is what a completed pipeline run returns to the caller.
type AnalysisResult struct {
	ChannelRef          string   `json:"channel_ref"`
	VideosDiscovered    int      `json:"videos_discovered"`
	VideosAnalyzed      int      `json:"videos_analyzed"`
	VideosSkipped       int      `json:"videos_skipped"`
	ContentGaps         []string `json:"content_gaps"`
	TopPerformingTopics []string `json:"top_performing_topics"`
}
