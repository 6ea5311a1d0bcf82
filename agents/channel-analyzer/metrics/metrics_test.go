package metrics

import (
	"math"
	"testing"

	"content-strategy/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEngagementRate(t *testing.T) {
	tests := []struct {
		name                   string
		likes, comments, views int64
		want                   float64
	}{
		{"typical video", 500, 50, 10000, 0.055},
		{"zero views", 500, 50, 0, 0},
		{"no engagement", 0, 0, 10000, 0},
		{"more engagement than views", 800, 400, 1000, 1.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EngagementRate(tt.likes, tt.comments, tt.views)
			if !almostEqual(got, tt.want) {
				t.Errorf("EngagementRate(%d, %d, %d) = %v, want %v", tt.likes, tt.comments, tt.views, got, tt.want)
			}
		})
	}
}

func TestCommentToLikeRatio(t *testing.T) {
	tests := []struct {
		name            string
		comments, likes int64
		want            float64
	}{
		{"typical video", 50, 500, 0.1},
		{"zero likes", 50, 0, 0},
		{"more comments than likes", 300, 100, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CommentToLikeRatio(tt.comments, tt.likes)
			if !almostEqual(got, tt.want) {
				t.Errorf("CommentToLikeRatio(%d, %d) = %v, want %v", tt.comments, tt.likes, got, tt.want)
			}
		})
	}
}

func TestTranscriptScore(t *testing.T) {
	tests := []struct {
		name                   string
		likes, comments, views int64
		want                   float64
	}{
		{"typical video", 500, 50, 10000, 0.55},
		{"zero views", 500, 50, 0, 0},
		{"clamped at ten", 5000, 5000, 100, 10},
		{"exactly ten", 500, 500, 1000, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranscriptScore(tt.likes, tt.comments, tt.views)
			if !almostEqual(got, tt.want) {
				t.Errorf("TranscriptScore(%d, %d, %d) = %v, want %v", tt.likes, tt.comments, tt.views, got, tt.want)
			}
		})
	}
}

func TestDerive(t *testing.T) {
	stats := &models.VideoStats{Views: 10000, Likes: 500, Comments: 50}
	got := Derive(stats)

	if !almostEqual(got.EngagementRate, 0.055) {
		t.Errorf("EngagementRate = %v, want 0.055", got.EngagementRate)
	}
	if !almostEqual(got.CommentToLikeRatio, 0.1) {
		t.Errorf("CommentToLikeRatio = %v, want 0.1", got.CommentToLikeRatio)
	}
	if !almostEqual(got.TranscriptScore, 0.55) {
		t.Errorf("TranscriptScore = %v, want 0.55", got.TranscriptScore)
	}
}
