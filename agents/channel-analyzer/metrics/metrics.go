// Package metrics computes derived engagement metrics from raw video counts.
// Everything here is pure: no I/O, no state, division by zero yields 0.
package metrics

import "content-strategy/internal/models"

// EngagementRate returns (likes+comments)/views, or 0 when there are no views.
func EngagementRate(likes, comments, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments) / float64(views)
}

// CommentToLikeRatio returns comments/likes, or 0 when there are no likes.
func CommentToLikeRatio(comments, likes int64) float64 {
	if likes <= 0 {
		return 0
	}
	return float64(comments) / float64(likes)
}

// TranscriptScore maps engagement onto a 0-10 scale, clamped at 10.
func TranscriptScore(likes, comments, views int64) float64 {
	if views <= 0 {
		return 0
	}
	score := float64(likes+comments) / float64(views) * 10
	if score > 10 {
		return 10
	}
	return score
}

// Derive computes all three metrics for a video's stats.
func Derive(stats *models.VideoStats) models.DerivedMetrics {
	return models.DerivedMetrics{
		EngagementRate:     EngagementRate(stats.Likes, stats.Comments, stats.Views),
		CommentToLikeRatio: CommentToLikeRatio(stats.Comments, stats.Likes),
		TranscriptScore:    TranscriptScore(stats.Likes, stats.Comments, stats.Views),
	}
}
