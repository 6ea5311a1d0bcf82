// Package storage persists per-video analysis records. The store is a
// key-value upsert surface: one row per video_id, replaced wholesale on each
// successful analysis run.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"content-strategy/internal/models"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no record exists for a video ID.
var ErrNotFound = errors.New("record not found")

// RecordStore is a SQLite-backed store of AnalysisRecords keyed by video_id.
// Upserts replace the entire row in a single statement, so concurrent writers
// for distinct videos never observe half-written rows.
type RecordStore struct {
	db *sql.DB
}

// Open opens (or creates) the store at the given path.
func Open(path string) (*RecordStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record store: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init record store schema: %w", err)
	}

	return &RecordStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS videos (
		video_id               TEXT PRIMARY KEY,
		channel_ref            TEXT NOT NULL,
		title                  TEXT NOT NULL,
		description            TEXT NOT NULL,
		views                  INTEGER NOT NULL,
		likes                  INTEGER NOT NULL,
		comments               INTEGER NOT NULL,
		duration               TEXT NOT NULL,
		duration_seconds       INTEGER NOT NULL,
		publish_date           TEXT NOT NULL,
		positive_comment_ratio REAL NOT NULL,
		negative_comment_ratio REAL NOT NULL,
		readability_score      REAL NOT NULL,
		highlights             TEXT NOT NULL,
		engagement_rate        REAL NOT NULL,
		comment_to_like_ratio  REAL NOT NULL,
		transcript_score       REAL NOT NULL,
		analyzed_at            TEXT NOT NULL
	)`)
	return err
}

// Close closes the underlying database handle.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

// UpsertRecord writes the full record for its video in one statement.
// Last writer wins per video_id; a failed upsert leaves any prior row intact.
func (s *RecordStore) UpsertRecord(ctx context.Context, record *models.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO videos (
		video_id, channel_ref, title, description, views, likes, comments,
		duration, duration_seconds, publish_date,
		positive_comment_ratio, negative_comment_ratio,
		readability_score, highlights,
		engagement_rate, comment_to_like_ratio, transcript_score, analyzed_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(video_id) DO UPDATE SET
		channel_ref            = excluded.channel_ref,
		title                  = excluded.title,
		description            = excluded.description,
		views                  = excluded.views,
		likes                  = excluded.likes,
		comments               = excluded.comments,
		duration               = excluded.duration,
		duration_seconds       = excluded.duration_seconds,
		publish_date           = excluded.publish_date,
		positive_comment_ratio = excluded.positive_comment_ratio,
		negative_comment_ratio = excluded.negative_comment_ratio,
		readability_score      = excluded.readability_score,
		highlights             = excluded.highlights,
		engagement_rate        = excluded.engagement_rate,
		comment_to_like_ratio  = excluded.comment_to_like_ratio,
		transcript_score       = excluded.transcript_score,
		analyzed_at            = excluded.analyzed_at`,
		record.VideoID, record.ChannelRef, record.Title, record.Description,
		record.Views, record.Likes, record.Comments,
		record.Duration, record.DurationSeconds, formatDate(record.PublishedAt),
		record.PositiveRatio, record.NegativeRatio,
		record.ReadabilityScore, record.Highlights,
		record.EngagementRate, record.CommentToLikeRatio, record.TranscriptScore,
		record.AnalyzedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert record for %s: %w", record.VideoID, err)
	}
	return nil
}

// GetRecord returns the record for a video, or ErrNotFound.
func (s *RecordStore) GetRecord(ctx context.Context, videoID string) (*models.AnalysisRecord, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+` FROM videos WHERE video_id = ?`, videoID)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record for %s: %w", videoID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record for %s: %w", videoID, err)
	}
	return record, nil
}

// TopVideosByViews returns up to limit records for a channel ordered by view
// count, feeding the top-performing-topics corpus.
func (s *RecordStore) TopVideosByViews(ctx context.Context, channelRef string, limit int) ([]*models.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` FROM videos WHERE channel_ref = ? ORDER BY views DESC LIMIT ?`,
		channelRef, limit)
	if err != nil {
		return nil, fmt.Errorf("query top videos for %s: %w", channelRef, err)
	}
	defer rows.Close()

	var records []*models.AnalysisRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan top videos for %s: %w", channelRef, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top videos for %s: %w", channelRef, err)
	}
	return records, nil
}

const selectColumns = `SELECT video_id, channel_ref, title, description,
	views, likes, comments, duration, duration_seconds, publish_date,
	positive_comment_ratio, negative_comment_ratio,
	readability_score, highlights,
	engagement_rate, comment_to_like_ratio, transcript_score, analyzed_at`

type scannable interface {
	Scan(dest ...any) error
}

// scanRecord reads a row into named struct fields; readers never depend on
// positional layout beyond this single helper.
func scanRecord(row scannable) (*models.AnalysisRecord, error) {
	var record models.AnalysisRecord
	var publishDate, analyzedAt string

	err := row.Scan(
		&record.VideoID, &record.ChannelRef, &record.Title, &record.Description,
		&record.Views, &record.Likes, &record.Comments,
		&record.Duration, &record.DurationSeconds, &publishDate,
		&record.PositiveRatio, &record.NegativeRatio,
		&record.ReadabilityScore, &record.Highlights,
		&record.EngagementRate, &record.CommentToLikeRatio, &record.TranscriptScore,
		&analyzedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishDate != "" {
		if t, err := time.Parse("2006-01-02", publishDate); err == nil {
			record.PublishedAt = t
		}
	}
	if t, err := time.Parse(time.RFC3339, analyzedAt); err == nil {
		record.AnalyzedAt = t
	}
	return &record, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
