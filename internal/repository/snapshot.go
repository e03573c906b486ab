package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"cricket-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type SnapshotRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewSnapshotRepository(sqlDB *sql.DB, logger zerolog.Logger) *SnapshotRepository {
	return &SnapshotRepository{
		db:     sqlDB,
		logger: logger,
	}
}

func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		snapshot.ID = id
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now()
	}
	snapshot.FetchedAt = snapshot.FetchedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_snapshots (id, feed, match_count, payload, request_id, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		snapshot.ID,
		string(snapshot.Feed),
		snapshot.MatchCount,
		snapshot.Payload,
		snapshot.RequestID,
		snapshot.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot %s: %w", snapshot.ID, err)
	}
	return nil
}

// ListByFeed returns snapshot metadata, newest first. Payloads are not loaded.
func (r *SnapshotRepository) ListByFeed(ctx context.Context, feed domain.Feed, limit int) ([]domain.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, feed, match_count, request_id, fetched_at
		 FROM feed_snapshots
		 WHERE feed = ?
		 ORDER BY fetched_at DESC, rowid DESC
		 LIMIT ?`,
		string(feed), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := []domain.Snapshot{}
	for rows.Next() {
		var (
			s        domain.Snapshot
			feedName string
		)
		if err := rows.Scan(&s.ID, &feedName, &s.MatchCount, &s.RequestID, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		s.Feed = domain.Feed(feedName)
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

func (r *SnapshotRepository) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	var (
		s        domain.Snapshot
		feedName string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, feed, match_count, payload, request_id, fetched_at
		 FROM feed_snapshots
		 WHERE id = ?`,
		id,
	).Scan(&s.ID, &feedName, &s.MatchCount, &s.Payload, &s.RequestID, &s.FetchedAt)
	if err != nil {
		return nil, err
	}
	s.Feed = domain.Feed(feedName)
	return &s, nil
}

// Prune keeps the newest keep snapshots of feed and reports how many rows
// were deleted.
func (r *SnapshotRepository) Prune(ctx context.Context, feed domain.Feed, keep int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM feed_snapshots
		 WHERE feed = ? AND id NOT IN (
		     SELECT id FROM feed_snapshots
		     WHERE feed = ?
		     ORDER BY fetched_at DESC, rowid DESC
		     LIMIT ?
		 )`,
		string(feed), string(feed), keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s snapshots: %w", feed, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		r.logger.Debug().Str("feed", string(feed)).Int64("deleted", deleted).Msg("pruned snapshots")
	}
	return deleted, nil
}
