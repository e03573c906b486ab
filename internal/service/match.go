package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"cricket-tracker/internal/constants"
	"cricket-tracker/internal/domain"
	"cricket-tracker/internal/matches"
	"cricket-tracker/internal/middleware"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var (
	ErrMalformedPayload = errors.New("upstream payload is not valid JSON")
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

type FeedFetcher interface {
	GetFeed(ctx context.Context, feed domain.Feed) ([]byte, error)
}

type SnapshotStore interface {
	Insert(ctx context.Context, snapshot *domain.Snapshot) error
	ListByFeed(ctx context.Context, feed domain.Feed, limit int) ([]domain.Snapshot, error)
	Get(ctx context.Context, id string) (*domain.Snapshot, error)
	Prune(ctx context.Context, feed domain.Feed, keep int) (int64, error)
}

type MatchService struct {
	fetcher   FeedFetcher
	snapshots SnapshotStore
	flight    singleflight.Group
	logger    zerolog.Logger
}

func NewMatchService(fetcher FeedFetcher, snapshots SnapshotStore, logger zerolog.Logger) *MatchService {
	return &MatchService{fetcher: fetcher, snapshots: snapshots, logger: logger}
}

// Overview holds the records of every feed, keyed by feed name.
type Overview map[domain.Feed][]domain.Record

// GetMatches fetches feed upstream and flattens it. Concurrent calls for the
// same feed share one upstream request. The shared request is detached from
// every caller's cancellation; a caller that gives up only stops waiting.
func (s *MatchService) GetMatches(ctx context.Context, feed domain.Feed) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	ch := s.flight.DoChan(string(feed), func() (any, error) {
		return s.fetch(context.WithoutCancel(ctx), feed)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("failed to fetch %s matches: %w", feed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug().Str("feed", string(feed)).Str("request_id", middleware.GetRequestID(ctx)).Msg("shared in-flight upstream fetch")
		}
		return slices.Clone(res.Val.([]domain.Record)), nil
	}
}

func (s *MatchService) fetch(ctx context.Context, feed domain.Feed) ([]domain.Record, error) {
	requestID := middleware.GetRequestID(ctx)

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	start := time.Now()
	body, err := s.fetcher.GetFeed(apiCtx, feed)
	if err != nil {
		s.logger.Error().Err(err).Str("feed", string(feed)).Str("request_id", requestID).Msg("failed to fetch feed")
		return nil, fmt.Errorf("failed to fetch %s matches: %w", feed, err)
	}

	if !matches.Valid(body) {
		s.logger.Error().Str("feed", string(feed)).Int("bytes", len(body)).Str("request_id", requestID).Msg("malformed upstream payload")
		return nil, fmt.Errorf("failed to fetch %s matches: %w", feed, ErrMalformedPayload)
	}

	records := matches.Extract(body)
	s.logger.Info().
		Str("feed", string(feed)).
		Int("match_count", len(records)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Str("request_id", requestID).
		Msg("feed extracted")

	s.recordSnapshot(ctx, feed, records, requestID)
	return records, nil
}

// recordSnapshot logs failures instead of returning them; the snapshot log
// never blocks serving a fresh result.
func (s *MatchService) recordSnapshot(ctx context.Context, feed domain.Feed, records []domain.Record, requestID string) {
	dbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.DatabaseTimeout)
	defer cancel()

	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(records)
	if err != nil {
		s.logger.Warn().Err(err).Str("feed", string(feed)).Msg("failed to encode snapshot")
		return
	}

	snapshot := &domain.Snapshot{
		Feed:       feed,
		MatchCount: len(records),
		Payload:    payload,
		RequestID:  requestID,
		FetchedAt:  time.Now(),
	}
	if err := s.snapshots.Insert(dbCtx, snapshot); err != nil {
		s.logger.Warn().Err(err).Str("feed", string(feed)).Msg("failed to record snapshot")
		return
	}
	if _, err := s.snapshots.Prune(dbCtx, feed, constants.SnapshotRetention); err != nil {
		s.logger.Warn().Err(err).Str("feed", string(feed)).Msg("failed to prune snapshots")
	}
}

// GetOverview fetches every feed concurrently. Any feed failing fails the
// whole overview.
func (s *MatchService) GetOverview(ctx context.Context) (Overview, error) {
	feeds := domain.Feeds()
	results := make([][]domain.Record, len(feeds))

	g, gCtx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		g.Go(func() error {
			records, err := s.GetMatches(gCtx, feed)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to build overview")
		return nil, err
	}

	overview := make(Overview, len(feeds))
	for i, feed := range feeds {
		overview[feed] = results[i]
	}
	return overview, nil
}

func (s *MatchService) History(ctx context.Context, feed domain.Feed, limit int) ([]domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	switch {
	case limit <= 0:
		limit = constants.DefaultSnapshotLimit
	case limit > constants.MaxSnapshotLimit:
		limit = constants.MaxSnapshotLimit
	}

	snapshots, err := s.snapshots.ListByFeed(ctx, feed, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("feed", string(feed)).Msg("failed to list snapshots")
		return nil, fmt.Errorf("failed to list %s snapshots: %w", feed, err)
	}
	return snapshots, nil
}

// Snapshot loads one recorded snapshot of feed, payload included.
func (s *MatchService) Snapshot(ctx context.Context, feed domain.Feed, id string) (*domain.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	snapshot, err := s.snapshots.Get(ctx, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrSnapshotNotFound
	case err != nil:
		s.logger.Error().Err(err).Str("id", id).Msg("failed to load snapshot")
		return nil, fmt.Errorf("failed to load snapshot %s: %w", id, err)
	case snapshot.Feed != feed:
		return nil, ErrSnapshotNotFound
	}
	return snapshot, nil
}
