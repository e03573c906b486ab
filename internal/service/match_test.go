package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cricket-tracker/internal/database"
	"cricket-tracker/internal/domain"
	"cricket-tracker/internal/repository"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[domain.Feed]string
	errs   map[domain.Feed]error
	calls  atomic.Int32
	gate   chan struct{}
}

func (f *fakeFetcher) GetFeed(ctx context.Context, feed domain.Feed) ([]byte, error) {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[feed]; err != nil {
		return nil, err
	}
	return []byte(f.bodies[feed]), nil
}

type memoryStore struct {
	mu        sync.Mutex
	snapshots []domain.Snapshot
	insertErr error
}

func (m *memoryStore) Insert(ctx context.Context, s *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.snapshots = append(m.snapshots, *s)
	return nil
}

func (m *memoryStore) ListByFeed(ctx context.Context, feed domain.Feed, limit int) ([]domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Snapshot{}
	for i := len(m.snapshots) - 1; i >= 0 && len(out) < limit; i-- {
		if m.snapshots[i].Feed == feed {
			out = append(out, m.snapshots[i])
		}
	}
	return out, nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.snapshots {
		if m.snapshots[i].ID == id {
			s := m.snapshots[i]
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) Prune(ctx context.Context, feed domain.Feed, keep int) (int64, error) {
	return 0, nil
}

func strs(records []domain.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r)
	}
	return out
}

const liveBody = `{"typeMatches":[{"matchType":"International","seriesMatches":[
	{"seriesAdWrapper":{"seriesId":1,"matches":[{"matchInfo":{"matchId":1}},{"matchInfo":{"matchId":2}}]}},
	{"adDetail":{"name":"native"}}
]}]}`

func TestGetMatches(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{domain.FeedLive: liveBody}}
	store := &memoryStore{}
	svc := NewMatchService(fetcher, store, zerolog.Nop())

	got, err := svc.GetMatches(context.Background(), domain.FeedLive)
	require.NoError(t, err)

	want := []string{`{"matchInfo":{"matchId":1}}`, `{"matchInfo":{"matchId":2}}`}
	if diff := cmp.Diff(want, strs(got)); diff != "" {
		t.Errorf("GetMatches() mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, domain.FeedLive, store.snapshots[0].Feed)
	assert.Equal(t, 2, store.snapshots[0].MatchCount)
	assert.JSONEq(t, `[{"matchInfo":{"matchId":1}},{"matchInfo":{"matchId":2}}]`, string(store.snapshots[0].Payload))
}

func TestGetMatches_EmptyIsNotAnError(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{domain.FeedUpcoming: `{"filters":{},"appIndex":{}}`}}
	store := &memoryStore{}
	svc := NewMatchService(fetcher, store, zerolog.Nop())

	got, err := svc.GetMatches(context.Background(), domain.FeedUpcoming)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.Len(t, store.snapshots, 1)
	assert.Equal(t, "[]", string(store.snapshots[0].Payload))
}

func TestGetMatches_Errors(t *testing.T) {
	upstream := errors.New("connection refused")
	fetcher := &fakeFetcher{
		bodies: map[domain.Feed]string{domain.FeedRecent: `{"typeMatches":[`},
		errs:   map[domain.Feed]error{domain.FeedLive: upstream},
	}
	store := &memoryStore{}
	svc := NewMatchService(fetcher, store, zerolog.Nop())

	_, err := svc.GetMatches(context.Background(), domain.FeedLive)
	assert.ErrorIs(t, err, upstream)
	assert.EqualError(t, err, "failed to fetch live matches: connection refused")

	_, err = svc.GetMatches(context.Background(), domain.FeedRecent)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	assert.Empty(t, store.snapshots)
}

func TestGetMatches_ConcatenatedBodyIsMalformed(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{
		domain.FeedLive: `{"matches":[{"matchInfo":{"matchId":1}}]} {"matches":[{"matchInfo":{"matchId":2}}]}`,
	}}
	store := &memoryStore{}
	svc := NewMatchService(fetcher, store, zerolog.Nop())

	_, err := svc.GetMatches(context.Background(), domain.FeedLive)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.Empty(t, store.snapshots)
}

func TestGetMatches_CancelledCallerDoesNotFailOthers(t *testing.T) {
	fetcher := &fakeFetcher{
		bodies: map[domain.Feed]string{domain.FeedLive: liveBody},
		gate:   make(chan struct{}),
	}
	svc := NewMatchService(fetcher, &memoryStore{}, zerolog.Nop())

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.GetMatches(leaderCtx, domain.FeedLive)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	var (
		got []domain.Record
		err error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		got, err = svc.GetMatches(context.Background(), domain.FeedLive)
	}()

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	// let the second caller join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)
	<-done

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestGetMatches_SnapshotFailureDoesNotFailFetch(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{domain.FeedLive: liveBody}}
	svc := NewMatchService(fetcher, &memoryStore{insertErr: errors.New("disk full")}, zerolog.Nop())

	got, err := svc.GetMatches(context.Background(), domain.FeedLive)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestGetMatches_SharesInFlightFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		bodies: map[domain.Feed]string{domain.FeedLive: liveBody},
		gate:   make(chan struct{}),
	}
	svc := NewMatchService(fetcher, &memoryStore{}, zerolog.Nop())

	const callers = 5
	var wg sync.WaitGroup
	results := make([][]domain.Record, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.GetMatches(context.Background(), domain.FeedLive)
		}()
	}

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// let the remaining callers join the in-flight request before releasing it
	time.Sleep(50 * time.Millisecond)
	close(fetcher.gate)
	wg.Wait()

	assert.Equal(t, int32(1), fetcher.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Len(t, results[i], 2)
	}
}

func TestGetOverview(t *testing.T) {
	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{
		domain.FeedLive:     liveBody,
		domain.FeedUpcoming: `{"typeMatches":[]}`,
		domain.FeedRecent:   `{"matches":[{"matchInfo":{"matchId":9}}]}`,
	}}
	svc := NewMatchService(fetcher, &memoryStore{}, zerolog.Nop())

	overview, err := svc.GetOverview(context.Background())
	require.NoError(t, err)

	assert.Len(t, overview[domain.FeedLive], 2)
	assert.Empty(t, overview[domain.FeedUpcoming])
	assert.Equal(t, []string{`{"matchInfo":{"matchId":9}}`}, strs(overview[domain.FeedRecent]))
}

func TestGetOverview_FailsWhenAnyFeedFails(t *testing.T) {
	fetcher := &fakeFetcher{
		bodies: map[domain.Feed]string{domain.FeedLive: liveBody, domain.FeedUpcoming: `[]`},
		errs:   map[domain.Feed]error{domain.FeedRecent: errors.New("timeout")},
	}
	svc := NewMatchService(fetcher, &memoryStore{}, zerolog.Nop())

	_, err := svc.GetOverview(context.Background())
	assert.EqualError(t, err, "failed to fetch recent matches: timeout")
}

func TestHistory_WithSQLite(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "history.db"), zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()

	fetcher := &fakeFetcher{bodies: map[domain.Feed]string{domain.FeedLive: liveBody}}
	svc := NewMatchService(fetcher, repository.NewSnapshotRepository(db, zerolog.Nop()), zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := svc.GetMatches(context.Background(), domain.FeedLive)
		require.NoError(t, err)
	}

	history, err := svc.History(context.Background(), domain.FeedLive, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 2, history[0].MatchCount)

	all, err := svc.History(context.Background(), domain.FeedLive, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := svc.History(context.Background(), domain.FeedRecent, 500)
	require.NoError(t, err)
	assert.Empty(t, none)

	snapshot, err := svc.Snapshot(context.Background(), domain.FeedLive, history[0].ID)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"matchInfo":{"matchId":1}},{"matchInfo":{"matchId":2}}]`, string(snapshot.Payload))

	_, err = svc.Snapshot(context.Background(), domain.FeedRecent, history[0].ID)
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	_, err = svc.Snapshot(context.Background(), domain.FeedLive, "missing")
	assert.ErrorIs(t, err, ErrSnapshotNotFound)
}
