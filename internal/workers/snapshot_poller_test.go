package workers

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/records"
)

// fakeFetcher returns scripted results in order, repeating the last one
type fakeFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   atomic.Int32
	block   chan struct{}
}

type fetchResult struct {
	recs []records.AnimalRecord
	err  error
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]records.AnimalRecord, error) {
	n := int(f.calls.Add(1)) - 1
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &records.NetworkError{URL: "test", Err: ctx.Err()}
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if n >= len(f.results) {
		n = len(f.results) - 1
	}
	return f.results[n].recs, f.results[n].err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSnapshotPoller_InitialFetch(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{recs: []records.AnimalRecord{{ID: 1}, {ID: 2}}}}}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())

	_, err := poller.Current()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	updates, cancel := poller.Subscribe()
	defer cancel()

	poller.Start()
	defer poller.Stop()

	select {
	case v := <-updates:
		assert.Equal(t, uint64(1), v)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot published")
	}

	snap, err := poller.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.Records, 2)
	assert.True(t, poller.IsRunning())
	assert.NotNil(t, poller.LastRefresh())
}

func TestSnapshotPoller_FailureHidesStaleData(t *testing.T) {
	serviceErr := &records.ServiceError{StatusCode: 500, Message: "down"}
	fetcher := &fakeFetcher{results: []fetchResult{
		{recs: []records.AnimalRecord{{ID: 1}}},
		{err: serviceErr},
		{recs: []records.AnimalRecord{{ID: 1}, {ID: 2}, {ID: 3}}},
	}}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())
	defer poller.Stop()

	snap, err := poller.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)

	_, err = poller.Refresh(context.Background())
	require.Error(t, err)
	_, err = poller.Current()
	assert.True(t, records.IsServiceError(err))
	assert.Equal(t, "record service error 500: down", poller.Status().LastError)

	snap, err = poller.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), snap.Version)
	current, err := poller.Current()
	require.NoError(t, err)
	assert.Len(t, current.Records, 3)
	assert.Empty(t, poller.Status().LastError)
}

func TestSnapshotPoller_PauseResume(t *testing.T) {
	poller := NewSnapshotPoller(time.Hour, &fakeFetcher{results: []fetchResult{{}}}, nil, testLogger())
	defer poller.Stop()

	if poller.IsPaused() {
		t.Error("Poller should not be paused initially")
	}
	poller.Pause()
	if !poller.IsPaused() {
		t.Error("Poller should be paused after Pause()")
	}
	poller.Resume()
	if poller.IsPaused() {
		t.Error("Poller should not be paused after Resume()")
	}
}

func TestSnapshotPoller_PausedSkipsScheduledFetch(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{}}}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())
	poller.Pause()
	poller.Start()
	poller.Stop()

	assert.Equal(t, int32(0), fetcher.calls.Load())
}

func TestSnapshotPoller_StopDuringFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		results: []fetchResult{{recs: []records.AnimalRecord{{ID: 1}}}},
		block:   make(chan struct{}),
	}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())
	updates, _ := poller.Subscribe()
	poller.Start()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		poller.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.False(t, poller.IsRunning())
	_, err := poller.Current()
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Equal(t, uint64(0), poller.Status().Version)

	_, open := <-updates
	assert.False(t, open)

	_, err = poller.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrPollerStopped)
}

func TestSnapshotPoller_PurgesCache(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{recs: []records.AnimalRecord{{ID: 1}}}}}
	manager := cache.NewManager(false, time.Minute, testLogger())
	poller := NewSnapshotPoller(time.Hour, fetcher, manager, testLogger())
	defer poller.Stop()

	_, err := cache.Memoize(manager, 0, "view", func() (int, error) { return 1, nil })
	require.NoError(t, err)
	require.Equal(t, 1, manager.GetStats().Items)

	_, err = poller.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, manager.GetStats().Items)
}

func TestSnapshotPoller_RefreshHonoursCallerContext(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{}}, block: make(chan struct{})}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())
	defer poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := poller.Refresh(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSnapshotPoller_AbandonedRefreshKeepsSnapshot(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{recs: []records.AnimalRecord{{ID: 1}}}}}
	poller := NewSnapshotPoller(time.Hour, fetcher, nil, testLogger())
	defer poller.Stop()

	first, err := poller.Refresh(context.Background())
	require.NoError(t, err)

	fetcher.block = make(chan struct{})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = poller.Refresh(ctx)
	require.Error(t, err)

	snap, err := poller.Current()
	require.NoError(t, err, "a caller giving up must not hide the snapshot")
	assert.Equal(t, first.Version, snap.Version)
	assert.Empty(t, poller.Status().LastError)
}
