package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"abc-dashboard/internal/cache"
	"abc-dashboard/internal/records"
)

var (
	// ErrNoSnapshot is returned before the first fetch completes
	ErrNoSnapshot = errors.New("records have not been loaded yet")
	// ErrPollerStopped is returned by Refresh after Stop
	ErrPollerStopped = errors.New("snapshot poller is stopped")
)

// PollerStatus describes the poller for the admin API
type PollerStatus struct {
	Running     bool      `json:"running"`
	Paused      bool      `json:"paused"`
	Version     uint64    `json:"version"`
	Records     int       `json:"records"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	LastAttempt time.Time `json:"last_attempt,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Interval    string    `json:"interval"`
}

// SnapshotPoller keeps the in-memory record snapshot fresh. Every
// successful fetch replaces the snapshot wholesale under a new version;
// a failed fetch hides the previous snapshot until the next success.
type SnapshotPoller struct {
	ctx      context.Context
	cancel   context.CancelFunc
	interval time.Duration
	fetcher  records.Fetcher
	cache    *cache.Manager
	paused   atomic.Bool
	started  atomic.Bool
	done     chan struct{}
	logger   *slog.Logger

	// fetchMu serializes scheduled and manual fetches
	fetchMu sync.Mutex

	mu          sync.RWMutex
	current     *records.Snapshot
	lastErr     error
	lastAttempt time.Time
	version     uint64
	subscribers map[chan uint64]struct{}
}

// NewSnapshotPoller creates a poller that fetches every interval; call
// Start to begin fetching
func NewSnapshotPoller(interval time.Duration, fetcher records.Fetcher, cacheManager *cache.Manager, logger *slog.Logger) *SnapshotPoller {
	ctx, cancel := context.WithCancel(context.Background())
	return &SnapshotPoller{
		ctx:         ctx,
		cancel:      cancel,
		interval:    interval,
		fetcher:     fetcher,
		cache:       cacheManager,
		done:        make(chan struct{}),
		logger:      logger,
		subscribers: make(map[chan uint64]struct{}),
	}
}

// Start fetches immediately and then on every poll interval. Calling
// Start twice has no effect.
func (p *SnapshotPoller) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.logger.Info("Starting snapshot poller", "interval", p.interval)
	go p.pollLoop()
}

// Stop cancels the loop and waits for it to exit. After Stop returns the
// snapshot is never modified again.
func (p *SnapshotPoller) Stop() {
	p.logger.Info("Stopping snapshot poller")
	p.cancel()
	if p.started.Load() {
		<-p.done
	}

	p.mu.Lock()
	for ch := range p.subscribers {
		close(ch)
		delete(p.subscribers, ch)
	}
	p.mu.Unlock()
}

// Pause temporarily skips scheduled fetches
func (p *SnapshotPoller) Pause() {
	p.paused.Store(true)
	p.logger.Info("Snapshot poller paused")
}

// Resume re-enables scheduled fetches
func (p *SnapshotPoller) Resume() {
	p.paused.Store(false)
	p.logger.Info("Snapshot poller resumed")
}

// IsPaused returns true if the poller is currently paused
func (p *SnapshotPoller) IsPaused() bool {
	return p.paused.Load()
}

// IsRunning returns true until Stop is called
func (p *SnapshotPoller) IsRunning() bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
		return p.started.Load()
	}
}

// Current returns the latest snapshot, or the error of the latest fetch
// if it failed
func (p *SnapshotPoller) Current() (*records.Snapshot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastErr != nil {
		return nil, p.lastErr
	}
	if p.current == nil {
		return nil, ErrNoSnapshot
	}
	return p.current, nil
}

// LastRefresh returns when the current snapshot was fetched, or nil
func (p *SnapshotPoller) LastRefresh() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	t := p.current.FetchedAt
	return &t
}

// Status reports the poller state
func (p *SnapshotPoller) Status() PollerStatus {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := PollerStatus{
		Running:     p.IsRunning(),
		Paused:      p.IsPaused(),
		Version:     p.version,
		LastAttempt: p.lastAttempt,
		Interval:    p.interval.String(),
	}
	if p.current != nil {
		s.Records = len(p.current.Records)
		s.FetchedAt = p.current.FetchedAt
	}
	if p.lastErr != nil {
		s.LastError = p.lastErr.Error()
	}
	return s
}

// Subscribe returns a channel that receives each new snapshot version.
// Slow readers miss intermediate versions. The channel is closed when
// the poller stops or the returned cancel func is called.
func (p *SnapshotPoller) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 1)
	p.mu.Lock()
	select {
	case <-p.ctx.Done():
		close(ch)
		p.mu.Unlock()
		return ch, func() {}
	default:
	}
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if _, ok := p.subscribers[ch]; ok {
				delete(p.subscribers, ch)
				close(ch)
			}
		})
	}
}

// Refresh fetches now, outside the schedule. It works while paused.
func (p *SnapshotPoller) Refresh(ctx context.Context) (*records.Snapshot, error) {
	if p.ctx.Err() != nil {
		return nil, ErrPollerStopped
	}
	ctx, cancel := mergeCancel(ctx, p.ctx)
	defer cancel()
	return p.fetch(ctx)
}

// pollLoop is the main background loop that performs periodic fetches
func (p *SnapshotPoller) pollLoop() {
	defer close(p.done)

	interval := p.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.scheduledFetch()
	for {
		select {
		case <-p.ctx.Done():
			p.logger.Info("Snapshot poller stopped")
			return
		case <-ticker.C:
			p.scheduledFetch()
		}
	}
}

func (p *SnapshotPoller) scheduledFetch() {
	if p.paused.Load() {
		p.logger.Debug("Polling paused, skipping fetch")
		return
	}
	if _, err := p.fetch(p.ctx); err != nil && p.ctx.Err() == nil {
		p.logger.Error("Failed to fetch records", "error", err)
	}
}

func (p *SnapshotPoller) fetch(ctx context.Context) (*records.Snapshot, error) {
	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()

	start := time.Now()
	recs, err := p.fetcher.FetchAll(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()

	// stopped while fetching: leave state alone
	if p.ctx.Err() != nil {
		return nil, ErrPollerStopped
	}

	// the caller gave up: the upstream was not judged, keep the snapshot
	if err != nil && ctx.Err() != nil {
		return nil, err
	}

	p.lastAttempt = start
	if err != nil {
		p.lastErr = err
		return nil, err
	}

	p.version++
	snap := &records.Snapshot{
		Version:   p.version,
		FetchedAt: time.Now(),
		Records:   recs,
	}
	p.current = snap
	p.lastErr = nil

	p.logger.Debug("Snapshot replaced",
		"version", snap.Version,
		"records", len(recs),
		"duration", time.Since(start))

	if p.cache != nil {
		p.cache.PurgeBefore(snap.Version)
	}
	for ch := range p.subscribers {
		select {
		case ch <- snap.Version:
		default:
		}
	}
	return snap, nil
}

// mergeCancel returns a context cancelled when either parent is done
func mergeCancel(ctx, other context.Context) (context.Context, context.CancelFunc) {
	merged, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(other, cancel)
	return merged, func() {
		stop()
		cancel()
	}
}
