package cache

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Manager memoizes views derived from a record snapshot. Entries are keyed
// on the snapshot version, so a new snapshot never sees an old result.
type Manager struct {
	store    *gocache.Cache
	disabled bool
	ttl      time.Duration
	logger   *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// NewManager creates a cache manager. A disabled manager computes every
// call.
func NewManager(disabled bool, ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	m := &Manager{
		disabled: disabled,
		ttl:      ttl,
		logger:   logger,
	}
	if !disabled {
		m.store = gocache.New(ttl, 2*ttl)
	}
	return m
}

func entryKey(version uint64, view string) string {
	return strconv.FormatUint(version, 10) + ":" + view
}

// Memoize returns the cached value for (version, view), computing and
// storing it on a miss. Errors are never cached.
func Memoize[T any](m *Manager, version uint64, view string, compute func() (T, error)) (T, error) {
	if m == nil || m.disabled {
		return compute()
	}

	key := entryKey(version, view)
	if v, ok := m.store.Get(key); ok {
		if typed, ok := v.(T); ok {
			m.hits.Add(1)
			return typed, nil
		}
		m.logger.Warn("Cached value has unexpected type, recomputing", "key", key)
	}

	m.misses.Add(1)
	value, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	m.store.SetDefault(key, value)
	return value, nil
}

// PurgeBefore drops entries computed from snapshots older than version
func (m *Manager) PurgeBefore(version uint64) int {
	if m.disabled {
		return 0
	}
	purged := 0
	for key := range m.store.Items() {
		prefix, _, ok := strings.Cut(key, ":")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil || v < version {
			m.store.Delete(key)
			purged++
		}
	}
	if purged > 0 {
		m.logger.Debug("Purged stale cache entries", "count", purged, "version", version)
	}
	return purged
}

// IsEnabled returns true if caching is enabled
func (m *Manager) IsEnabled() bool {
	return !m.disabled
}

// GetTTL returns the cache TTL duration
func (m *Manager) GetTTL() time.Duration {
	return m.ttl
}

// GetStats returns cache statistics
func (m *Manager) GetStats() CacheStats {
	stats := CacheStats{
		Disabled: m.disabled,
		TTL:      m.ttl.String(),
		Hits:     m.hits.Load(),
		Misses:   m.misses.Load(),
	}
	if !m.disabled {
		stats.Items = m.store.ItemCount()
	}
	return stats
}

// Close drops all entries
func (m *Manager) Close() {
	if m.store != nil {
		m.store.Flush()
	}
}

// CacheStats represents cache statistics
type CacheStats struct {
	Disabled bool   `json:"disabled"`
	TTL      string `json:"ttl"`
	Items    int    `json:"items"`
	Hits     int64  `json:"hits"`
	Misses   int64  `json:"misses"`
}

func (s CacheStats) String() string {
	return fmt.Sprintf("items=%d hits=%d misses=%d", s.Items, s.Hits, s.Misses)
}
