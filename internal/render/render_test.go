package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePool returns a pool whose instances never start a browser
func fakePool(t *testing.T, max int) (*Pool, *int) {
	t.Helper()
	pool := NewPool(&PoolConfig{MaxBrowsers: max, IdleTimeout: time.Minute, MaxIdleBrowsers: 1}, nil)
	created := 0
	var mu sync.Mutex
	pool.newInstance = func(ctx context.Context) (*browserInstance, error) {
		mu.Lock()
		defer mu.Unlock()
		created++
		c, cancel := context.WithCancel(context.Background())
		return &browserInstance{ctx: c, cancel: cancel}, nil
	}
	t.Cleanup(func() { pool.Close() })
	return pool, &created
}

func TestPageWidth(t *testing.T) {
	assert.Equal(t, 23.39, PageWidth(PageA2, true))
	assert.Equal(t, 16.54, PageWidth(PageA2, false))
	assert.Equal(t, 8.5, PageWidth(PageLetter, false))
	assert.Equal(t, 23.39, PageWidth("unknown", true))

	f, err := ParsePageFormat("a3")
	require.NoError(t, err)
	assert.Equal(t, PageA3, f)
	_, err = ParsePageFormat("tabloid")
	assert.Error(t, err)
}

func TestPool_ReusesIdleInstance(t *testing.T) {
	pool, created := fakePool(t, 2)
	ctx := context.Background()

	a, err := pool.Get(ctx)
	require.NoError(t, err)
	require.NoError(t, pool.Put(a))

	b, err := pool.Get(ctx)
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, 1, *created)

	stats := pool.Stats()
	assert.Equal(t, PoolStats{Active: 1, Total: 1}, stats)
	require.NoError(t, pool.Put(b))
}

func TestPool_WaitsWhenExhausted(t *testing.T) {
	pool, _ := fakePool(t, 1)

	held, err := pool.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = pool.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	got := make(chan *browserInstance)
	go func() {
		inst, err := pool.Get(context.Background())
		if err != nil {
			close(got)
			return
		}
		got <- inst
	}()

	require.Eventually(t, func() bool { return pool.Stats().Waiting == 1 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Put(held))

	select {
	case inst := <-got:
		require.NotNil(t, inst)
		assert.Same(t, held, inst)
	case <-time.After(time.Second):
		t.Fatal("waiter was not served")
	}
}

func TestPool_Closed(t *testing.T) {
	pool, _ := fakePool(t, 1)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err := pool.Get(context.Background())
	assert.True(t, errors.Is(err, ErrPoolClosed))
}

func TestPool_CleanupIdle(t *testing.T) {
	pool, _ := fakePool(t, 3)
	ctx := context.Background()

	var held []*browserInstance
	for i := 0; i < 3; i++ {
		inst, err := pool.Get(ctx)
		require.NoError(t, err)
		held = append(held, inst)
	}
	require.NoError(t, pool.Put(held[0]))
	require.NoError(t, pool.Put(held[1]))

	// one idle instance survives inside the timeout
	pool.cleanupIdleInstances(time.Now())
	assert.Equal(t, PoolStats{Active: 1, Idle: 1, Total: 2}, pool.Stats())

	pool.cleanupIdleInstances(time.Now().Add(time.Hour))
	assert.Equal(t, PoolStats{Active: 1, Total: 1}, pool.Stats())
}

func TestPool_ExecuteWithBrowserHonoursParent(t *testing.T) {
	if err := ValidateChromeAvailable(); err != nil {
		t.Skip("Chrome not available in test environment")
	}

	options := DefaultOptions()
	options.Timeout = 5 * time.Second
	pool := NewPool(nil, options)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	err := pool.ExecuteWithBrowser(ctx, func(browserCtx context.Context) error {
		select {
		case <-time.After(3 * time.Second):
			return nil
		case <-browserCtx.Done():
			return browserCtx.Err()
		}
	})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
}
