package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrPoolClosed is returned by Get after Close
var ErrPoolClosed = errors.New("browser pool is closed")

// Pool hands out headless Chrome instances. Callers beyond MaxBrowsers
// wait for a free instance until their context ends.
type Pool struct {
	config      *PoolConfig
	options     *Options
	instances   []*browserInstance
	slots       chan struct{}
	waiting     atomic.Int32
	mu          sync.RWMutex
	closed      bool
	cleanupDone chan struct{}

	// newInstance is replaced in tests
	newInstance func(ctx context.Context) (*browserInstance, error)
}

// ValidateChromeAvailable checks if Chrome/Chromium is available and working
func ValidateChromeAvailable() error {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		chromedp.Headless,
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	testCtx, testCancel := context.WithTimeout(ctx, 10*time.Second)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		return fmt.Errorf("Chrome/Chromium not available or not working: %w", err)
	}
	return nil
}

// NewPool creates a new browser pool with the given configuration
func NewPool(config *PoolConfig, options *Options) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}
	if options == nil {
		options = DefaultOptions()
	}
	if config.MaxBrowsers < 1 {
		config.MaxBrowsers = 1
	}

	pool := &Pool{
		config:      config,
		options:     options,
		instances:   make([]*browserInstance, 0, config.MaxBrowsers),
		slots:       make(chan struct{}, config.MaxBrowsers),
		cleanupDone: make(chan struct{}),
	}
	pool.newInstance = pool.createInstance

	go pool.cleanupLoop()

	return pool
}

// Get waits for a browser instance
func (p *Pool) Get(ctx context.Context) (*browserInstance, error) {
	p.waiting.Add(1)
	select {
	case p.slots <- struct{}{}:
		p.waiting.Add(-1)
	case <-ctx.Done():
		p.waiting.Add(-1)
		return nil, fmt.Errorf("waiting for a browser: %w", ctx.Err())
	case <-p.cleanupDone:
		p.waiting.Add(-1)
		return nil, ErrPoolClosed
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		<-p.slots
		return nil, ErrPoolClosed
	}

	for _, instance := range p.instances {
		if !instance.inUse {
			instance.inUse = true
			instance.lastUsed = time.Now()
			return instance, nil
		}
	}

	instance, err := p.newInstance(ctx)
	if err != nil {
		<-p.slots
		return nil, fmt.Errorf("failed to create browser instance: %w", err)
	}
	instance.inUse = true
	instance.lastUsed = time.Now()
	p.instances = append(p.instances, instance)
	return instance, nil
}

// Put returns a browser instance to the pool
func (p *Pool) Put(instance *browserInstance) error {
	if instance == nil {
		return fmt.Errorf("cannot return nil instance to pool")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		cleanupInstance(instance)
		return nil
	}

	instance.inUse = false
	instance.lastUsed = time.Now()
	<-p.slots
	return nil
}

// Close shuts down all browser instances in the pool
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, instance := range p.instances {
		cleanupInstance(instance)
	}
	p.instances = nil

	close(p.cleanupDone)
	return nil
}

// Stats returns current pool statistics
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := PoolStats{Total: len(p.instances), Waiting: int(p.waiting.Load())}
	for _, instance := range p.instances {
		if instance.inUse {
			stats.Active++
		} else {
			stats.Idle++
		}
	}
	return stats
}

// createInstance starts a new browser
func (p *Pool) createInstance(ctx context.Context) (*browserInstance, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), p.buildAllocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// the first Run launches the browser
	if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	return &browserInstance{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		lastUsed:    time.Now(),
	}, nil
}

func cleanupInstance(instance *browserInstance) {
	if instance.cancel != nil {
		instance.cancel()
	}
	if instance.allocCancel != nil {
		instance.allocCancel()
	}
}

// cleanupLoop periodically removes idle instances that have exceeded the idle timeout
func (p *Pool) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.cleanupIdleInstances(time.Now())
		case <-p.cleanupDone:
			return
		}
	}
}

// cleanupIdleInstances removes idle instances that have exceeded the timeout
func (p *Pool) cleanupIdleInstances(now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	idleCount := 0
	kept := make([]*browserInstance, 0, len(p.instances))
	for _, instance := range p.instances {
		if instance.inUse {
			kept = append(kept, instance)
			continue
		}
		idleCount++
		if now.Sub(instance.lastUsed) < p.config.IdleTimeout && idleCount <= p.config.MaxIdleBrowsers {
			kept = append(kept, instance)
		} else {
			cleanupInstance(instance)
		}
	}
	p.instances = kept
}

// buildAllocatorOptions builds Chrome allocator options based on configuration
func (p *Pool) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.UserAgent(p.options.UserAgent),
		chromedp.WindowSize(int(p.options.ViewportWidth), int(p.options.ViewportHeight)),
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
	}

	if p.options.Headless {
		opts = append(opts, chromedp.Headless)
	}

	if p.options.DebugMode {
		opts = append(opts,
			chromedp.Flag("enable-logging", true),
			chromedp.Flag("log-level", "0"),
		)
	}

	return opts
}

// ExecuteWithBrowser runs fn in a fresh tab of a pooled browser. The tab
// is closed when fn returns.
func (p *Pool) ExecuteWithBrowser(ctx context.Context, fn func(context.Context) error) error {
	instance, err := p.Get(ctx)
	if err != nil {
		return err
	}
	defer p.Put(instance)

	tabCtx, closeTab := chromedp.NewContext(instance.ctx)
	defer closeTab()

	// Use the shorter of parent context deadline or pool timeout
	timeout := p.options.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	opCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	// parent cancellation also aborts the tab
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return fn(opCtx)
}
