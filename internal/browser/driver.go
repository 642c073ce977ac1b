// Package browser drives Chrome over the DevTools protocol and exposes it
// through the harness resource interfaces.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const (
	defaultLaunchTimeout = 30 * time.Second
	defaultPageTimeout   = 5 * time.Second
)

// ErrClosed is returned when a released resource is used again.
var ErrClosed = errors.New("browser resource already closed")

// Driver launches local Chrome processes through chromedp exec allocators.
type Driver struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

var _ harness.Driver = (*Driver)(nil)

// NewDriver creates a Driver for the given browser configuration.
func NewDriver(cfg config.BrowserConfig, logger *zap.Logger) *Driver {
	return &Driver{cfg: cfg, logger: logger.Named("browser")}
}

// Start opens a session. No process is spawned until Launch.
func (d *Driver) Start(ctx context.Context) (harness.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}
	// The session outlives the caller's deadline; teardown releases it explicitly.
	return &session{
		parent: context.WithoutCancel(ctx),
		cfg:    d.cfg,
		logger: d.logger,
	}, nil
}

// session owns the exec allocator, and with it the browser process.
type session struct {
	parent context.Context
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu          sync.Mutex
	cancelAlloc context.CancelFunc
	stopped     bool
}

func (s *session) Launch(ctx context.Context, opts harness.LaunchOptions) (harness.Browser, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.cancelAlloc != nil {
		s.mu.Unlock()
		return nil, errors.New("session already launched a browser")
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(s.parent, AllocatorOptions(s.cfg, opts)...)
	s.cancelAlloc = cancelAlloc
	s.mu.Unlock()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, s.contextOptions()...)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = s.cfg.LaunchTimeout
	}
	if timeout <= 0 {
		timeout = defaultLaunchTimeout
	}

	// The first Run binds the browser's lifetime to the context it is given,
	// so the launch is bounded from the outside instead of with a derived deadline.
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(browserCtx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-errc:
		if err != nil {
			cancelBrowser()
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
	case <-timer.C:
		cancelBrowser()
		<-errc
		return nil, fmt.Errorf("failed to launch browser: %w", context.DeadlineExceeded)
	case <-ctx.Done():
		cancelBrowser()
		<-errc
		return nil, fmt.Errorf("failed to launch browser: %w", ctx.Err())
	}

	s.logger.Debug("Browser launched.", zap.Bool("headless", s.cfg.Headless), zap.String("proxy", opts.ProxyServer))
	return &browser{ctx: browserCtx, cancel: cancelBrowser, logger: s.logger}, nil
}

func (s *session) contextOptions() []chromedp.ContextOption {
	if !s.cfg.Debug {
		return nil
	}
	sugar := s.logger.Sugar()
	return []chromedp.ContextOption{
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Debugf),
		chromedp.WithDebugf(sugar.Debugf),
	}
}

// Stop kills the browser process if one is running. It is idempotent.
func (s *session) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if s.cancelAlloc == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		// Cancelling the allocator waits for the process to exit and removes its profile dir.
		s.cancelAlloc()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop browser process: %w", ctx.Err())
	}
}

// browser is a launched Chrome instance reachable through its root chromedp context.
type browser struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger

	// CDP target creation is not safe to interleave within one browser.
	createMu sync.Mutex

	mu     sync.Mutex
	closed bool
}

func (b *browser) NewContext(ctx context.Context, opts harness.ContextOptions) (harness.BrowsingContext, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	b.createMu.Lock()
	defer b.createMu.Unlock()

	execCtx, cancel, err := browserExecutor(ctx, b.ctx, 0)
	if err != nil {
		return nil, err
	}
	defer cancel()

	id, err := createBrowserContext(execCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = defaultPageTimeout
	}
	return &browsingContext{
		id:             id,
		browser:        b,
		defaultTimeout: timeout,
		logger:         b.logger.With(zap.String("browser_context_id", string(id))),
	}, nil
}

// Close shuts the browser down gracefully. It is idempotent.
func (b *browser) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- chromedp.Cancel(b.ctx) }()

	select {
	case err := <-done:
		b.cancel()
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("failed to close browser: %w", err)
		}
		return nil
	case <-ctx.Done():
		b.cancel()
		return fmt.Errorf("failed to close browser: %w", ctx.Err())
	}
}

// scope derives a context from base, the chromedp context that carries the
// executor, that also ends when ctx ends or the timeout elapses.
func scope(ctx, base context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var scoped context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		scoped, cancel = context.WithTimeout(base, timeout)
	} else {
		scoped, cancel = context.WithCancel(base)
	}
	stop := context.AfterFunc(ctx, cancel)
	return scoped, func() {
		stop()
		cancel()
	}
}
