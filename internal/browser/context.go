package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const disposeTimeout = 5 * time.Second

// browsingContext is a CDP browser context: an incognito-like profile with
// its own cookies and storage.
type browsingContext struct {
	id             cdp.BrowserContextID
	browser        *browser
	defaultTimeout time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	pages  []*tab
	closed bool
}

// browserExecutor returns a context whose CDP commands go to the browser
// endpoint rather than to a page target.
func browserExecutor(ctx, browserCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Browser == nil {
		return nil, nil, errors.New("browser is not running")
	}
	scoped, cancel := scope(ctx, browserCtx, timeout)
	return cdp.WithExecutor(scoped, c.Browser), cancel, nil
}

func createBrowserContext(execCtx context.Context) (cdp.BrowserContextID, error) {
	return target.CreateBrowserContext().Do(execCtx)
}

func (bc *browsingContext) NewPage(ctx context.Context) (harness.Page, error) {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil, ErrClosed
	}
	bc.mu.Unlock()

	bc.browser.createMu.Lock()
	defer bc.browser.createMu.Unlock()

	execCtx, cancel, err := browserExecutor(ctx, bc.browser.ctx, bc.defaultTimeout)
	if err != nil {
		return nil, err
	}
	targetID, err := target.CreateTarget("about:blank").
		WithBrowserContextID(bc.id).
		Do(execCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to create target: %w", err)
	}

	pageCtx, cancelPage := chromedp.NewContext(bc.browser.ctx, chromedp.WithTargetID(targetID))

	// Attaching follows the same rule as launching: the first Run owns the
	// target session, so it cannot carry a deadline of its own.
	errc := make(chan error, 1)
	go func() { errc <- chromedp.Run(pageCtx) }()
	timer := time.NewTimer(bc.defaultTimeout)
	defer timer.Stop()
	select {
	case err := <-errc:
		if err != nil {
			cancelPage()
			return nil, fmt.Errorf("failed to attach to target: %w", err)
		}
	case <-timer.C:
		cancelPage()
		<-errc
		return nil, fmt.Errorf("failed to attach to target: %w", context.DeadlineExceeded)
	case <-ctx.Done():
		cancelPage()
		<-errc
		return nil, fmt.Errorf("failed to attach to target: %w", ctx.Err())
	}

	p := &tab{
		ctx:            pageCtx,
		cancel:         cancelPage,
		targetID:       targetID,
		defaultTimeout: bc.defaultTimeout,
		logger:         bc.logger.With(zap.String("target_id", string(targetID))),
	}

	bc.mu.Lock()
	bc.pages = append(bc.pages, p)
	bc.mu.Unlock()
	return p, nil
}

// Close detaches every page and disposes of the browser context, which also
// closes any targets still open in it. It is idempotent.
func (bc *browsingContext) Close(ctx context.Context) error {
	bc.mu.Lock()
	if bc.closed {
		bc.mu.Unlock()
		return nil
	}
	bc.closed = true
	pages := bc.pages
	bc.pages = nil
	bc.mu.Unlock()

	for _, p := range pages {
		p.detach()
	}

	// Nothing is left to dispose of once the browser itself has gone.
	if bc.browser.ctx.Err() != nil {
		bc.logger.Debug("Browser already gone, skipping browser context disposal.")
		return nil
	}
	execCtx, cancel, err := browserExecutor(ctx, bc.browser.ctx, disposeTimeout)
	if err != nil {
		return nil
	}
	defer cancel()
	if err := target.DisposeBrowserContext(bc.id).Do(execCtx); err != nil {
		return fmt.Errorf("failed to dispose browser context: %w", err)
	}
	return nil
}
