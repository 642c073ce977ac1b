package harness

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Scenario is an ordered sequence of steps run against one fresh page.
type Scenario struct {
	Name        string
	Title       string
	Description string
	// Path is resolved against the base URL for the initial navigation.
	Path string
	Tags []string
	// Incomplete marks a scenario whose checks were never finished. Such
	// scenarios are reported as skipped and never launch a browser.
	Incomplete string
	Steps      []Step
	// Source records where the scenario was defined.
	Source string
}

// HasTag reports whether the scenario carries tag.
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Validate checks the structural requirements of a scenario.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("scenario name is required")
	}
	if s.Incomplete == "" && len(s.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if step == nil {
			return fmt.Errorf("scenario %q: step %d is nil", s.Name, i)
		}
	}
	return nil
}

// Timing holds every bound and delay of the scenario lifecycle.
type Timing struct {
	DefaultTimeout    time.Duration
	NavigationTimeout time.Duration
	ReadyTimeout      time.Duration
	SettleDelay       time.Duration
	ActionTimeout     time.Duration
	PostScenarioWait  time.Duration
	TeardownTimeout   time.Duration
}

// DefaultTiming returns the timings the suite was written against.
func DefaultTiming() Timing {
	return Timing{
		DefaultTimeout:    5 * time.Second,
		NavigationTimeout: 10 * time.Second,
		ReadyTimeout:      3 * time.Second,
		SettleDelay:       3 * time.Second,
		ActionTimeout:     5 * time.Second,
		TeardownTimeout:   10 * time.Second,
	}
}

// Env is what a step sees while it runs.
type Env struct {
	Page    Page
	BaseURL string
	Timing  Timing
	Logger  *zap.Logger
	// Sleep waits for d or until ctx ends. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// URL resolves path against the base URL. Absolute URLs are returned unchanged.
func (e *Env) URL(path string) string {
	if path == "" {
		return e.BaseURL
	}
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	base, err := url.Parse(e.BaseURL)
	if err != nil {
		return strings.TrimRight(e.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	}
	return base.ResolveReference(ref).String()
}

// Wait sleeps for d, returning early with ctx's error if it ends.
func (e *Env) Wait(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

// Settle is the fixed delay that precedes every element action.
func (e *Env) Settle(ctx context.Context) error {
	return e.Wait(ctx, e.Timing.SettleDelay)
}

// Navigate requests url and returns once the navigation is committed.
func (e *Env) Navigate(ctx context.Context, target string) error {
	opts := GotoOptions{WaitUntil: LoadStateCommit, Timeout: e.Timing.NavigationTimeout}
	nctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := e.Page.Goto(nctx, target, opts); err != nil {
		return &ActionError{Action: "navigate", Target: target, Timeout: opts.Timeout, Err: err}
	}
	return nil
}

// AwaitReady waits for DOMContentLoaded on the page and then on each frame.
// Every failure is logged and dropped; the settle delay before the next
// action covers whatever did not finish.
func (e *Env) AwaitReady(ctx context.Context) {
	logger := e.logger()
	if err := e.waitReady(ctx, e.Page.WaitForLoadState); err != nil {
		logger.Debug("Page did not reach DOMContentLoaded in time; continuing.", zap.Error(err))
	}
	frames, err := e.Page.Frames(ctx)
	if err != nil {
		logger.Debug("Could not list frames; skipping frame readiness.", zap.Error(err))
		return
	}
	for _, f := range frames {
		if err := e.waitReady(ctx, f.WaitForLoadState); err != nil {
			logger.Debug("Frame did not reach DOMContentLoaded in time; continuing.", zap.String("frame", f.Name()), zap.Error(err))
		}
	}
}

func (e *Env) waitReady(ctx context.Context, wait func(context.Context, LoadState, time.Duration) error) error {
	rctx, cancel := context.WithTimeout(ctx, e.Timing.ReadyTimeout)
	defer cancel()
	return wait(rctx, LoadStateDOMContentLoaded, e.Timing.ReadyTimeout)
}

func (e *Env) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
