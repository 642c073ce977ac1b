package harness

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArtifactSink captures diagnostics from a page whose scenario failed.
type ArtifactSink interface {
	Capture(ctx context.Context, runID, scenario string, page Page) ([]string, error)
}

// Observer is notified once per finished scenario.
type Observer interface {
	ScenarioFinished(res *Result)
}

// Options configure how a Runner drives every scenario.
type Options struct {
	BaseURL string
	Timing  Timing
	Launch  LaunchOptions
	Context ContextOptions
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithArtifactSink captures failure artifacts before teardown.
func WithArtifactSink(sink ArtifactSink) RunnerOption {
	return func(r *Runner) { r.sink = sink }
}

// WithObserver registers an observer for finished scenarios.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithClock replaces the wall clock and the sleep used for settle delays and pauses.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
		r.sleep = sleep
	}
}

// WithRunID fixes the identifier shared by every scenario of a run.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) { r.runID = id }
}

// Runner executes scenarios inside the acquire/teardown envelope.
type Runner struct {
	driver    Driver
	opts      Options
	logger    *zap.Logger
	sink      ArtifactSink
	observers []Observer
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error
	runID     string
}

// resources are the handles a scenario holds, in acquisition order.
type resources struct {
	session Session
	browser Browser
	context BrowsingContext
	page    Page
}

// NewRunner creates a Runner for driver.
func NewRunner(driver Driver, opts Options, logger *zap.Logger, options ...RunnerOption) *Runner {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if opts.Context.DefaultTimeout == 0 {
		opts.Context.DefaultTimeout = opts.Timing.DefaultTimeout
	}
	r := &Runner{
		driver: driver,
		opts:   opts,
		logger: logger.Named("harness"),
		now:    time.Now,
		runID:  uuid.NewString(),
	}
	for _, o := range options {
		o(r)
	}
	return r
}

// RunID returns the identifier shared by every scenario this runner executes.
func (r *Runner) RunID() string { return r.runID }

// BaseURL returns the origin scenarios navigate against.
func (r *Runner) BaseURL() string { return r.opts.BaseURL }

// Run executes sc and always returns a result. Resources acquired along the
// way are released in reverse order exactly once, on every exit path.
func (r *Runner) Run(ctx context.Context, sc Scenario) (res *Result) {
	res = newResult(sc, r.now())
	logger := r.logger.With(zap.String("scenario", sc.Name), zap.String("run_id", r.runID))

	defer func() {
		res.Duration = r.now().Sub(res.StartedAt)
		for _, o := range r.observers {
			o.ScenarioFinished(res)
		}
	}()

	if sc.Incomplete != "" {
		res.Status = StatusSkipped
		res.Message = sc.Incomplete
		logger.Info("Skipping incomplete scenario.", zap.String("reason", sc.Incomplete))
		return res
	}
	if err := sc.Validate(); err != nil {
		res.fail(&ActionError{Action: "validate scenario", Err: err})
		return res
	}

	res.enter(StateStart)
	var held resources

	// Deferred calls run last-in first-out: recover, then capture, then teardown.
	defer r.teardown(ctx, logger, res, &held)
	defer r.captureOnFailure(ctx, logger, res, &held)
	defer r.recoverPanic(logger, res)

	if err := r.execute(ctx, sc, res, &held, logger); err != nil {
		res.fail(err)
		logger.Warn("Scenario failed.", zap.String("kind", string(res.Kind)), zap.Error(err))
		return res
	}
	res.Status = StatusPassed
	logger.Info("Scenario passed.")
	return res
}

func (r *Runner) execute(ctx context.Context, sc Scenario, res *Result, held *resources, logger *zap.Logger) error {
	var err error

	// 1. Acquire session, browser, context and page, in that order.
	if held.session, err = r.driver.Start(ctx); err != nil {
		return &ActionError{Action: "start session", Err: err}
	}
	res.enter(StateSessionOpen)

	if held.browser, err = held.session.Launch(ctx, r.opts.Launch); err != nil {
		return &ActionError{Action: "launch browser", Timeout: r.opts.Launch.Timeout, Err: err}
	}
	res.enter(StateBrowserLaunched)

	if held.context, err = held.browser.NewContext(ctx, r.opts.Context); err != nil {
		return &ActionError{Action: "open context", Err: err}
	}
	res.enter(StateContextOpen)

	if held.page, err = held.context.NewPage(ctx); err != nil {
		return &ActionError{Action: "open page", Err: err}
	}
	res.enter(StatePageOpen)

	env := &Env{
		Page:    held.page,
		BaseURL: r.opts.BaseURL,
		Timing:  r.opts.Timing,
		Logger:  logger,
		Sleep:   r.sleep,
	}

	// 2. Navigate, proceeding as soon as the request commits.
	if err := env.Navigate(ctx, env.URL(sc.Path)); err != nil {
		return err
	}
	res.enter(StateNavigated)

	// 3. Best-effort readiness on the page and every frame.
	env.AwaitReady(ctx)
	res.enter(StateReady)

	// 4. The body. The first failing step ends the scenario.
	for i, step := range sc.Steps {
		if step.Kind() == KindAssert {
			res.enter(StateAssert)
		} else {
			res.enter(StateInteract)
		}
		start := r.now()
		stepErr := step.Execute(ctx, env)
		rec := StepRecord{Index: i, Kind: step.Kind().String(), Description: step.Describe(), Duration: r.now().Sub(start)}
		if stepErr != nil {
			rec.Error = stepErr.Error()
		}
		res.Steps = append(res.Steps, rec)
		if stepErr != nil {
			logger.Debug("Step failed.", zap.Int("step", i), zap.String("description", rec.Description), zap.Error(stepErr))
			return stepErr
		}
	}

	if d := r.opts.Timing.PostScenarioWait; d > 0 {
		if err := env.Wait(ctx, d); err != nil {
			return &ActionError{Action: "post-scenario wait", Err: err}
		}
	}
	res.enter(StateDone)
	return nil
}

func (r *Runner) recoverPanic(logger *zap.Logger, res *Result) {
	if p := recover(); p != nil {
		logger.Error("Scenario panicked.", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
		res.fail(&ActionError{Action: "scenario", Err: fmt.Errorf("panic: %v", p)})
	}
}

func (r *Runner) captureOnFailure(ctx context.Context, logger *zap.Logger, res *Result, held *resources) {
	if res.Status != StatusFailed || r.sink == nil || held.page == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			logger.Warn("Artifact capture panicked.", zap.Any("panic", p), zap.ByteString("stack", debug.Stack()))
		}
	}()
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.Timing.TeardownTimeout)
	defer cancel()
	paths, err := r.sink.Capture(cctx, r.runID, res.Scenario, held.page)
	if err != nil {
		logger.Warn("Failed to capture failure artifacts.", zap.Error(err))
	}
	res.Artifacts = append(res.Artifacts, paths...)
}

// teardown closes the context, then the browser, then the session. Resources
// never acquired are skipped. Close errors are logged and do not change the outcome.
func (r *Runner) teardown(ctx context.Context, logger *zap.Logger, res *Result, held *resources) {
	res.enter(StateTeardown)
	tctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.opts.Timing.TeardownTimeout)
	defer cancel()

	if held.context != nil {
		if err := held.context.Close(tctx); err != nil {
			logger.Warn("Failed to close browsing context.", zap.Error(err))
		}
		held.context, held.page = nil, nil
		res.Released = append(res.Released, "context")
	}
	if held.browser != nil {
		if err := held.browser.Close(tctx); err != nil {
			logger.Warn("Failed to close browser.", zap.Error(err))
		}
		held.browser = nil
		res.Released = append(res.Released, "browser")
	}
	if held.session != nil {
		if err := held.session.Stop(tctx); err != nil {
			logger.Warn("Failed to stop automation session.", zap.Error(err))
		}
		held.session = nil
		res.Released = append(res.Released, "session")
	}
}
