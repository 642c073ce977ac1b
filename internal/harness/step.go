package harness

import (
	"context"
	"fmt"
	"time"
)

// StepKind separates steps that drive the page from steps that inspect it.
type StepKind int

const (
	KindInteract StepKind = iota
	KindAssert
)

func (k StepKind) String() string {
	if k == KindAssert {
		return "assert"
	}
	return "interact"
}

// Step is one entry in a scenario body.
type Step interface {
	Kind() StepKind
	Describe() string
	Execute(ctx context.Context, env *Env) error
}

// -- Interaction steps --

// Click settles, then clicks the element matched by Selector.
type Click struct {
	Selector string
	// Label is a human name for the element used in reports.
	Label string
}

func (Click) Kind() StepKind { return KindInteract }

func (s Click) Describe() string { return "click " + labelOr(s.Label, s.Selector) }

func (s Click) Execute(ctx context.Context, env *Env) error {
	return elementAction(ctx, env, "click", labelOr(s.Label, s.Selector), func(actx context.Context, timeout time.Duration) error {
		return env.Page.Click(actx, s.Selector, timeout)
	})
}

// Fill settles, then replaces the value of the field matched by Selector.
type Fill struct {
	Selector string
	Value    string
	Label    string
}

func (Fill) Kind() StepKind { return KindInteract }

func (s Fill) Describe() string {
	return fmt.Sprintf("fill %s with %q", labelOr(s.Label, s.Selector), s.Value)
}

func (s Fill) Execute(ctx context.Context, env *Env) error {
	return elementAction(ctx, env, "fill", labelOr(s.Label, s.Selector), func(actx context.Context, timeout time.Duration) error {
		return env.Page.Fill(actx, s.Selector, s.Value, timeout)
	})
}

// elementAction runs the settle delay and then act under the action timeout.
func elementAction(ctx context.Context, env *Env, action, target string, act func(context.Context, time.Duration) error) error {
	if err := env.Settle(ctx); err != nil {
		return &ActionError{Action: action, Target: target, Err: fmt.Errorf("settle interrupted: %w", err)}
	}
	timeout := env.Timing.ActionTimeout
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := act(actx, timeout); err != nil {
		return &ActionError{Action: action, Target: target, Timeout: timeout, Err: err}
	}
	return nil
}

// Goto navigates to Path (resolved against the base URL) with the commit
// criterion, then makes the same best-effort readiness wait as the initial load.
type Goto struct {
	Path string
}

func (Goto) Kind() StepKind { return KindInteract }

func (s Goto) Describe() string { return "goto " + labelOr(s.Path, "/") }

func (s Goto) Execute(ctx context.Context, env *Env) error {
	if err := env.Navigate(ctx, env.URL(s.Path)); err != nil {
		return err
	}
	env.AwaitReady(ctx)
	return nil
}

// Wheel dispatches a mouse wheel event.
type Wheel struct {
	DeltaX, DeltaY float64
}

func (Wheel) Kind() StepKind { return KindInteract }

func (s Wheel) Describe() string { return fmt.Sprintf("wheel (%g, %g)", s.DeltaX, s.DeltaY) }

func (s Wheel) Execute(ctx context.Context, env *Env) error {
	return boundedCall(ctx, env.Timing.ActionTimeout, "wheel", "", func(actx context.Context) error {
		return env.Page.Wheel(actx, s.DeltaX, s.DeltaY)
	})
}

// Viewport resizes the page viewport.
type Viewport struct {
	Width, Height int
}

func (Viewport) Kind() StepKind { return KindInteract }

func (s Viewport) Describe() string { return fmt.Sprintf("viewport %dx%d", s.Width, s.Height) }

func (s Viewport) Execute(ctx context.Context, env *Env) error {
	return boundedCall(ctx, env.Timing.ActionTimeout, "set viewport", fmt.Sprintf("%dx%d", s.Width, s.Height), func(actx context.Context) error {
		return env.Page.SetViewport(actx, s.Width, s.Height)
	})
}

// Pause waits a fixed duration.
type Pause struct {
	Duration time.Duration
}

func (Pause) Kind() StepKind { return KindInteract }

func (s Pause) Describe() string { return "pause " + s.Duration.String() }

func (s Pause) Execute(ctx context.Context, env *Env) error {
	if err := env.Wait(ctx, s.Duration); err != nil {
		return &ActionError{Action: "pause", Err: err}
	}
	return nil
}

// -- Assertion steps --

// ExpectEval evaluates Expression in the page and checks the result with Matcher.
type ExpectEval struct {
	Label      string
	Expression string
	Matcher    Matcher
}

func (ExpectEval) Kind() StepKind { return KindAssert }

func (s ExpectEval) Describe() string {
	return fmt.Sprintf("expect %s %s", labelOr(s.Label, s.Expression), s.Matcher.Expected())
}

func (s ExpectEval) Execute(ctx context.Context, env *Env) error {
	var actual any
	err := boundedCall(ctx, env.Timing.DefaultTimeout, "evaluate", s.Expression, func(actx context.Context) error {
		var err error
		actual, err = env.Page.Evaluate(actx, s.Expression)
		return err
	})
	if err != nil {
		return err
	}
	if !s.Matcher.Match(actual) {
		return &AssertionError{Check: labelOr(s.Label, s.Expression), Expected: s.Matcher.Expected(), Actual: actual}
	}
	return nil
}

// Check runs an arbitrary assertion. Fn should return an *AssertionError for
// a failed condition and any other error for a failed browser call.
type Check struct {
	Label string
	Fn    func(ctx context.Context, env *Env) error
}

func (Check) Kind() StepKind { return KindAssert }

func (s Check) Describe() string { return "check " + s.Label }

func (s Check) Execute(ctx context.Context, env *Env) error {
	cctx, cancel := context.WithTimeout(ctx, env.Timing.DefaultTimeout)
	defer cancel()
	return s.Fn(cctx, env)
}

func boundedCall(ctx context.Context, timeout time.Duration, action, target string, fn func(context.Context) error) error {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := fn(actx); err != nil {
		return &ActionError{Action: action, Target: target, Timeout: timeout, Err: err}
	}
	return nil
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
