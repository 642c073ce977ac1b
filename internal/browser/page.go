package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoElement is returned by element reads when nothing matches the selector.
var ErrNoElement = errors.New("no element matches selector")

// resolveScript returns every element matching a selector, in document order.
const resolveScript = `(function(kind, sel) {
	if (kind === 'xpath') {
		const r = document.evaluate(sel, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		const out = [];
		for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i));
		return out;
	}
	return Array.from(document.querySelectorAll(sel));
})`

const visibleScript = `(function(els) {
	const el = els[0];
	if (!el) return false;
	const st = window.getComputedStyle(el);
	if (st.visibility === 'hidden' || st.display === 'none') return false;
	const r = el.getBoundingClientRect();
	return r.width > 0 && r.height > 0;
})`

const attributeScript = `(function(els, name) {
	const el = els[0];
	if (!el) return {found: false, present: false, value: ''};
	const v = el.getAttribute(name);
	return {found: true, present: v !== null, value: v === null ? '' : v};
})`

const textScript = `(function(els) {
	const el = els[0];
	if (!el) return {found: false, value: ''};
	return {found: true, value: el.textContent || ''};
})`

var readyExpressions = map[harness.LoadState]string{
	harness.LoadStateDOMContentLoaded: `document.readyState !== 'loading'`,
	harness.LoadStateLoad:             `document.readyState === 'complete'`,
}

// tab is a page target attached through its own chromedp context.
type tab struct {
	ctx            context.Context
	cancel         context.CancelFunc
	targetID       target.ID
	defaultTimeout time.Duration
	logger         *zap.Logger

	mu             sync.Mutex
	viewportWidth  int
	viewportHeight int
}

var _ harness.Page = (*tab)(nil)

// run executes actions against the tab, bounded by ctx and the timeout,
// falling back to the context's default timeout.
func (t *tab) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	runCtx, cancel := scope(ctx, t.ctx, timeout)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && runCtx.Err() != nil && ctx.Err() == nil {
		// Surface our own deadline rather than chromedp's cancellation noise.
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Goto navigates and, unless the commit criterion is requested, waits for
// the requested lifecycle state.
func (t *tab) Goto(ctx context.Context, url string, opts harness.GotoOptions) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	err := t.run(ctx, timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		// Page.navigate returns once the navigation commits.
		var res page.NavigateReturns
		if err := cdp.Execute(ctx, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("page load error %s", res.ErrorText)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	switch opts.WaitUntil {
	case "", harness.LoadStateCommit:
		return nil
	default:
		return t.WaitForLoadState(ctx, opts.WaitUntil, timeout)
	}
}

func (t *tab) WaitForLoadState(ctx context.Context, state harness.LoadState, timeout time.Duration) error {
	return waitReady(ctx, t, state, timeout)
}

// waitReady polls the document lifecycle in the tab or, with a frame
// option, inside one of its iframes.
func waitReady(ctx context.Context, t *tab, state harness.LoadState, timeout time.Duration, opts ...chromedp.PollOption) error {
	if state == harness.LoadStateCommit {
		return nil
	}
	expr, ok := readyExpressions[state]
	if !ok {
		return fmt.Errorf("unsupported load state %q", state)
	}
	if timeout <= 0 {
		timeout = t.defaultTimeout
	}
	opts = append(opts, chromedp.WithPollingTimeout(timeout))

	var ready bool
	err := t.run(ctx, timeout+time.Second, chromedp.Poll(expr, &ready, opts...))
	if errors.Is(err, chromedp.ErrPollingTimeout) {
		return fmt.Errorf("waiting for %s: %w", state, context.DeadlineExceeded)
	}
	return err
}

// Frames lists the iframes currently in the document.
func (t *tab) Frames(ctx context.Context) ([]harness.Frame, error) {
	var nodes []*cdp.Node
	if err := t.run(ctx, 0, chromedp.Nodes("iframe", &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	frames := make([]harness.Frame, 0, len(nodes))
	for _, n := range nodes {
		frames = append(frames, &frame{tab: t, node: n})
	}
	return frames, nil
}

func (t *tab) Click(ctx context.Context, sel string, timeout time.Duration) error {
	s, err := parseSelector(sel)
	if err != nil {
		return err
	}
	return t.run(ctx, timeout, chromedp.Click(s.expr, s.by(), chromedp.NodeVisible))
}

// Fill replaces the field's value by clearing it and typing the new one,
// so key and input listeners fire as they would for a user.
func (t *tab) Fill(ctx context.Context, sel, value string, timeout time.Duration) error {
	s, err := parseSelector(sel)
	if err != nil {
		return err
	}
	return t.run(ctx, timeout,
		chromedp.WaitVisible(s.expr, s.by()),
		chromedp.SetValue(s.expr, "", s.by()),
		chromedp.SendKeys(s.expr, value, s.by()),
	)
}

// Wheel dispatches a mouse wheel event at the centre of the viewport.
func (t *tab) Wheel(ctx context.Context, deltaX, deltaY float64) error {
	x, y, err := t.viewportCentre(ctx)
	if err != nil {
		return err
	}
	return t.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).
			WithDeltaX(deltaX).
			WithDeltaY(deltaY).
			Do(ctx)
	}))
}

func (t *tab) viewportCentre(ctx context.Context) (float64, float64, error) {
	t.mu.Lock()
	w, h := t.viewportWidth, t.viewportHeight
	t.mu.Unlock()
	if w > 0 && h > 0 {
		return float64(w) / 2, float64(h) / 2, nil
	}
	var size [2]float64
	if err := t.evaluateInto(ctx, `[window.innerWidth, window.innerHeight]`, &size); err != nil {
		return 0, 0, fmt.Errorf("failed to read viewport size: %w", err)
	}
	return size[0] / 2, size[1] / 2, nil
}

func (t *tab) SetViewport(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid viewport %dx%d", width, height)
	}
	if err := t.run(ctx, 0, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}
	t.mu.Lock()
	t.viewportWidth, t.viewportHeight = width, height
	t.mu.Unlock()
	return nil
}

// Evaluate runs a JavaScript expression, awaiting promises, and returns its
// JSON value. Undefined results come back as nil.
func (t *tab) Evaluate(ctx context.Context, expression string) (any, error) {
	var out any
	if err := t.evaluateInto(ctx, expression, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *tab) evaluateInto(ctx context.Context, expression string, out any) error {
	return t.run(ctx, 0, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, exc, err := runtime.Evaluate(expression).
			WithReturnByValue(true).
			WithAwaitPromise(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return fmt.Errorf("javascript exception: %s", exceptionText(exc))
		}
		if obj == nil || obj.Type == runtime.TypeUndefined || len(obj.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(obj.Value), out)
	}))
}

func exceptionText(exc *runtime.ExceptionDetails) string {
	if exc.Exception != nil && exc.Exception.Description != "" {
		return exc.Exception.Description
	}
	return exc.Text
}

// elementCall builds an expression applying fn to the elements matching sel.
func elementCall(fn string, sel selector, extra ...string) (string, error) {
	args, err := json.Marshal([]string{string(sel.kind), sel.expr})
	if err != nil {
		return "", err
	}
	call := fmt.Sprintf("%s(%s.apply(null, %s)", fn, resolveScript, args)
	for _, e := range extra {
		quoted, err := json.Marshal(e)
		if err != nil {
			return "", err
		}
		call += ", " + string(quoted)
	}
	return call + ")", nil
}

func (t *tab) Count(ctx context.Context, sel string) (int, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return 0, err
	}
	expr, err := elementCall(`(function(els) { return els.length; })`, s)
	if err != nil {
		return 0, err
	}
	var n int
	if err := t.evaluateInto(ctx, expr, &n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s, err)
	}
	return n, nil
}

func (t *tab) Visible(ctx context.Context, sel string) (bool, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return false, err
	}
	expr, err := elementCall(visibleScript, s)
	if err != nil {
		return false, err
	}
	var visible bool
	if err := t.evaluateInto(ctx, expr, &visible); err != nil {
		return false, fmt.Errorf("failed to check visibility of %s: %w", s, err)
	}
	return visible, nil
}

func (t *tab) Attribute(ctx context.Context, sel, name string) (string, bool, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return "", false, err
	}
	expr, err := elementCall(attributeScript, s, name)
	if err != nil {
		return "", false, err
	}
	var res struct {
		Found   bool   `json:"found"`
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := t.evaluateInto(ctx, expr, &res); err != nil {
		return "", false, fmt.Errorf("failed to read attribute %q of %s: %w", name, s, err)
	}
	if !res.Found {
		return "", false, fmt.Errorf("%w: %s", ErrNoElement, s)
	}
	return res.Value, res.Present, nil
}

func (t *tab) Text(ctx context.Context, sel string) (string, error) {
	s, err := parseSelector(sel)
	if err != nil {
		return "", err
	}
	expr, err := elementCall(textScript, s)
	if err != nil {
		return "", err
	}
	var res struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	if err := t.evaluateInto(ctx, expr, &res); err != nil {
		return "", fmt.Errorf("failed to read text of %s: %w", s, err)
	}
	if !res.Found {
		return "", fmt.Errorf("%w: %s", ErrNoElement, s)
	}
	return res.Value, nil
}

func (t *tab) URL(ctx context.Context) (string, error) {
	var u string
	if err := t.run(ctx, 0, chromedp.Location(&u)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return u, nil
}

func (t *tab) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := t.run(ctx, 0, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

func (t *tab) Content(ctx context.Context) (string, error) {
	var html string
	if err := t.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	return html, nil
}

// detach closes the target session. The browser context disposal that
// follows removes the target itself.
func (t *tab) detach() {
	t.cancel()
	t.logger.Debug("Detached from page target.")
}

// frame is an iframe element of a tab.
type frame struct {
	tab  *tab
	node *cdp.Node
}

func (f *frame) Name() string {
	if name := f.node.AttributeValue("name"); name != "" {
		return name
	}
	if src := f.node.AttributeValue("src"); src != "" {
		return src
	}
	return fmt.Sprintf("iframe#%d", f.node.NodeID)
}

func (f *frame) WaitForLoadState(ctx context.Context, state harness.LoadState, timeout time.Duration) error {
	return waitReady(ctx, f.tab, state, timeout, chromedp.WithPollingInFrame(f.node))
}
