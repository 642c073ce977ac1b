package scenarios

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const visibilityPoll = 250 * time.Millisecond

// expectVisible passes once the element is visible. It polls until the
// step's deadline because most checks follow an animated transition.
func expectVisible(label, sel string) harness.Step {
	return harness.Check{
		Label: label + " is visible",
		Fn: func(ctx context.Context, env *harness.Env) error {
			for {
				visible, err := env.Page.Visible(ctx, sel)
				switch {
				case err == nil && visible:
					return nil
				case err != nil && ctx.Err() == nil:
					return err
				}
				if env.Wait(ctx, visibilityPoll) != nil {
					return &harness.AssertionError{Check: label + " is visible", Expected: "visible", Actual: "not visible"}
				}
			}
		},
	}
}

// expectHidden fails if the element is visible right now.
func expectHidden(label, sel string) harness.Step {
	return harness.Check{
		Label: label + " is not shown",
		Fn: func(ctx context.Context, env *harness.Env) error {
			visible, err := env.Page.Visible(ctx, sel)
			if err != nil {
				return err
			}
			return harness.Expect(label+" is not shown", !visible, "hidden or absent", "visible")
		},
	}
}

// expectAttrContains checks that the element's attribute holds want.
func expectAttrContains(label, sel, attr, want string) harness.Step {
	return harness.Check{
		Label: fmt.Sprintf("%s %s contains %q", label, attr, want),
		Fn: func(ctx context.Context, env *harness.Env) error {
			value, ok, err := env.Page.Attribute(ctx, sel, attr)
			if err != nil {
				return err
			}
			if !ok {
				return &harness.AssertionError{Check: label + " " + attr, Expected: "attribute present", Actual: "missing"}
			}
			return harness.ExpectContains(label+" "+attr, value, want)
		},
	}
}

// expectTextContains checks the element's text content.
func expectTextContains(label, sel, want string) harness.Step {
	return harness.Check{
		Label: label + " text",
		Fn: func(ctx context.Context, env *harness.Env) error {
			text, err := env.Page.Text(ctx, sel)
			if err != nil {
				return err
			}
			return harness.ExpectContains(label+" text", strings.TrimSpace(text), want)
		},
	}
}

// expectCount checks the number of matching elements with m.
func expectCount(label, sel string, m harness.Matcher) harness.Step {
	return harness.Check{
		Label: label + " count",
		Fn: func(ctx context.Context, env *harness.Env) error {
			n, err := env.Page.Count(ctx, sel)
			if err != nil {
				return err
			}
			if !m.Match(n) {
				return &harness.AssertionError{Check: label + " count", Expected: m.Expected(), Actual: n}
			}
			return nil
		},
	}
}

// expectStyleNot checks that a computed style property of the first match
// is not the given value.
func expectStyleNot(label, css, property, unwanted string) harness.Step {
	expr := fmt.Sprintf("(() => { const el = document.querySelector(%q); return el ? getComputedStyle(el).%s : null; })()", css, property)
	return harness.Check{
		Label: fmt.Sprintf("%s %s", label, property),
		Fn: func(ctx context.Context, env *harness.Env) error {
			v, err := env.Page.Evaluate(ctx, expr)
			if err != nil {
				return err
			}
			s, _ := v.(string)
			if v == nil || s == unwanted {
				return &harness.AssertionError{Check: label + " " + property, Expected: "not " + unwanted, Actual: v}
			}
			return nil
		},
	}
}
