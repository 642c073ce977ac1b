package scenarios

import (
	"context"
	"strings"
	"time"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const (
	clockTimeLayout = "03:04 PM"
	clockDateLayout = "January 02, 2006"
)

// clockShowsNow checks the navigation clock against the wall clock. The
// previous minute is accepted so a rollover between reading the page and
// the clock does not fail the check. The reading is stored in last; with
// mustChange set it must also differ from the stored one.
func clockShowsNow(label string, now func() time.Time, last *string, mustChange bool) harness.Step {
	return harness.Check{
		Label: label,
		Fn: func(ctx context.Context, env *harness.Env) error {
			text, err := env.Page.Text(ctx, navClock)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(text)
			t := now()
			candidates := []time.Time{t, t.Add(-time.Minute)}

			var matched bool
			for _, c := range candidates {
				if strings.Contains(text, c.Format(clockTimeLayout)) && strings.Contains(text, c.Format(clockDateLayout)) {
					matched = true
					break
				}
			}
			if !matched {
				return &harness.AssertionError{
					Check:    label,
					Expected: t.Format(clockTimeLayout) + " " + t.Format(clockDateLayout),
					Actual:   text,
				}
			}
			if mustChange && *last == text {
				return &harness.AssertionError{Check: label + " changed", Expected: "a different reading than " + *last, Actual: text}
			}
			*last = text
			return nil
		},
	}
}

// NavClock checks that the navigation clock shows the current time and date
// and that it moves on.
func NavClock(opts Options) harness.Scenario {
	opts = opts.withDefaults()
	return harness.Scenario{
		Name:        "nav-clock",
		Title:       "Navigation clock tracks real time",
		Description: "The clock in the navigation bar shows the current time and date and updates after a wait.",
		Path:        "/",
		Tags:        []string{"nav", "slow"},
		Steps:       clockSteps(opts),
	}
}

// clockSteps shares one reading between the checks before and after the wait.
func clockSteps(opts Options) []harness.Step {
	var reading string
	return []harness.Step{
		clockShowsNow("clock shows the current time", opts.Now, &reading, false),
		harness.Pause{Duration: opts.ClockWait},
		clockShowsNow("clock shows the time after waiting", opts.Now, &reading, true),
	}
}
