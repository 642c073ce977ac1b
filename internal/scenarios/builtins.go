// Package scenarios holds the portfolio site checks and loads additional
// ones from YAML files.
package scenarios

import (
	"time"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// Options tune the built in scenarios.
type Options struct {
	// ClockWait is how long the clock check waits before expecting the
	// displayed time to have moved on.
	ClockWait time.Duration
	// ViewportWidth and ViewportHeight describe the launch window. Scrolling
	// steps move by one window height.
	ViewportWidth  int
	ViewportHeight int
	// Now reads the wall clock for the clock check. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions matches the default browser window.
func DefaultOptions() Options {
	return Options{
		ClockWait:      2 * time.Minute,
		ViewportWidth:  1280,
		ViewportHeight: 720,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ClockWait <= 0 {
		o.ClockWait = d.ClockWait
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = d.ViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = d.ViewportHeight
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Builtins returns every scenario shipped with the tool.
func Builtins(opts Options) []harness.Scenario {
	opts = opts.withDefaults()
	return []harness.Scenario{
		ThemePersistence(),
		ContactEmptySubmit(),
		ContactInvalidEmail(),
		ContactValidSubmit(),
		ContactLinks(),
		WorkProjects(),
		HeroSection(opts),
		NavClock(opts),
		SkillsGrid(opts),
	}
}
