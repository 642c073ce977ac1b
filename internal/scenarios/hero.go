package scenarios

import (
	"fmt"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

var heroViewports = [][2]int{{1280, 720}, {768, 1024}, {375, 667}}

// HeroSection checks the landing section text, animation and profile image.
func HeroSection(opts Options) harness.Scenario {
	opts = opts.withDefaults()
	height := float64(opts.ViewportHeight)

	steps := []harness.Step{
		harness.Wheel{DeltaY: height},
		harness.Wheel{DeltaY: -height},
		expectVisible("animated heading", heroText),
		expectStyleNot("animated heading", heroText, "animationName", "none"),
		expectTextContains("professional summary", heroSummary, heroSummaryText),
		expectVisible("profile image", heroProfile),
		expectStyleNot("profile image", heroProfile, "borderStyle", "none"),
	}
	for _, vp := range heroViewports {
		steps = append(steps,
			harness.Viewport{Width: vp[0], Height: vp[1]},
			expectVisible(fmt.Sprintf("profile image at %dx%d", vp[0], vp[1]), heroProfile),
		)
	}
	return harness.Scenario{
		Name:        "hero-section",
		Title:       "Hero section renders its animated text and profile image",
		Description: "The heading is animated, the summary matches the resume, and the bordered profile image stays visible at every viewport.",
		Path:        "/",
		Tags:        []string{"hero"},
		Steps:       steps,
	}
}
