package scenarios_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/sitecheck/internal/harness"
	"github.com/xkilldash9x/sitecheck/internal/mocks"
	"github.com/xkilldash9x/sitecheck/internal/scenarios"
)

func fastTiming() harness.Timing {
	return harness.Timing{
		DefaultTimeout:    300 * time.Millisecond,
		NavigationTimeout: time.Second,
		ReadyTimeout:      100 * time.Millisecond,
		ActionTimeout:     time.Second,
		TeardownTimeout:   time.Second,
	}
}

func runScenario(t *testing.T, stack *mocks.Stack, sc harness.Scenario) *harness.Result {
	t.Helper()
	runner := harness.NewRunner(stack.Driver, harness.Options{BaseURL: "http://localhost:3000", Timing: fastTiming()}, zaptest.NewLogger(t))
	res := runner.Run(context.Background(), sc)
	stack.AssertReleased(t)
	return res
}

func TestBuiltins_AreRegistrable(t *testing.T) {
	all := scenarios.Builtins(scenarios.DefaultOptions())
	reg, err := scenarios.NewRegistry(all...)
	require.NoError(t, err)

	names := make([]string, 0, len(all))
	for _, sc := range reg.All() {
		names = append(names, sc.Name)
		assert.NotEmpty(t, sc.Title, sc.Name)
		assert.NotEmpty(t, sc.Tags, sc.Name)
	}
	assert.Equal(t, []string{
		"contact-empty-submit", "contact-invalid-email", "contact-links", "contact-valid-submit",
		"hero-section", "nav-clock", "skills-grid", "theme-persistence", "work-projects",
	}, names)

	skills, ok := reg.Get("skills-grid")
	require.True(t, ok)
	assert.NotEmpty(t, skills.Incomplete)
}

func TestSkillsGrid_SkippedWithoutBrowser(t *testing.T) {
	driver := new(mocks.MockDriver)
	runner := harness.NewRunner(driver, harness.Options{BaseURL: "http://localhost:3000", Timing: fastTiming()}, zaptest.NewLogger(t))

	res := runner.Run(context.Background(), scenarios.SkillsGrid(scenarios.Options{}))

	assert.Equal(t, harness.StatusSkipped, res.Status)
	driver.AssertNotCalled(t, "Start", mock.Anything)
}

func TestThemePersistence(t *testing.T) {
	t.Run("persists across reloads", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		page := stack.Page
		page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		page.On("Evaluate", mock.Anything, `document.body.classList.contains("dark")`).Return(true, nil).Twice()
		page.On("Evaluate", mock.Anything, `document.body.classList.contains("light")`).Return(true, nil).Twice()
		page.On("Evaluate", mock.Anything, "localStorage.getItem('theme')").Return("dark", nil).Twice()
		page.On("Evaluate", mock.Anything, "localStorage.getItem('theme')").Return("light", nil).Twice()

		res := runScenario(t, stack, scenarios.ThemePersistence())

		require.Equal(t, harness.StatusPassed, res.Status, res.Message)
		page.AssertNumberOfCalls(t, "Click", 4)
		// One initial load plus two reloads.
		page.AssertNumberOfCalls(t, "Goto", 3)
	})

	t.Run("lost after reload", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		page := stack.Page
		page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		page.On("Evaluate", mock.Anything, `document.body.classList.contains("dark")`).Return(true, nil)
		page.On("Evaluate", mock.Anything, "localStorage.getItem('theme')").Return("dark", nil).Once()
		page.On("Evaluate", mock.Anything, "localStorage.getItem('theme')").Return(nil, nil)

		res := runScenario(t, stack, scenarios.ThemePersistence())

		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Equal(t, harness.KindAssertion, res.Kind)
		assert.Contains(t, res.Message, "stored theme")
	})

	t.Run("class must be a whole token", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		page := stack.Page
		page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		// A body class of "not-dark-yet" has no "dark" token.
		page.On("Evaluate", mock.Anything, `document.body.classList.contains("dark")`).Return(false, nil)

		res := runScenario(t, stack, scenarios.ThemePersistence())

		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Equal(t, harness.KindAssertion, res.Kind)
		assert.Contains(t, res.Message, "body class")
		page.AssertNotCalled(t, "Evaluate", mock.Anything, "localStorage.getItem('theme')")
	})
}

func contactStack() *mocks.Stack {
	stack := mocks.NewStack().ExpectLoad()
	stack.Page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stack.Page.On("Fill", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	stack.Page.On("Visible", mock.Anything, "xpath=html/body/div[55]/div[3]").Return(true, nil)
	return stack
}

func TestContactEmptySubmit(t *testing.T) {
	t.Run("required messages shown", func(t *testing.T) {
		stack := contactStack()
		stack.Page.On("Visible", mock.Anything, mock.MatchedBy(func(sel string) bool {
			return contains(sel, `"required"`)
		})).Return(true, nil)
		stack.Page.On("Visible", mock.Anything, mock.MatchedBy(func(sel string) bool {
			return contains(sel, "Thank you")
		})).Return(false, nil)

		res := runScenario(t, stack, scenarios.ContactEmptySubmit())

		require.Equal(t, harness.StatusPassed, res.Status, res.Message)
		stack.Page.AssertNotCalled(t, "Fill", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirmation appears anyway", func(t *testing.T) {
		stack := contactStack()
		stack.Page.On("Visible", mock.Anything, mock.Anything).Return(true, nil)

		res := runScenario(t, stack, scenarios.ContactEmptySubmit())

		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Equal(t, harness.KindAssertion, res.Kind)
		assert.Contains(t, res.Message, "confirmation")
	})
}

func TestContactInvalidEmail(t *testing.T) {
	stack := contactStack()
	stack.Page.On("Visible", mock.Anything, mock.MatchedBy(func(sel string) bool {
		return contains(sel, "valid email")
	})).Return(false, nil)

	res := runScenario(t, stack, scenarios.ContactInvalidEmail())

	assert.Equal(t, harness.StatusFailed, res.Status)
	assert.Equal(t, harness.KindAssertion, res.Kind, "a missing message is an assertion failure, not a timeout")
	stack.Page.AssertCalled(t, "Fill", mock.Anything, "xpath=html/body/div[55]/div[3]/div/div[2]/form/div[2]/input", "invalid-email", mock.Anything)
}

func TestContactValidSubmit(t *testing.T) {
	stack := contactStack()
	stack.Page.On("Visible", mock.Anything, mock.Anything).Return(true, nil)

	res := runScenario(t, stack, scenarios.ContactValidSubmit())

	require.Equal(t, harness.StatusPassed, res.Status, res.Message)
	stack.Page.AssertCalled(t, "Fill", mock.Anything, mock.Anything, "testuser@example.com", mock.Anything)
	stack.Page.AssertNumberOfCalls(t, "Fill", 4)
}

func TestContactLinks(t *testing.T) {
	stack := mocks.NewStack().ExpectLoad()
	stack.Page.On("Wheel", mock.Anything, 0.0, 600.0).Return(nil)
	stack.Page.On("Visible", mock.Anything, mock.Anything).Return(true, nil)
	stack.Page.On("Attribute", mock.Anything, mock.MatchedBy(func(s string) bool { return contains(s, "a[1]") }), "href").Return("mailto:me@example.com", true, nil)
	stack.Page.On("Attribute", mock.Anything, mock.MatchedBy(func(s string) bool { return contains(s, "a[2]") }), "href").Return("https://github.com/me", true, nil)
	stack.Page.On("Attribute", mock.Anything, mock.MatchedBy(func(s string) bool { return contains(s, "a[3]") }), "href").Return("https://example.com/me", true, nil)

	res := runScenario(t, stack, scenarios.ContactLinks())

	assert.Equal(t, harness.StatusFailed, res.Status)
	assert.Contains(t, res.Message, "LinkedIn")
}

func TestWorkProjects(t *testing.T) {
	build := func(cards int) *mocks.Stack {
		stack := mocks.NewStack().ExpectLoad()
		page := stack.Page
		page.On("Click", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		page.On("Count", mock.Anything, ".project-card").Return(cards, nil)
		page.On("Count", mock.Anything, ".project-card img").Return(0, nil)
		page.On("Evaluate", mock.Anything, mock.Anything).Return(float64(0), nil)
		page.On("SetViewport", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		page.On("Attribute", mock.Anything, ".projects-grid", "class").Return("projects-grid grid", true, nil)
		return stack
	}

	t.Run("six cards", func(t *testing.T) {
		stack := build(6)
		res := runScenario(t, stack, scenarios.WorkProjects())
		require.Equal(t, harness.StatusPassed, res.Status, res.Message)
		stack.Page.AssertCalled(t, "Goto", mock.Anything, "http://localhost:3000/work", mock.Anything)
		stack.Page.AssertCalled(t, "SetViewport", mock.Anything, 375, 667)
		stack.Page.AssertCalled(t, "SetViewport", mock.Anything, 768, 1024)
	})

	t.Run("too few cards", func(t *testing.T) {
		stack := build(4)
		res := runScenario(t, stack, scenarios.WorkProjects())
		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Equal(t, harness.KindAssertion, res.Kind)
		assert.Contains(t, res.Message, ">= 6")
	})
}

func TestHeroSection(t *testing.T) {
	stack := mocks.NewStack().ExpectLoad()
	page := stack.Page
	page.On("Wheel", mock.Anything, 0.0, 720.0).Return(nil).Once()
	page.On("Wheel", mock.Anything, 0.0, -720.0).Return(nil).Once()
	page.On("Visible", mock.Anything, mock.Anything).Return(true, nil)
	page.On("Evaluate", mock.Anything, mock.MatchedBy(func(e string) bool { return contains(e, "animationName") })).Return("float3d", nil)
	page.On("Evaluate", mock.Anything, mock.MatchedBy(func(e string) bool { return contains(e, "borderStyle") })).Return("solid", nil)
	page.On("Text", mock.Anything, ".hero-summary").Return("  Skilled in configuring and customizing applications on Unix-like and Windows systems, "+
		"with a solid foundation in relational databases to meet client-specific requirements. "+
		"Looking for full-time opportunities as a Full Stack Software Engineer.  ", nil)
	page.On("SetViewport", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res := runScenario(t, stack, scenarios.HeroSection(scenarios.Options{ViewportHeight: 720}))

	require.Equal(t, harness.StatusPassed, res.Status, res.Message)
	page.AssertNumberOfCalls(t, "SetViewport", 3)
}

func TestNavClock(t *testing.T) {
	now := time.Date(2024, time.April, 27, 14, 30, 5, 0, time.UTC)
	clock := func() time.Time { return now }
	opts := scenarios.Options{ClockWait: time.Millisecond, Now: clock}

	t.Run("ticks", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		stack.Page.On("Text", mock.Anything, "nav.glass-morphism .real-time-clock").Return("02:30 PM April 27, 2024", nil).Once()
		stack.Page.On("Text", mock.Anything, "nav.glass-morphism .real-time-clock").Return("02:29 PM April 27, 2024 ", nil).Once()

		res := runScenario(t, stack, scenarios.NavClock(opts))
		require.Equal(t, harness.StatusPassed, res.Status, res.Message)
	})

	t.Run("frozen", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		stack.Page.On("Text", mock.Anything, mock.Anything).Return("02:30 PM April 27, 2024", nil)

		res := runScenario(t, stack, scenarios.NavClock(opts))
		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Contains(t, res.Message, "changed")
	})

	t.Run("wrong date", func(t *testing.T) {
		stack := mocks.NewStack().ExpectLoad()
		stack.Page.On("Text", mock.Anything, mock.Anything).Return("02:30 PM April 26, 2024", nil)

		res := runScenario(t, stack, scenarios.NavClock(opts))
		assert.Equal(t, harness.StatusFailed, res.Status)
		assert.Equal(t, harness.KindAssertion, res.Kind)
	})
}

func contains(s, sub string) bool { return strings.Contains(s, sub) }
