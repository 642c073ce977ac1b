package harness_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

func TestAssertionError_Message(t *testing.T) {
	err := harness.ExpectEqual("theme in storage", "dark", "light")
	require.Error(t, err)
	assert.Equal(t, "assertion failed: theme in storage\n  expected: dark\n  actual:   light", err.Error())
	assert.Equal(t, harness.KindAssertion, harness.Classify(err))

	wrapped := fmt.Errorf("step 3: %w", err)
	assert.Equal(t, harness.KindAssertion, harness.Classify(wrapped), "classification must see through wrapping")
}

func TestActionError(t *testing.T) {
	err := &harness.ActionError{Action: "click", Target: "submit", Timeout: 5 * time.Second, Err: context.DeadlineExceeded}

	assert.Equal(t, "click submit (timeout 5s): context deadline exceeded", err.Error())
	assert.Equal(t, harness.KindAutomation, harness.Classify(err))
	assert.True(t, harness.IsTimeout(err))
	assert.False(t, harness.IsTimeout(&harness.ActionError{Action: "navigate", Err: errors.New("net::ERR_CONNECTION_REFUSED")}))
	assert.Equal(t, harness.KindNone, harness.Classify(nil))
}

func TestExpectHelpers(t *testing.T) {
	assert.NoError(t, harness.ExpectEqual("n", 6, float64(6)))
	assert.NoError(t, harness.ExpectContains("class", "page dark", "dark"))
	assert.Error(t, harness.ExpectContains("class", "page light", "dark"))
	assert.NoError(t, harness.ExpectAtLeast("cards", 6, 7))

	err := harness.ExpectAtLeast("cards", 6, 4)
	var ae *harness.AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, ">= 6", ae.Expected)
	assert.Equal(t, 4, ae.Actual)
}

func TestMatchers(t *testing.T) {
	tests := []struct {
		name    string
		matcher harness.Matcher
		actual  any
		want    bool
	}{
		{"equals string", harness.Equals("dark"), "dark", true},
		{"equals string mismatch", harness.Equals("dark"), "light", false},
		{"equals int vs json number", harness.Equals(6), float64(6), true},
		{"equals number vs string", harness.Equals(6), "6", false},
		{"equals bool", harness.Equals(true), true, true},
		{"equals nil", harness.Equals(nil), nil, true},
		{"contains", harness.Contains("Thank you"), "Thank you for reaching out", true},
		{"contains non-string", harness.Contains("x"), 1.0, false},
		{"not contains", harness.NotContains("dark"), "light", true},
		{"not contains hit", harness.NotContains("dark"), "dark", false},
		{"at least", harness.AtLeast(6), float64(6), true},
		{"at least below", harness.AtLeast(6), float64(5), false},
		{"at least non-number", harness.AtLeast(1), "7", false},
		{"at most", harness.AtMost(0), float64(0), true},
		{"at most above", harness.AtMost(0), float64(1), false},
		{"truthy string", harness.Truthy(), "x", true},
		{"truthy empty", harness.Truthy(), "", false},
		{"truthy zero", harness.Truthy(), float64(0), false},
		{"truthy object", harness.Truthy(), map[string]any{}, true},
		{"falsy nil", harness.Falsy(), nil, true},
		{"falsy true", harness.Falsy(), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Match(tt.actual))
			assert.NotEmpty(t, tt.matcher.Expected())
		})
	}
}

func TestState_TextRoundTrip(t *testing.T) {
	assert.Equal(t, "BROWSER_LAUNCHED", harness.StateBrowserLaunched.String())
	assert.Equal(t, "State(99)", harness.State(99).String())

	b, err := json.Marshal([]harness.State{harness.StateStart, harness.StateTeardown})
	require.NoError(t, err)
	assert.JSONEq(t, `["START","TEARDOWN"]`, string(b))

	var back []harness.State
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, []harness.State{harness.StateStart, harness.StateTeardown}, back)

	var s harness.State
	assert.Error(t, s.UnmarshalText([]byte("FLYING")))
}

func TestEnv_URL(t *testing.T) {
	env := &harness.Env{BaseURL: "http://localhost:3000"}
	assert.Equal(t, "http://localhost:3000", env.URL(""))
	assert.Equal(t, "http://localhost:3000/work", env.URL("/work"))
	assert.Equal(t, "http://localhost:3000/work", env.URL("work"))
	assert.Equal(t, "about:blank", env.URL("about:blank"))
	assert.Equal(t, "https://example.com/x", env.URL("https://example.com/x"))
}

func TestScenario_Validate(t *testing.T) {
	assert.Error(t, harness.Scenario{}.Validate())
	assert.Error(t, harness.Scenario{Name: "empty"}.Validate())
	assert.NoError(t, harness.Scenario{Name: "todo", Incomplete: "later"}.Validate())
	assert.Error(t, harness.Scenario{Name: "nil step", Steps: []harness.Step{nil}}.Validate())
	assert.NoError(t, harness.Scenario{Name: "ok", Steps: []harness.Step{harness.Pause{}}}.Validate())

	sc := harness.Scenario{Name: "x", Tags: []string{"Contact"}}
	assert.True(t, sc.HasTag("contact"))
	assert.False(t, sc.HasTag("theme"))
}

func TestStepDescriptions(t *testing.T) {
	assert.Equal(t, "click submit", harness.Click{Selector: "#s", Label: "submit"}.Describe())
	assert.Equal(t, "click #s", harness.Click{Selector: "#s"}.Describe())
	assert.Equal(t, `fill email with "invalid-email"`, harness.Fill{Selector: "#e", Value: "invalid-email", Label: "email"}.Describe())
	assert.Equal(t, "goto /work", harness.Goto{Path: "/work"}.Describe())
	assert.Equal(t, "goto /", harness.Goto{}.Describe())
	assert.Equal(t, "wheel (0, 720)", harness.Wheel{DeltaY: 720}.Describe())
	assert.Equal(t, "viewport 375x667", harness.Viewport{Width: 375, Height: 667}.Describe())
	assert.Equal(t, `expect theme containing "dark"`, harness.ExpectEval{Label: "theme", Matcher: harness.Contains("dark")}.Describe())
	assert.Equal(t, harness.KindAssert, harness.Check{}.Kind())
	assert.Equal(t, harness.KindInteract, harness.Pause{}.Kind())
}
