package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind classifies why a scenario failed.
type Kind string

const (
	KindNone Kind = ""
	// KindAssertion means an expected condition about page state did not hold.
	KindAssertion Kind = "assertion"
	// KindAutomation means a browser action did not complete within its bound.
	KindAutomation Kind = "automation"
)

// AssertionError reports a failed check with both sides of the comparison.
type AssertionError struct {
	Check    string
	Expected any
	Actual   any
}

func (e *AssertionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "assertion failed: %s\n", e.Check)
	fmt.Fprintf(&b, "  expected: %v\n", e.Expected)
	fmt.Fprintf(&b, "  actual:   %v", e.Actual)
	return b.String()
}

// ActionError reports a navigation, wait or element action that failed or timed out.
type ActionError struct {
	Action  string
	Target  string
	Timeout time.Duration
	Err     error
}

func (e *ActionError) Error() string {
	msg := e.Action
	if e.Target != "" {
		msg += " " + e.Target
	}
	if e.Timeout > 0 {
		msg += fmt.Sprintf(" (timeout %s)", e.Timeout)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// Classify maps an error onto one of the two failure kinds.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ae *AssertionError
	if errors.As(err, &ae) {
		return KindAssertion
	}
	return KindAutomation
}

// IsTimeout reports whether err stems from an elapsed bound.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}

// Expect returns an AssertionError unless ok holds.
func Expect(check string, ok bool, expected, actual any) error {
	if ok {
		return nil
	}
	return &AssertionError{Check: check, Expected: expected, Actual: actual}
}

// ExpectEqual compares after normalizing JSON numbers.
func ExpectEqual(check string, expected, actual any) error {
	return Expect(check, equalValues(expected, actual), expected, actual)
}

// ExpectContains checks that s contains substr.
func ExpectContains(check, s, substr string) error {
	return Expect(check, strings.Contains(s, substr), fmt.Sprintf("contains %q", substr), s)
}

// ExpectAtLeast checks that n >= min.
func ExpectAtLeast(check string, min, n int) error {
	return Expect(check, n >= min, fmt.Sprintf(">= %d", min), n)
}
