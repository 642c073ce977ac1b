package harness

import (
	"fmt"
	"math"
	"strings"
)

// Matcher decides whether an evaluated value satisfies an expectation.
type Matcher interface {
	Match(actual any) bool
	// Expected describes the expectation for failure messages.
	Expected() string
}

type equalsMatcher struct{ want any }

// Equals matches values equal to want. Integral JSON numbers compare equal to ints.
func Equals(want any) Matcher { return equalsMatcher{want: want} }

func (m equalsMatcher) Match(actual any) bool { return equalValues(m.want, actual) }
func (m equalsMatcher) Expected() string      { return fmt.Sprintf("%v", m.want) }

type containsMatcher struct {
	substr string
	negate bool
}

// Contains matches strings that contain substr.
func Contains(substr string) Matcher { return containsMatcher{substr: substr} }

// NotContains matches strings that do not contain substr. Non-strings never match.
func NotContains(substr string) Matcher { return containsMatcher{substr: substr, negate: true} }

func (m containsMatcher) Match(actual any) bool {
	s, ok := actual.(string)
	if !ok {
		return false
	}
	return strings.Contains(s, m.substr) != m.negate
}

func (m containsMatcher) Expected() string {
	if m.negate {
		return fmt.Sprintf("not containing %q", m.substr)
	}
	return fmt.Sprintf("containing %q", m.substr)
}

type boundMatcher struct {
	bound float64
	upper bool
}

// AtLeast matches numbers >= n.
func AtLeast(n float64) Matcher { return boundMatcher{bound: n} }

// AtMost matches numbers <= n.
func AtMost(n float64) Matcher { return boundMatcher{bound: n, upper: true} }

func (m boundMatcher) Match(actual any) bool {
	f, ok := toFloat(actual)
	if !ok {
		return false
	}
	if m.upper {
		return f <= m.bound
	}
	return f >= m.bound
}

func (m boundMatcher) Expected() string {
	if m.upper {
		return fmt.Sprintf("<= %v", m.bound)
	}
	return fmt.Sprintf(">= %v", m.bound)
}

type truthMatcher bool

// Truthy matches values JavaScript would treat as true.
func Truthy() Matcher { return truthMatcher(true) }

// Falsy matches values JavaScript would treat as false.
func Falsy() Matcher { return truthMatcher(false) }

func (m truthMatcher) Match(actual any) bool { return truthy(actual) == bool(m) }

func (m truthMatcher) Expected() string {
	if m {
		return "truthy"
	}
	return "falsy"
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if f, ok := toFloat(v); ok {
			return f != 0 && !math.IsNaN(f)
		}
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	if aNum != bNum {
		return false
	}
	return fmt.Sprintf("%#v", a) == fmt.Sprintf("%#v", b)
}
