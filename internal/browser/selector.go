package browser

import (
	"errors"
	"strings"

	"github.com/chromedp/chromedp"
)

type selectorKind string

const (
	cssSelector   selectorKind = "css"
	xpathSelector selectorKind = "xpath"
)

// selector is a parsed element locator.
type selector struct {
	kind selectorKind
	expr string
}

// parseSelector accepts "xpath=" and "css=" prefixes. Without a prefix,
// anything rooted at "/", "(" or "html/" is XPath and the rest is CSS.
// XPath expressions are made absolute so DOM search treats them as XPath.
func parseSelector(raw string) (selector, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return selector{}, errors.New("empty selector")
	}
	if rest, ok := strings.CutPrefix(s, "xpath="); ok {
		return xpath(rest)
	}
	if rest, ok := strings.CutPrefix(s, "css="); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return selector{}, errors.New("empty css selector")
		}
		return selector{kind: cssSelector, expr: rest}, nil
	}
	if strings.HasPrefix(s, "/") || strings.HasPrefix(s, "(") || strings.HasPrefix(s, "html/") {
		return xpath(s)
	}
	return selector{kind: cssSelector, expr: s}, nil
}

func xpath(expr string) (selector, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return selector{}, errors.New("empty xpath selector")
	}
	if !strings.HasPrefix(expr, "/") && !strings.HasPrefix(expr, "(") {
		expr = "/" + expr
	}
	return selector{kind: xpathSelector, expr: expr}, nil
}

// by returns the chromedp query option matching the selector kind.
func (s selector) by() chromedp.QueryOption {
	if s.kind == xpathSelector {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (s selector) String() string {
	return string(s.kind) + "=" + s.expr
}
