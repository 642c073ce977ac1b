package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		raw  string
		kind selectorKind
		expr string
	}{
		{"#contact-form button", cssSelector, "#contact-form button"},
		{"css=div.card", cssSelector, "div.card"},
		{"xpath=//button[@type='submit']", xpathSelector, "//button[@type='submit']"},
		{"html/body/div[55]/header", xpathSelector, "/html/body/div[55]/header"},
		{"/html/body", xpathSelector, "/html/body"},
		{"(//a)[2]", xpathSelector, "(//a)[2]"},
		{"xpath=html/body", xpathSelector, "/html/body"},
		{"  nav a  ", cssSelector, "nav a"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			s, err := parseSelector(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.kind)
			assert.Equal(t, tt.expr, s.expr)
		})
	}
}

func TestParseSelector_Empty(t *testing.T) {
	for _, raw := range []string{"", "   ", "xpath=", "css= "} {
		_, err := parseSelector(raw)
		assert.Error(t, err, "%q", raw)
	}
}

func TestElementCall_QuotesArguments(t *testing.T) {
	s, err := parseSelector(`//span[contains(text(),"required")]`)
	require.NoError(t, err)

	expr, err := elementCall(attributeScript, s, `data-"theme"`)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(expr, attributeScript+"("))
	assert.Contains(t, expr, `["xpath","//span[contains(text(),\"required\")]"]`)
	assert.True(t, strings.HasSuffix(expr, `, "data-\"theme\"")`))
}
