package scenarios

import (
	"fmt"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const storedThemeExpr = "localStorage.getItem('theme')"

// bodyHasClass is true only when name is a whole token of the body class list.
func bodyHasClass(name string) string {
	return fmt.Sprintf("document.body.classList.contains(%q)", name)
}

// themeIs asserts both the body class and the persisted storage entry.
func themeIs(theme string) []harness.Step {
	return []harness.Step{
		harness.ExpectEval{Label: "body class", Expression: bodyHasClass(theme), Matcher: harness.Truthy()},
		harness.ExpectEval{Label: "stored theme", Expression: storedThemeExpr, Matcher: harness.Equals(theme)},
	}
}

func chooseTheme(option, label string) []harness.Step {
	return []harness.Step{
		harness.Click{Selector: themeToggle, Label: "theme toggle"},
		harness.Click{Selector: option, Label: label},
	}
}

// ThemePersistence switches to dark and then light mode, checking after
// each switch and again after a full reload.
func ThemePersistence() harness.Scenario {
	var steps []harness.Step
	steps = append(steps, chooseTheme(themeDark, "dark theme option")...)
	steps = append(steps, themeIs("dark")...)
	steps = append(steps, harness.Goto{Path: "/"})
	steps = append(steps, themeIs("dark")...)
	steps = append(steps, chooseTheme(themeLight, "light theme option")...)
	steps = append(steps, themeIs("light")...)
	steps = append(steps, harness.Goto{Path: "/"})
	steps = append(steps, themeIs("light")...)

	return harness.Scenario{
		Name:        "theme-persistence",
		Title:       "Theme switching persists across reloads",
		Description: "Selecting a theme updates the body class and the stored preference, and both survive a reload.",
		Path:        "/",
		Tags:        []string{"theme", "smoke"},
		Steps:       steps,
	}
}
