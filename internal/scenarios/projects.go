package scenarios

import (
	"fmt"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const minProjectCards = 6

const (
	cardsWithoutTechExpr = `Array.from(document.querySelectorAll('.project-card'))` +
		`.filter(c => !c.querySelector('.tech-icon, .tech-emoji')).length`
	viewDetailsExpr = `Array.from(document.querySelectorAll('.project-card button'))` +
		`.filter(b => (b.textContent || '').includes('View Details')).length`
	hiddenCardsExpr = `Array.from(document.querySelectorAll('.project-card'))` +
		`.filter(c => { const r = c.getBoundingClientRect(); const s = getComputedStyle(c);` +
		` return r.width === 0 || r.height === 0 || s.visibility === 'hidden' || s.display === 'none'; }).length`
)

var projectViewports = [][2]int{{375, 667}, {768, 1024}}

// WorkProjects checks the project grid on the work page.
func WorkProjects() harness.Scenario {
	steps := []harness.Step{
		harness.Click{Selector: navWork, Label: "work link"},
		harness.Goto{Path: "/work"},
		expectCount("project cards", projectCard, harness.AtLeast(minProjectCards)),
		harness.ExpectEval{Label: "cards without a technology icon", Expression: cardsWithoutTechExpr, Matcher: harness.AtMost(0)},
		expectCount("project images", projectCard+" img", harness.AtMost(0)),
		harness.ExpectEval{Label: "View Details buttons", Expression: viewDetailsExpr, Matcher: harness.AtMost(0)},
	}
	for _, vp := range projectViewports {
		label := fmt.Sprintf("at %dx%d", vp[0], vp[1])
		steps = append(steps,
			harness.Viewport{Width: vp[0], Height: vp[1]},
			expectAttrContains("projects grid "+label, projectsGrid, "class", "projects-grid"),
			harness.ExpectEval{Label: "hidden project cards " + label, Expression: hiddenCardsExpr, Matcher: harness.AtMost(0)},
		)
	}
	return harness.Scenario{
		Name:        "work-projects",
		Title:       "Work page lists the projects",
		Description: "The work page shows at least six project cards, each with technology icons and no images or detail buttons, across viewports.",
		Path:        "/",
		Tags:        []string{"work", "smoke"},
		Steps:       steps,
	}
}
