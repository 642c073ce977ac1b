package artifacts

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// errorSelectors match the elements a page uses to report problems.
const errorSelectors = `[role="alert"], [class*="error"]`

// Summary is a short description of a DOM snapshot.
type Summary struct {
	Title  string
	Forms  int
	Links  int
	Errors []string
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "title=%q forms=%d links=%d", s.Title, s.Forms, s.Links)
	if len(s.Errors) > 0 {
		fmt.Fprintf(&b, " errors=%q", s.Errors)
	}
	return b.String()
}

// Summarize extracts the title, form and link counts and the visible error
// texts of an HTML document.
func Summarize(document string) (Summary, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return Summary{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	summary := Summary{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Forms: doc.Find("form").Length(),
		Links: doc.Find("a[href]").Length(),
	}

	seen := make(map[string]bool)
	doc.Find(errorSelectors).Each(func(_ int, s *goquery.Selection) {
		if hidden(s) {
			return
		}
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		summary.Errors = append(summary.Errors, text)
	})
	return summary, nil
}

// hidden reports whether the element or an ancestor is hidden by markup.
// Stylesheets are not evaluated.
func hidden(s *goquery.Selection) bool {
	for _, n := range s.Nodes {
		for cur := n; cur != nil; cur = cur.Parent {
			if cur.Type != html.ElementNode {
				continue
			}
			for _, attr := range cur.Attr {
				switch attr.Key {
				case "hidden":
					return true
				case "aria-hidden":
					if attr.Val == "true" {
						return true
					}
				case "style":
					style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
					if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
						return true
					}
				}
			}
		}
	}
	return false
}
