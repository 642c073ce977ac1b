package scenarios

import (
	"github.com/xkilldash9x/sitecheck/internal/harness"
)

func openContactForm() []harness.Step {
	return []harness.Step{
		harness.Click{Selector: navContact, Label: "contact link"},
		expectVisible("contact modal", contactModal),
	}
}

func fillContactForm(email string) []harness.Step {
	return []harness.Step{
		harness.Fill{Selector: contactName, Value: formName, Label: "name field"},
		harness.Fill{Selector: contactEmail, Value: email, Label: "email field"},
		harness.Fill{Selector: contactSubject, Value: formSubject, Label: "subject field"},
		harness.Fill{Selector: contactMessage, Value: formMessage, Label: "message field"},
	}
}

func submitContactForm() harness.Step {
	return harness.Click{Selector: contactSubmit, Label: "send button"}
}

func contactScenario(name, title, description string, steps ...[]harness.Step) harness.Scenario {
	var all []harness.Step
	for _, s := range steps {
		all = append(all, s...)
	}
	return harness.Scenario{
		Name:        name,
		Title:       title,
		Description: description,
		Path:        "/",
		Tags:        []string{"contact", "form"},
		Steps:       all,
	}
}

// ContactEmptySubmit submits the form untouched and expects every required
// field to complain.
func ContactEmptySubmit() harness.Scenario {
	return contactScenario(
		"contact-empty-submit",
		"Contact form rejects an empty submission",
		"Submitting with every field empty shows the required messages for name, email and message, and no confirmation.",
		openContactForm(),
		[]harness.Step{
			submitContactForm(),
			expectVisible("name required message", nameRequired),
			expectVisible("email required message", emailRequired),
			expectVisible("message required message", messageRequired),
			expectHidden("confirmation", confirmation),
		},
	)
}

// ContactInvalidEmail submits a malformed address.
func ContactInvalidEmail() harness.Scenario {
	return contactScenario(
		"contact-invalid-email",
		"Contact form rejects a malformed email",
		"Submitting an address without a domain shows the email format message and no confirmation.",
		openContactForm(),
		fillContactForm(formInvalidEmail),
		[]harness.Step{
			submitContactForm(),
			expectVisible("email format message", emailFormat),
			expectHidden("confirmation", confirmation),
		},
	)
}

// ContactValidSubmit submits a complete form and expects a confirmation.
func ContactValidSubmit() harness.Scenario {
	return contactScenario(
		"contact-valid-submit",
		"Contact form accepts a valid submission",
		"Submitting a complete form with a valid address shows the confirmation message.",
		openContactForm(),
		fillContactForm(formValidEmail),
		[]harness.Step{
			submitContactForm(),
			expectVisible("confirmation", confirmation),
		},
	)
}

// ContactLinks checks the alternative contact methods in the page footer section.
func ContactLinks() harness.Scenario {
	return harness.Scenario{
		Name:        "contact-links",
		Title:       "Alternative contact links point at the right places",
		Description: "The email, GitHub and LinkedIn links are visible and carry the expected targets.",
		Path:        "/",
		Tags:        []string{"contact", "links"},
		Steps: []harness.Step{
			harness.Wheel{DeltaY: 600},
			expectVisible("email link", emailLink),
			expectVisible("GitHub link", githubLink),
			expectVisible("LinkedIn link", linkedinLink),
			expectAttrContains("email link", emailLink, "href", "mailto:"),
			expectAttrContains("GitHub link", githubLink, "href", "github.com"),
			expectAttrContains("LinkedIn link", linkedinLink, "href", "linkedin.com"),
		},
	}
}
