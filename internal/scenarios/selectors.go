package scenarios

// Element paths into the portfolio markup. They are positional and break
// whenever the page structure shifts.
const (
	themeToggle = "xpath=html/body/div[55]/header/div[2]/div/div/div[2]/button"
	themeDark   = "xpath=html/body/div[56]/div/div[2]"
	themeLight  = "xpath=html/body/div[56]/div/div"

	navWork    = "xpath=html/body/div[55]/header/div[2]/div/div/nav/a"
	navContact = "xpath=html/body/div[55]/header/div[2]/div/div/nav/a[3]"

	contactModal   = "xpath=html/body/div[55]/div[3]"
	contactForm    = "html/body/div[55]/div[3]/div/div[2]/form"
	contactName    = "xpath=" + contactForm + "/div/input"
	contactEmail   = "xpath=" + contactForm + "/div[2]/input"
	contactSubject = "xpath=" + contactForm + "/div[3]/input"
	contactMessage = "xpath=" + contactForm + "/div[4]/textarea"
	contactSubmit  = "xpath=" + contactForm + "/button"

	nameRequired    = "xpath=" + contactForm + `/div[1]/span[contains(text(), "required")]`
	emailRequired   = "xpath=" + contactForm + `/div[2]/span[contains(text(), "required")]`
	messageRequired = "xpath=" + contactForm + `/div[4]/span[contains(text(), "required")]`
	emailFormat     = "xpath=" + contactForm + `/div[2]/span[contains(text(), "valid email")]`
	confirmation    = "xpath=" + contactForm + `/div[contains(text(), "Thank you") or contains(text(), "successfully")]`

	emailLink    = "xpath=html/body/div[55]/div/section[7]/div[2]/div/a[1]"
	githubLink   = "xpath=html/body/div[55]/div/section[7]/div[2]/div/a[2]"
	linkedinLink = "xpath=html/body/div[55]/div/section[7]/div[2]/div/a[3]"

	projectCard  = ".project-card"
	projectsGrid = ".projects-grid"

	heroText    = ".hero-3d-text"
	heroSummary = ".hero-summary"
	heroProfile = ".hero-profile-image"

	navClock = "nav.glass-morphism .real-time-clock"
)

// Values typed into the contact form.
const (
	formName         = "Test User"
	formInvalidEmail = "invalid-email"
	formValidEmail   = "testuser@example.com"
	formSubject      = "Test Project"
	formMessage      = "Short message"
)

const heroSummaryText = "Skilled in configuring and customizing applications on Unix-like and Windows systems, " +
	"with a solid foundation in relational databases to meet client-specific requirements. " +
	"Looking for full-time opportunities as a Full Stack Software Engineer."
