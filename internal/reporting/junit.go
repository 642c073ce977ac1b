package reporting

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const junitSuiteName = "sitecheck"

// JUnitReporter writes reports as JUnit XML so CI systems can show each
// scenario as a test case. Assertion failures become <failure> and
// automation failures become <error>.
type JUnitReporter struct {
	mu      sync.Mutex
	writer  io.WriteCloser
	version string
}

// NewJUnitReporter creates a JUnitReporter that owns w.
func NewJUnitReporter(w io.WriteCloser, version string) *JUnitReporter {
	return &JUnitReporter{writer: w, version: version}
}

func (r *JUnitReporter) Write(report *harness.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc := BuildJUnit(report, r.version)
	doc.Indent(2)
	if _, err := doc.WriteTo(r.writer); err != nil {
		return fmt.Errorf("failed to write junit report: %w", err)
	}
	return nil
}

func (r *JUnitReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// BuildJUnit converts a report into a JUnit XML document.
func BuildJUnit(report *harness.Report, version string) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	passed, failed, skipped := report.Counts()
	var failures, errs int
	for _, res := range report.Results {
		if res.Status != harness.StatusFailed {
			continue
		}
		if res.Kind == harness.KindAssertion {
			failures++
		} else {
			errs++
		}
	}
	total := strconv.Itoa(passed + failed + skipped)

	suites := doc.CreateElement("testsuites")
	suites.CreateAttr("name", junitSuiteName)
	suites.CreateAttr("tests", total)
	suites.CreateAttr("failures", strconv.Itoa(failures))
	suites.CreateAttr("errors", strconv.Itoa(errs))
	suites.CreateAttr("time", seconds(report.Duration))

	suite := suites.CreateElement("testsuite")
	suite.CreateAttr("name", junitSuiteName)
	suite.CreateAttr("id", report.RunID)
	suite.CreateAttr("tests", total)
	suite.CreateAttr("failures", strconv.Itoa(failures))
	suite.CreateAttr("errors", strconv.Itoa(errs))
	suite.CreateAttr("skipped", strconv.Itoa(skipped))
	suite.CreateAttr("time", seconds(report.Duration))
	suite.CreateAttr("timestamp", report.StartedAt.UTC().Format(time.RFC3339))

	props := suite.CreateElement("properties")
	addProperty(props, "base_url", report.BaseURL)
	if version == "" {
		version = report.Version
	}
	addProperty(props, "version", version)
	if rev := report.Revision; rev != nil {
		addProperty(props, "revision", rev.Commit)
		addProperty(props, "branch", rev.Branch)
		addProperty(props, "dirty", strconv.FormatBool(rev.Dirty))
	}
	if net := report.Network; net != nil {
		addProperty(props, "network_requests", strconv.Itoa(net.Requests))
		addProperty(props, "network_failures", strconv.Itoa(len(net.Failed)))
	}

	for _, res := range report.Results {
		tc := suite.CreateElement("testcase")
		tc.CreateAttr("name", res.Scenario)
		tc.CreateAttr("classname", classname(res))
		tc.CreateAttr("time", seconds(res.Duration))

		switch res.Status {
		case harness.StatusSkipped:
			tc.CreateElement("skipped").CreateAttr("message", res.Message)
		case harness.StatusFailed:
			tag := "error"
			if res.Kind == harness.KindAssertion {
				tag = "failure"
			}
			el := tc.CreateElement(tag)
			el.CreateAttr("message", firstLine(res.Message))
			el.CreateAttr("type", string(res.Kind))
			el.SetText(res.Message)
		}
		if trace := stepTrace(res); trace != "" {
			tc.CreateElement("system-out").SetText(trace)
		}
	}
	return doc
}

func addProperty(props *etree.Element, name, value string) {
	if value == "" {
		return
	}
	p := props.CreateElement("property")
	p.CreateAttr("name", name)
	p.CreateAttr("value", value)
}

func classname(res *harness.Result) string {
	if len(res.Tags) > 0 {
		return junitSuiteName + "." + res.Tags[0]
	}
	return junitSuiteName
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func stepTrace(res *harness.Result) string {
	if len(res.Steps) == 0 && len(res.Artifacts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, st := range res.Steps {
		fmt.Fprintf(&b, "%2d. [%s] %s (%s)", st.Index+1, st.Kind, st.Description, st.Duration.Round(time.Millisecond))
		if st.Error != "" {
			b.WriteString(" FAILED")
		}
		b.WriteByte('\n')
	}
	for _, a := range res.Artifacts {
		fmt.Fprintf(&b, "artifact: %s\n", a)
	}
	return b.String()
}
