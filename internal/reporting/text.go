package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// TextReporter writes a human readable summary. Colors are only emitted
// when the output is a terminal.
type TextReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser

	header  lipgloss.Style
	pass    lipgloss.Style
	fail    lipgloss.Style
	skip    lipgloss.Style
	dim     lipgloss.Style
	message lipgloss.Style
}

// NewTextReporter creates a TextReporter that owns w.
func NewTextReporter(w io.WriteCloser) *TextReporter {
	re := lipgloss.NewRenderer(w)
	return &TextReporter{
		writer: w,
		header: re.NewStyle().Bold(true),
		pass: re.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"}).
			Bold(true),
		fail: re.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).
			Bold(true),
		skip: re.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"}),
		dim: re.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		message: re.NewStyle().PaddingLeft(7),
	}
}

func (r *TextReporter) Write(report *harness.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("Run %s against %s", report.RunID, report.BaseURL)))
	b.WriteByte('\n')
	if rev := report.Revision; rev != nil {
		dirty := ""
		if rev.Dirty {
			dirty = " (dirty)"
		}
		b.WriteString(r.dim.Render(fmt.Sprintf("revision %s %s%s", shortCommit(rev.Commit), rev.Branch, dirty)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	for _, res := range report.Results {
		b.WriteString(r.badge(res.Status))
		b.WriteByte(' ')
		b.WriteString(res.Scenario)
		b.WriteString(r.dim.Render(" " + res.Duration.Round(time.Millisecond).String()))
		b.WriteByte('\n')
		if res.Message != "" && res.Status != harness.StatusPassed {
			msg := res.Message
			if res.Kind != harness.KindNone {
				msg = "[" + string(res.Kind) + "] " + msg
			}
			b.WriteString(r.message.Render(msg))
			b.WriteByte('\n')
		}
		for _, a := range res.Artifacts {
			b.WriteString(r.message.Render(r.dim.Render("artifact " + a)))
			b.WriteByte('\n')
		}
	}

	if net := report.Network; net != nil {
		b.WriteByte('\n')
		b.WriteString(fmt.Sprintf("%d requests recorded, %d failed\n", net.Requests, len(net.Failed)))
		for _, e := range net.Failed {
			b.WriteString(r.message.Render(r.dim.Render(fmt.Sprintf("%d %s %s", e.Status, e.Method, e.URL))))
			b.WriteByte('\n')
		}
	}

	passed, failed, skipped := report.Counts()
	summary := fmt.Sprintf("%d passed, %d failed, %d skipped in %s",
		passed, failed, skipped, report.Duration.Round(time.Millisecond))
	b.WriteByte('\n')
	if failed > 0 {
		b.WriteString(r.fail.Render(summary))
	} else {
		b.WriteString(r.pass.Render(summary))
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

func (r *TextReporter) badge(s harness.Status) string {
	switch s {
	case harness.StatusPassed:
		return r.pass.Render("PASS")
	case harness.StatusFailed:
		return r.fail.Render("FAIL")
	default:
		return r.skip.Render("SKIP")
	}
}

func (r *TextReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	return c
}
