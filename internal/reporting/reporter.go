// Package reporting renders suite reports as text, JSON or JUnit XML.
package reporting

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// Supported output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJUnit = "junit"
)

// Reporter writes suite reports to an output.
type Reporter interface {
	// Write renders one report.
	Write(report *harness.Report) error
	// Close finalizes the output and releases any file handle.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// New creates a reporter for format writing to outputPath, or to stdout
// when the path is empty or "stdout".
func New(format, outputPath, version string) (Reporter, error) {
	switch format {
	case FormatText, FormatJSON, FormatJUnit:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	var writer io.WriteCloser
	if outputPath == "" || outputPath == "stdout" {
		// Wrap Stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		if dir := filepath.Dir(outputPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
			}
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}
	return NewWriter(format, writer, version)
}

// NewStream creates a reporter writing to w without ever closing it.
func NewStream(format string, w io.Writer, version string) (Reporter, error) {
	return NewWriter(format, &nopWriteCloser{w}, version)
}

// NewWriter creates a reporter that takes ownership of w.
func NewWriter(format string, w io.WriteCloser, version string) (Reporter, error) {
	switch format {
	case FormatText:
		return NewTextReporter(w), nil
	case FormatJSON:
		return NewJSONReporter(w), nil
	case FormatJUnit:
		return NewJUnitReporter(w, version), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
