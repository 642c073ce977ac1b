package reporting

import (
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONReporter writes each report as an indented JSON document.
type JSONReporter struct {
	mu     sync.Mutex
	writer io.WriteCloser
}

// NewJSONReporter creates a JSONReporter that owns w.
func NewJSONReporter(w io.WriteCloser) *JSONReporter {
	return &JSONReporter{writer: w}
}

func (r *JSONReporter) Write(report *harness.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

func (r *JSONReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Close()
}

// DecodeReport reads a report written by JSONReporter.
func DecodeReport(rd io.Reader) (*harness.Report, error) {
	var report harness.Report
	if err := json.NewDecoder(rd).Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
