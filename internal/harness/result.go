package harness

import "time"

// Status is the outcome of one scenario.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepRecord is the trace entry of one executed step.
type StepRecord struct {
	Index       int           `json:"index"`
	Kind        string        `json:"kind"`
	Description string        `json:"description"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
}

// Result is the outcome of running one scenario.
type Result struct {
	Scenario  string        `json:"scenario"`
	Title     string        `json:"title,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Status    Status        `json:"status"`
	Kind      Kind          `json:"kind,omitempty"`
	Message   string        `json:"message,omitempty"`
	States    []State       `json:"states"`
	Released  []string      `json:"released,omitempty"`
	Steps     []StepRecord  `json:"steps,omitempty"`
	Artifacts []string      `json:"artifacts,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`

	// Err is the error that ended the scenario, if any.
	Err error `json:"-"`
}

func newResult(sc Scenario, now time.Time) *Result {
	return &Result{
		Scenario:  sc.Name,
		Title:     sc.Title,
		Tags:      sc.Tags,
		StartedAt: now,
	}
}

func (r *Result) enter(s State) { r.States = append(r.States, s) }

func (r *Result) fail(err error) {
	r.Status = StatusFailed
	r.Kind = Classify(err)
	r.Message = err.Error()
	r.Err = err
}

// Reached reports whether the run passed through s.
func (r *Result) Reached(s State) bool {
	for _, st := range r.States {
		if st == s {
			return true
		}
	}
	return false
}

// Revision identifies the checkout of the application under test.
type Revision struct {
	Commit string `json:"commit"`
	Branch string `json:"branch,omitempty"`
	Dirty  bool   `json:"dirty"`
}

// NetworkEntry is one request recorded while the suite ran.
type NetworkEntry struct {
	Method   string        `json:"method"`
	URL      string        `json:"url"`
	Status   int           `json:"status"`
	Duration time.Duration `json:"duration_ns"`
}

// NetworkSummary aggregates recorded traffic.
type NetworkSummary struct {
	Requests int            `json:"requests"`
	Failed   []NetworkEntry `json:"failed,omitempty"`
}

// Report is the outcome of a suite run.
type Report struct {
	RunID     string          `json:"run_id"`
	Version   string          `json:"version,omitempty"`
	BaseURL   string          `json:"base_url"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration_ns"`
	Revision  *Revision       `json:"revision,omitempty"`
	Network   *NetworkSummary `json:"network,omitempty"`
	Results   []*Result       `json:"results"`
}

// Counts tallies results by status.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Failed reports whether any scenario failed.
func (r *Report) Failed() bool {
	_, failed, _ := r.Counts()
	return failed > 0
}
