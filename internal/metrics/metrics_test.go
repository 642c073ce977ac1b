package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

func TestCollector_ScenarioFinished(t *testing.T) {
	c := New()

	c.ScenarioFinished(&harness.Result{Scenario: "theme-persistence", Status: harness.StatusPassed, Duration: 3 * time.Second})
	c.ScenarioFinished(&harness.Result{Scenario: "theme-persistence", Status: harness.StatusPassed, Duration: 4 * time.Second})
	c.ScenarioFinished(&harness.Result{Scenario: "work-projects", Status: harness.StatusFailed, Kind: harness.KindAutomation, Duration: time.Second})
	c.ScenarioFinished(&harness.Result{Scenario: "skills-grid", Status: harness.StatusSkipped})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.scenarios.WithLabelValues("theme-persistence", "passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scenarios.WithLabelValues("skills-grid", "skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failures.WithLabelValues("work-projects", "automation")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.scenarioSeconds), "skipped scenarios have no duration")
}

func TestCollector_ObserveReport(t *testing.T) {
	c := New()
	started := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	c.ObserveReport(&harness.Report{
		StartedAt: started,
		Duration:  90 * time.Second,
		Network:   &harness.NetworkSummary{Requests: 12, Failed: []harness.NetworkEntry{{URL: "/favicon.ico", Status: 404}}},
		Results:   []*harness.Result{{Status: harness.StatusFailed}},
	})

	assert.Equal(t, float64(started.Unix()), testutil.ToFloat64(c.lastRun))
	assert.Equal(t, 90.0, testutil.ToFloat64(c.runSeconds))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.lastRunFailed))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.requests))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.failedRequests))

	c.ObserveReport(&harness.Report{Results: []*harness.Result{{Status: harness.StatusPassed}}})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.lastRunFailed))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := New()
	c.ScenarioFinished(&harness.Result{Scenario: "nav-clock", Status: harness.StatusPassed, Duration: 2 * time.Minute})

	path := filepath.Join(t.TempDir(), "textfile", "sitecheck.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `sitecheck_scenario_runs_total{scenario="nav-clock",status="passed"} 1`)
	assert.Contains(t, string(data), "sitecheck_scenario_duration_seconds_bucket")
}
