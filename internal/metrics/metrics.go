// Package metrics exports suite outcomes in the Prometheus text format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

const namespace = "sitecheck"

// Collector records scenario and run metrics in its own registry.
type Collector struct {
	registry *prometheus.Registry

	scenarios       *prometheus.CounterVec
	failures        *prometheus.CounterVec
	scenarioSeconds *prometheus.HistogramVec
	lastRun         prometheus.Gauge
	runSeconds      prometheus.Gauge
	lastRunFailed   prometheus.Gauge
	requests        prometheus.Gauge
	failedRequests  prometheus.Gauge
}

var _ harness.Observer = (*Collector)(nil)

// New creates a Collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		scenarios: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "runs_total",
				Help:      "Number of finished scenarios by outcome.",
			},
			[]string{"scenario", "status"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "failures_total",
				Help:      "Number of failed scenarios by error kind.",
			},
			[]string{"scenario", "kind"},
		),
		scenarioSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scenario",
				Name:      "duration_seconds",
				Help:      "Wall time of a scenario including setup and teardown.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1s to ~4m
			},
			[]string{"scenario"},
		),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_timestamp_seconds",
			Help:      "Start time of the last suite run.",
		}),
		runSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of the last suite run.",
		}),
		lastRunFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "failed",
			Help:      "1 if any scenario of the last run failed.",
		}),
		requests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "requests",
			Help:      "Requests recorded by the capture proxy during the last run.",
		}),
		failedRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "network",
			Name:      "failed_requests",
			Help:      "Recorded requests that ended with status 400 or above.",
		}),
	}
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ScenarioFinished records one scenario outcome. It is safe for concurrent use.
func (c *Collector) ScenarioFinished(res *harness.Result) {
	c.scenarios.WithLabelValues(res.Scenario, string(res.Status)).Inc()
	if res.Status == harness.StatusFailed {
		c.failures.WithLabelValues(res.Scenario, string(res.Kind)).Inc()
	}
	if res.Status != harness.StatusSkipped {
		c.scenarioSeconds.WithLabelValues(res.Scenario).Observe(res.Duration.Seconds())
	}
}

// ObserveReport records the run level gauges.
func (c *Collector) ObserveReport(report *harness.Report) {
	c.lastRun.Set(float64(report.StartedAt.Unix()))
	c.runSeconds.Set(report.Duration.Seconds())
	if report.Failed() {
		c.lastRunFailed.Set(1)
	} else {
		c.lastRunFailed.Set(0)
	}
	if report.Network != nil {
		c.requests.Set(float64(report.Network.Requests))
		c.failedRequests.Set(float64(len(report.Network.Failed)))
	}
}

// WriteTextfile writes the registry for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
