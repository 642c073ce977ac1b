package harness

import (
	"context"
	"math"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Suite runs a batch of independent scenarios, each with its own browser.
type Suite struct {
	runner      *Runner
	parallelism int
	limiter     *rate.Limiter
	logger      *zap.Logger
	version     string
}

// NewSuite creates a Suite. parallelism below 1 runs scenarios one at a
// time; launchRate caps scenario starts per second, zero meaning no cap.
func NewSuite(runner *Runner, parallelism int, launchRate float64, logger *zap.Logger) *Suite {
	if parallelism < 1 {
		parallelism = 1
	}
	s := &Suite{
		runner:      runner,
		parallelism: parallelism,
		logger:      logger.Named("suite"),
	}
	if launchRate > 0 {
		burst := int(math.Max(1, math.Ceil(launchRate)))
		s.limiter = rate.NewLimiter(rate.Limit(launchRate), burst)
	}
	return s
}

// WithVersion stamps reports with the tool version.
func (s *Suite) WithVersion(v string) *Suite {
	s.version = v
	return s
}

// Run executes scenarios and returns a report whose results keep input order.
func (s *Suite) Run(ctx context.Context, scenarios []Scenario) *Report {
	report := &Report{
		RunID:     s.runner.RunID(),
		Version:   s.version,
		BaseURL:   s.runner.BaseURL(),
		StartedAt: s.runner.now(),
		Results:   make([]*Result, len(scenarios)),
	}
	s.logger.Info("Starting scenario run.",
		zap.String("run_id", report.RunID),
		zap.Int("scenarios", len(scenarios)),
		zap.Int("parallelism", s.parallelism),
	)

	var g errgroup.Group
	g.SetLimit(s.parallelism)
	for i, sc := range scenarios {
		if s.limiter != nil && sc.Incomplete == "" {
			if err := s.limiter.Wait(ctx); err != nil {
				report.Results[i] = s.notStarted(sc, err)
				continue
			}
		}
		g.Go(func() error {
			report.Results[i] = s.runner.Run(ctx, sc)
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = s.runner.now().Sub(report.StartedAt)
	passed, failed, skipped := report.Counts()
	s.logger.Info("Scenario run finished.",
		zap.String("run_id", report.RunID),
		zap.Int("passed", passed),
		zap.Int("failed", failed),
		zap.Int("skipped", skipped),
		zap.Duration("duration", report.Duration),
	)
	return report
}

func (s *Suite) notStarted(sc Scenario, err error) *Result {
	res := newResult(sc, s.runner.now())
	res.fail(&ActionError{Action: "schedule scenario", Err: err})
	return res
}
