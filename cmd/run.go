package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/artifacts"
	"github.com/xkilldash9x/sitecheck/internal/browser"
	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/harness"
	"github.com/xkilldash9x/sitecheck/internal/metrics"
	"github.com/xkilldash9x/sitecheck/internal/netcapture"
	"github.com/xkilldash9x/sitecheck/internal/observability"
	"github.com/xkilldash9x/sitecheck/internal/reporting"
	"github.com/xkilldash9x/sitecheck/internal/revision"
	"github.com/xkilldash9x/sitecheck/internal/scenarios"
	"github.com/xkilldash9x/sitecheck/internal/store"
)

// ErrScenariosFailed is returned when the suite ran and at least one scenario failed.
var ErrScenariosFailed = errors.New("one or more scenarios failed")

// newDriver is replaced in tests.
var newDriver = func(cfg config.BrowserConfig, logger *zap.Logger) harness.Driver {
	return browser.NewDriver(cfg, logger)
}

const captureShutdownTimeout = 5 * time.Second

type runOptions struct {
	names   []string
	files   []string
	persist bool
	watch   bool
	// now overrides the scenarios' wall clock.
	now func() time.Time
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	runCmd := &cobra.Command{
		Use:   "run [scenario...]",
		Short: "Run the end-to-end scenarios against the site",
		Long: `Run executes the built-in scenarios plus any loaded from YAML files.
Scenarios can be picked by name as arguments or by tag with --tag.
The command exits non-zero if any scenario fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			opts.names = args

			if opts.watch {
				return watchSuite(ctx, cfg, opts, logger, cmd.OutOrStdout())
			}
			_, err = runSuite(ctx, cfg, opts, logger, cmd.OutOrStdout())
			return err
		},
	}

	runCmd.Flags().String("base-url", "", "Base URL of the site under test. (Overrides config/env)")
	runCmd.Flags().StringSlice("tag", nil, "Only run scenarios carrying one of these tags.")
	runCmd.Flags().StringSliceVar(&opts.files, "file", nil, "Extra scenario YAML file or directory. Repeatable.")
	runCmd.Flags().StringP("format", "f", "text", "Report format: text, json or junit.")
	runCmd.Flags().StringP("output", "o", "", "Report file path. Defaults to stdout.")
	runCmd.Flags().IntP("parallel", "j", 1, "Number of scenarios to run at once.")
	runCmd.Flags().Bool("headless", true, "Run the browser without a window.")
	runCmd.Flags().Bool("capture", false, "Record browser traffic through a local proxy.")
	runCmd.Flags().Bool("artifacts", true, "Capture a screenshot and DOM snapshot when a scenario fails.")
	runCmd.Flags().BoolVar(&opts.persist, "persist", false, "Store the run in PostgreSQL (requires database.url).")
	runCmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file.")
	runCmd.Flags().BoolVar(&opts.watch, "watch", false, "Re-run when scenario files change.")
	return runCmd
}

// loadRegistry registers the built-in scenarios and those found under the
// configured and extra paths.
func loadRegistry(cfg *config.Config, extra []string, now func() time.Time) (*scenarios.Registry, error) {
	registry, err := scenarios.NewRegistry(scenarios.Builtins(scenarios.Options{
		ClockWait:      cfg.Harness.ClockWait,
		ViewportWidth:  cfg.Browser.WindowWidth,
		ViewportHeight: cfg.Browser.WindowHeight,
		Now:            now,
	})...)
	if err != nil {
		return nil, err
	}

	paths := append(append([]string{}, cfg.Scenarios.Paths...), extra...)
	for _, path := range paths {
		loaded, err := scenarios.LoadPath(path)
		if err != nil {
			return nil, err
		}
		for _, sc := range loaded {
			if err := registry.Register(sc); err != nil {
				return nil, err
			}
		}
	}
	return registry, nil
}

func timingFrom(h config.HarnessConfig) harness.Timing {
	return harness.Timing{
		DefaultTimeout:    h.DefaultTimeout,
		NavigationTimeout: h.NavigationTimeout,
		ReadyTimeout:      h.ReadyTimeout,
		SettleDelay:       h.SettleDelay,
		ActionTimeout:     h.ActionTimeout,
		PostScenarioWait:  h.PostScenarioWait,
		TeardownTimeout:   h.TeardownTimeout,
	}
}

// runSuite runs the selected scenarios once and writes the report.
func runSuite(ctx context.Context, cfg *config.Config, opts runOptions, logger *zap.Logger, out io.Writer) (*harness.Report, error) {
	if opts.persist && cfg.Database.URL == "" {
		return nil, errors.New("--persist requires database.url (SITECHECK_DATABASE_URL)")
	}

	registry, err := loadRegistry(cfg, opts.files, opts.now)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	names := append(append([]string{}, cfg.Scenarios.Include...), opts.names...)
	selected, err := registry.Select(names, cfg.Scenarios.Tags)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, errors.New("no scenarios matched the selection")
	}

	runID := uuid.NewString()
	launch := harness.LaunchOptions{Timeout: cfg.Browser.LaunchTimeout}

	var recorder *netcapture.Recorder
	if cfg.Capture.Enabled {
		recorder = netcapture.New(logger)
		if err := recorder.Start(ctx, cfg.Capture.ListenAddr); err != nil {
			return nil, fmt.Errorf("failed to start capture proxy: %w", err)
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), captureShutdownTimeout)
			defer cancel()
			if err := recorder.Close(sctx); err != nil {
				logger.Warn("Failed to stop capture proxy.", zap.Error(err))
			}
		}()
		launch.ProxyServer = recorder.Addr()
	}

	var rev *harness.Revision
	if cfg.Target.AppDir != "" {
		if rev, err = revision.Stamp(cfg.Target.AppDir); err != nil {
			logger.Warn("Could not stamp the application revision.", zap.String("dir", cfg.Target.AppDir), zap.Error(err))
		}
	}

	runnerOpts := []harness.RunnerOption{harness.WithRunID(runID)}
	if cfg.Artifacts.Enabled {
		runnerOpts = append(runnerOpts, harness.WithArtifactSink(artifacts.New(cfg.Artifacts.Dir, logger)))
	}
	var collector *metrics.Collector
	if cfg.Report.MetricsFile != "" {
		collector = metrics.New()
		runnerOpts = append(runnerOpts, harness.WithObserver(collector))
	}

	runner := harness.NewRunner(newDriver(cfg.Browser, logger), harness.Options{
		BaseURL: cfg.Target.BaseURL,
		Timing:  timingFrom(cfg.Harness),
		Launch:  launch,
		Context: harness.ContextOptions{DefaultTimeout: cfg.Harness.DefaultTimeout},
	}, logger, runnerOpts...)

	report := harness.NewSuite(runner, cfg.Harness.Parallelism, cfg.Harness.LaunchRate, logger).
		WithVersion(Version).
		Run(ctx, selected)
	report.Revision = rev
	if recorder != nil {
		report.Network = recorder.Summary()
	}

	if err := writeReport(cfg.Report, report, out); err != nil {
		return report, err
	}

	if collector != nil {
		collector.ObserveReport(report)
		if err := collector.WriteTextfile(cfg.Report.MetricsFile); err != nil {
			return report, err
		}
	}

	if opts.persist {
		if err := persistReport(ctx, cfg.Database.URL, report, logger); err != nil {
			return report, err
		}
	}

	if report.Failed() {
		return report, ErrScenariosFailed
	}
	return report, nil
}

func writeReport(cfg config.ReportConfig, report *harness.Report, out io.Writer) error {
	format := strings.ToLower(cfg.Format)
	var reporter reporting.Reporter
	var err error
	if cfg.Output == "" || cfg.Output == "stdout" {
		reporter, err = reporting.NewStream(format, out, Version)
	} else {
		reporter, err = reporting.New(format, cfg.Output, Version)
	}
	if err != nil {
		return fmt.Errorf("failed to create reporter: %w", err)
	}
	if err := reporter.Write(report); err != nil {
		_ = reporter.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := reporter.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*store.Store, func(), error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s, err := store.New(ctx, pool, logger)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to initialize database store: %w", err)
	}
	return s, pool.Close, nil
}

func persistReport(ctx context.Context, databaseURL string, report *harness.Report, logger *zap.Logger) error {
	s, closePool, err := openStore(ctx, databaseURL, logger)
	if err != nil {
		return err
	}
	defer closePool()

	if err := s.EnsureSchema(ctx); err != nil {
		return err
	}
	if err := s.PersistReport(ctx, report); err != nil {
		return err
	}
	logger.Info("Run stored.", zap.String("run_id", report.RunID))
	return nil
}
