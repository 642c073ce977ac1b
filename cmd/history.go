package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/artifacts"
	"github.com/xkilldash9x/sitecheck/internal/config"
	"github.com/xkilldash9x/sitecheck/internal/harness"
	"github.com/xkilldash9x/sitecheck/internal/observability"
	"github.com/xkilldash9x/sitecheck/internal/reporting"
	"github.com/xkilldash9x/sitecheck/internal/revision"
	"github.com/xkilldash9x/sitecheck/internal/store"
)

// runHistory is the read side of the run store.
type runHistory interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	GetReport(ctx context.Context, runID string) (*harness.Report, error)
}

// openHistory is replaced in tests.
var openHistory = func(ctx context.Context, databaseURL string, logger *zap.Logger) (runHistory, func(), error) {
	return openStore(ctx, databaseURL, logger)
}

func newHistoryCmd() *cobra.Command {
	var (
		limit int
		show  bool
	)

	historyCmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored runs or show the results of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("history requires database.url (SITECHECK_DATABASE_URL)")
			}
			logger := observability.GetLogger()

			h, closeStore, err := openHistory(ctx, cfg.Database.URL, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				return listRuns(ctx, h, limit, out)
			}
			return showRun(ctx, h, args[0], show, out, logger)
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list.")
	historyCmd.Flags().BoolVar(&show, "show", false, "Summarize the DOM snapshots of failed scenarios.")
	return historyCmd
}

func listRuns(ctx context.Context, h runHistory, limit int, out io.Writer) error {
	runs, err := h.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs stored yet.")
		return err
	}

	t := newTable(out, "RUN", "STARTED", "DURATION", "REVISION", "PASSED", "FAILED", "SKIPPED")
	for _, r := range runs {
		t.Row(
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Duration.Round(100*time.Millisecond).String(),
			revision.Short(r.Revision),
			strconv.Itoa(r.Passed),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.Skipped),
		)
	}
	_, err = fmt.Fprintln(out, t.String())
	return err
}

func showRun(ctx context.Context, h runHistory, runID string, show bool, out io.Writer, logger *zap.Logger) error {
	report, err := h.GetReport(ctx, runID)
	if err != nil {
		return err
	}
	if err := writeReport(config.ReportConfig{Format: reporting.FormatText}, report, out); err != nil {
		return err
	}
	if !show {
		return nil
	}

	for _, res := range report.Results {
		if res.Status != harness.StatusFailed {
			continue
		}
		for _, path := range res.Artifacts {
			if filepath.Base(path) != artifacts.SnapshotFile {
				continue
			}
			content, err := artifacts.ReadSnapshot(path)
			if err != nil {
				logger.Warn("Could not read DOM snapshot.", zap.String("path", path), zap.Error(err))
				continue
			}
			summary, err := artifacts.Summarize(content)
			if err != nil {
				logger.Warn("Could not summarize DOM snapshot.", zap.String("path", path), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(out, "%s: %s\n", res.Scenario, summary); err != nil {
				return err
			}
		}
	}
	return nil
}
