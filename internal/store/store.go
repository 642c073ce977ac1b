// Package store persists suite reports in PostgreSQL.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrRunNotFound is returned when a run ID has no stored report.
var ErrRunNotFound = errors.New("run not found")

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    version     TEXT NOT NULL DEFAULT '',
    base_url    TEXT NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ns BIGINT NOT NULL,
    revision    TEXT NOT NULL DEFAULT '',
    branch      TEXT NOT NULL DEFAULT '',
    dirty       BOOLEAN NOT NULL DEFAULT FALSE,
    passed      INTEGER NOT NULL,
    failed      INTEGER NOT NULL,
    skipped     INTEGER NOT NULL,
    network     JSONB
);
CREATE TABLE IF NOT EXISTS results (
    run_id      TEXT NOT NULL REFERENCES runs (id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    scenario    TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    tags        TEXT[] NOT NULL DEFAULT '{}',
    status      TEXT NOT NULL,
    kind        TEXT NOT NULL DEFAULT '',
    message     TEXT NOT NULL DEFAULT '',
    states      TEXT[] NOT NULL DEFAULT '{}',
    steps       JSONB NOT NULL DEFAULT '[]',
    artifacts   TEXT[] NOT NULL DEFAULT '{}',
    started_at  TIMESTAMPTZ NOT NULL,
    duration_ns BIGINT NOT NULL,
    PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS runs_started_at_idx ON runs (started_at DESC);
`

const insertRunSQL = `
    INSERT INTO runs (id, version, base_url, started_at, duration_ns, revision, branch, dirty, passed, failed, skipped, network)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
`

var resultColumns = []string{
	"run_id", "position", "scenario", "title", "tags", "status", "kind", "message",
	"states", "steps", "artifacts", "started_at", "duration_ns",
}

// RunSummary is one row of the run history.
type RunSummary struct {
	ID        string
	Version   string
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Revision  string
	Passed    int
	Failed    int
	Skipped   int
}

// Store persists reports through a connection pool.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// PersistReport stores a run and all of its results in one transaction.
func (s *Store) PersistReport(ctx context.Context, report *harness.Report) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction.", zap.Error(rollbackErr))
		}
	}()

	var network []byte
	if report.Network != nil {
		if network, err = json.Marshal(report.Network); err != nil {
			return fmt.Errorf("failed to encode network summary: %w", err)
		}
	}
	var commit, branch string
	var dirty bool
	if rev := report.Revision; rev != nil {
		commit, branch, dirty = rev.Commit, rev.Branch, rev.Dirty
	}
	passed, failed, skipped := report.Counts()

	if _, err := tx.Exec(ctx, insertRunSQL,
		report.RunID, report.Version, report.BaseURL, report.StartedAt.UTC(), int64(report.Duration),
		commit, branch, dirty, passed, failed, skipped, network,
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if len(report.Results) > 0 {
		if err := s.persistResults(ctx, tx, report.RunID, report.Results); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Debug("Persisted run.", zap.String("run_id", report.RunID), zap.Int("results", len(report.Results)))
	return nil
}

func (s *Store) persistResults(ctx context.Context, tx pgx.Tx, runID string, results []*harness.Result) error {
	rows := make([][]interface{}, len(results))
	for i, res := range results {
		steps := []byte("[]")
		if len(res.Steps) > 0 {
			var err error
			if steps, err = json.Marshal(res.Steps); err != nil {
				return fmt.Errorf("failed to encode steps of %s: %w", res.Scenario, err)
			}
		}
		states := make([]string, len(res.States))
		for j, st := range res.States {
			states[j] = st.String()
		}
		rows[i] = []interface{}{
			runID, i, res.Scenario, res.Title, nonNil(res.Tags), string(res.Status), string(res.Kind), res.Message,
			states, steps, nonNil(res.Artifacts), res.StartedAt.UTC(), int64(res.Duration),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{"results"}, resultColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy results: %w", err)
	}
	if int(copyCount) != len(results) {
		return fmt.Errorf("mismatch in copied results count: expected %d, got %d", len(results), copyCount)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
        SELECT id, version, base_url, started_at, duration_ns, revision, passed, failed, skipped
        FROM runs
        ORDER BY started_at DESC
        LIMIT $1;
    `
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var durationNS int64
		if err := rows.Scan(&r.ID, &r.Version, &r.BaseURL, &r.StartedAt, &durationNS, &r.Revision, &r.Passed, &r.Failed, &r.Skipped); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.Duration = time.Duration(durationNS)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return runs, nil
}

// GetResults returns the results of a run in their original order.
func (s *Store) GetResults(ctx context.Context, runID string) ([]*harness.Result, error) {
	query := `
        SELECT scenario, title, tags, status, kind, message, states, steps, artifacts, started_at, duration_ns
        FROM results
        WHERE run_id = $1
        ORDER BY position ASC;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	var results []*harness.Result
	for rows.Next() {
		var (
			res        harness.Result
			status     string
			kind       string
			states     []string
			steps      []byte
			durationNS int64
		)
		if err := rows.Scan(&res.Scenario, &res.Title, &res.Tags, &status, &kind, &res.Message,
			&states, &steps, &res.Artifacts, &res.StartedAt, &durationNS); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		res.Status = harness.Status(status)
		res.Kind = harness.Kind(kind)
		res.Duration = time.Duration(durationNS)
		for _, name := range states {
			var st harness.State
			if err := st.UnmarshalText([]byte(name)); err != nil {
				s.log.Warn("Skipping unknown stored state.", zap.String("state", name))
				continue
			}
			res.States = append(res.States, st)
		}
		if len(steps) > 0 {
			if err := json.Unmarshal(steps, &res.Steps); err != nil {
				return nil, fmt.Errorf("failed to decode steps of %s: %w", res.Scenario, err)
			}
		}
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return results, nil
}

// GetReport rebuilds a stored report.
func (s *Store) GetReport(ctx context.Context, runID string) (*harness.Report, error) {
	query := `
        SELECT version, base_url, started_at, duration_ns, revision, branch, dirty, network
        FROM runs
        WHERE id = $1;
    `
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	report := &harness.Report{RunID: runID}
	var (
		found      bool
		durationNS int64
		rev        harness.Revision
		network    []byte
	)
	for rows.Next() {
		found = true
		if err := rows.Scan(&report.Version, &report.BaseURL, &report.StartedAt, &durationNS,
			&rev.Commit, &rev.Branch, &rev.Dirty, &network); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	report.Duration = time.Duration(durationNS)
	if rev.Commit != "" {
		report.Revision = &rev
	}
	if len(network) > 0 {
		var summary harness.NetworkSummary
		if err := json.Unmarshal(network, &summary); err != nil {
			return nil, fmt.Errorf("failed to decode network summary: %w", err)
		}
		report.Network = &summary
	}

	if report.Results, err = s.GetResults(ctx, runID); err != nil {
		return nil, err
	}
	return report, nil
}
