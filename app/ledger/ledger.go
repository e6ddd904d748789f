package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/lysyi3m/routesnap/app/pipeline"
	"github.com/lysyi3m/routesnap/app/registry"
)

// timeLayout sorts lexically in the same order as the instants it encodes.
const timeLayout = "2006-01-02T15:04:05.000000Z"

const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusAborted   = "aborted"
)

// Ledger records build runs in SQLite so the partial state of an aborted
// build can be inspected afterwards.
type Ledger struct {
	db *sql.DB
}

type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         string
	OutputDir      string
	ScriptPath     string
	StylePath      string
	AssetsDegraded bool
	Total          int
	Written        int
	Failed         int
	Skipped        int
	Error          string
}

func Open(path string) (*Ledger, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// Workers record concurrently; SQLite allows one writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open ledger %s: %w", path, err)
	}

	version, _, err := RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	slog.Debug("Ledger opened", "path", path, "schema_version", version)
	return &Ledger{db: db}, nil
}

func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) StartRun(ctx context.Context, report *pipeline.Report) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO build_runs (id, started_at, status, output_dir, routes_total)
		VALUES (?, ?, ?, ?, ?)
	`, id, formatTime(report.StartedAt), StatusRunning, report.OutputDir, len(report.Routes))
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return id, nil
}

const upsertRoute = `
	INSERT INTO route_results (run_id, path, output, status, template, fallback, error)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (run_id, path) DO UPDATE SET
		output = excluded.output,
		status = excluded.status,
		template = excluded.template,
		fallback = excluded.fallback,
		error = excluded.error
`

func (l *Ledger) RecordRoute(ctx context.Context, runID string, r pipeline.RouteResult) error {
	_, err := l.db.ExecContext(ctx, upsertRoute,
		runID, r.Path, r.Output, string(r.Status), string(r.Template), r.Fallback, r.Error)
	if err != nil {
		return fmt.Errorf("failed to record route %s: %w", r.Path, err)
	}
	return nil
}

// FinishRun stores the final state of every route, including the ones never
// attempted, with the run's warnings and outcome.
func (l *Ledger) FinishRun(ctx context.Context, report *pipeline.Report, runErr error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range report.Routes {
		if _, err := tx.ExecContext(ctx, upsertRoute,
			report.RunID, r.Path, r.Output, string(r.Status), string(r.Template), r.Fallback, r.Error); err != nil {
			return fmt.Errorf("failed to record route %s: %w", r.Path, err)
		}
	}

	for _, w := range report.Warnings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO run_warnings (run_id, component, path, message) VALUES (?, ?, ?, ?)
		`, report.RunID, w.Component, w.Path, w.Message); err != nil {
			return fmt.Errorf("failed to record warning: %w", err)
		}
	}

	status, message := StatusSucceeded, ""
	if runErr != nil {
		status, message = StatusAborted, runErr.Error()
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE build_runs
		SET finished_at = ?, status = ?, script_path = ?, style_path = ?, assets_degraded = ?,
			routes_written = ?, routes_failed = ?, routes_skipped = ?, error = ?
		WHERE id = ?
	`, formatTime(report.FinishedAt), status, report.Assets.ScriptPath, report.Assets.StylePath, report.Assets.Degraded,
		len(report.Written()), len(report.Failed()), len(report.Skipped()), message, report.RunID)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, started_at, COALESCE(finished_at, ''), status, output_dir, script_path, style_path,
			assets_degraded, routes_total, routes_written, routes_failed, routes_skipped, error
		FROM build_runs
		ORDER BY started_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started, finished string
		if err := rows.Scan(&run.ID, &started, &finished, &run.Status, &run.OutputDir, &run.ScriptPath, &run.StylePath,
			&run.AssetsDegraded, &run.Total, &run.Written, &run.Failed, &run.Skipped, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Routes returns the recorded route outcomes of one run in path order.
func (l *Ledger) Routes(ctx context.Context, runID string) ([]pipeline.RouteResult, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT path, output, status, template, fallback, error
		FROM route_results
		WHERE run_id = ?
		ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query routes: %w", err)
	}
	defer rows.Close()

	var results []pipeline.RouteResult
	for rows.Next() {
		var r pipeline.RouteResult
		var status, template string
		if err := rows.Scan(&r.Path, &r.Output, &status, &template, &r.Fallback, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan route: %w", err)
		}
		r.Status = pipeline.RouteStatus(status)
		r.Template = registry.ContentKey(template)
		results = append(results, r)
	}
	return results, rows.Err()
}

func (l *Ledger) Warnings(ctx context.Context, runID string) ([]pipeline.Warning, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT component, path, message FROM run_warnings WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []pipeline.Warning
	for rows.Next() {
		var w pipeline.Warning
		if err := rows.Scan(&w.Component, &w.Path, &w.Message); err != nil {
			return nil, fmt.Errorf("failed to scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
