package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mattjoyce/fleetfix/internal/remediation"
)

// OpenSQLite opens (and creates if needed) the SQLite database at path and
// ensures required tables exist.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := BootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BootstrapSQLite creates tables/indexes if missing.
func BootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS remediations (
  id             TEXT PRIMARY KEY,
  name           TEXT NOT NULL,
  account_number TEXT NOT NULL,
  created_by     TEXT NOT NULL,
  created_at     TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS remediation_issues (
  id             TEXT PRIMARY KEY,
  remediation_id TEXT NOT NULL REFERENCES remediations(id) ON DELETE CASCADE,
  resolution     TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS issue_systems (
  issue_id      TEXT NOT NULL REFERENCES remediation_issues(id) ON DELETE CASCADE,
  system_id     TEXT NOT NULL,
  hostname      TEXT NOT NULL,
  display_name  TEXT,
  executor_id   TEXT,
  executor_name TEXT,
  executor_type TEXT,
  PRIMARY KEY (issue_id, system_id)
);`,
		`CREATE TABLE IF NOT EXISTS playbook_runs (
  id             TEXT PRIMARY KEY,
  remediation_id TEXT NOT NULL REFERENCES remediations(id) ON DELETE CASCADE,
  status         TEXT NOT NULL,
  created_by     TEXT NOT NULL,
  created_at     TEXT NOT NULL,
  updated_at     TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS playbook_run_executors (
  id              TEXT PRIMARY KEY,
  playbook_run_id TEXT NOT NULL REFERENCES playbook_runs(id) ON DELETE CASCADE,
  executor_id     TEXT NOT NULL,
  executor_name   TEXT NOT NULL,
  status          TEXT NOT NULL,
  system_count    INTEGER NOT NULL DEFAULT 0,
  updated_at      TEXT NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS playbook_run_systems (
  id                       TEXT PRIMARY KEY,
  playbook_run_executor_id TEXT NOT NULL REFERENCES playbook_run_executors(id) ON DELETE CASCADE,
  system_id                TEXT NOT NULL,
  system_name              TEXT NOT NULL,
  status                   TEXT NOT NULL,
  sequence                 INTEGER NOT NULL DEFAULT 0,
  console                  TEXT NOT NULL DEFAULT '',
  updated_at               TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_remediation ON playbook_runs(remediation_id, created_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_run_executors_run ON playbook_run_executors(playbook_run_id);`,
		`CREATE INDEX IF NOT EXISTS idx_run_systems_executor ON playbook_run_systems(playbook_run_executor_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite: %w", err)
		}
	}
	return nil
}

// SQLite implements Store on a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an opened database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Get(ctx context.Context, remediationID, account, _ string) (*remediation.Remediation, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, account_number, created_by, created_at, updated_at
FROM remediations
WHERE id = ? AND account_number = ?;
`, remediationID, account)

	var (
		rem        remediation.Remediation
		createdAtS string
		updatedAtS string
	)
	err := row.Scan(&rem.ID, &rem.Name, &rem.AccountNumber, &rem.CreatedBy, &createdAtS, &updatedAtS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get remediation: %w", err)
	}
	rem.CreatedAt = parseTime(createdAtS)
	rem.UpdatedAt = parseTime(updatedAtS)

	issues, err := s.issues(ctx, rem.ID)
	if err != nil {
		return nil, err
	}
	rem.Issues = issues
	return &rem, nil
}

func (s *SQLite) issues(ctx context.Context, remediationID string) ([]remediation.Issue, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT i.id, i.resolution,
       sys.system_id, sys.hostname, sys.display_name,
       sys.executor_id, sys.executor_name, sys.executor_type
FROM remediation_issues i
LEFT JOIN issue_systems sys ON sys.issue_id = i.id
WHERE i.remediation_id = ?
ORDER BY i.id, sys.system_id;
`, remediationID)
	if err != nil {
		return nil, fmt.Errorf("load issues: %w", err)
	}
	defer rows.Close()

	var issues []remediation.Issue
	index := make(map[string]int)
	for rows.Next() {
		var (
			issueID, resolution                    string
			systemID, hostname, displayName        sql.NullString
			executorID, executorName, executorType sql.NullString
		)
		if err := rows.Scan(&issueID, &resolution, &systemID, &hostname, &displayName,
			&executorID, &executorName, &executorType); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		i, ok := index[issueID]
		if !ok {
			issues = append(issues, remediation.Issue{ID: issueID, Resolution: resolution})
			i = len(issues) - 1
			index[issueID] = i
		}
		if systemID.Valid {
			issues[i].Systems = append(issues[i].Systems, remediation.System{
				ID:           systemID.String,
				Hostname:     hostname.String,
				DisplayName:  displayName.String,
				ExecutorID:   executorID.String,
				ExecutorName: executorName.String,
				ExecutorType: executorType.String,
			})
		}
	}
	return issues, rows.Err()
}

func (s *SQLite) GetRunningExecutors(ctx context.Context, remediationID, runID, account, _ string) ([]remediation.RunExecutor, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT e.id, e.playbook_run_id, e.executor_id, e.executor_name, e.status, e.system_count, e.updated_at
FROM playbook_run_executors e
JOIN playbook_runs r ON r.id = e.playbook_run_id
JOIN remediations m ON m.id = r.remediation_id
WHERE r.id = ? AND r.remediation_id = ? AND m.account_number = ?
  AND e.status IN (?, ?)
ORDER BY e.executor_name;
`, runID, remediationID, account, remediation.RunStatusPending, remediation.RunStatusRunning)
	if err != nil {
		return nil, fmt.Errorf("get running executors: %w", err)
	}
	defer rows.Close()
	return scanRunExecutors(rows)
}

func (s *SQLite) GetPlaybookRuns(ctx context.Context, remediationID, account, _ string) ([]remediation.PlaybookRun, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.remediation_id, r.status, r.created_by, r.created_at, r.updated_at
FROM playbook_runs r
JOIN remediations m ON m.id = r.remediation_id
WHERE r.remediation_id = ? AND m.account_number = ?
ORDER BY r.created_at DESC, r.id;
`, remediationID, account)
	if err != nil {
		return nil, fmt.Errorf("get playbook runs: %w", err)
	}
	defer rows.Close()

	var runs []remediation.PlaybookRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		execs, err := s.runExecutors(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Executors = execs
	}
	return runs, nil
}

func (s *SQLite) GetRunDetails(ctx context.Context, remediationID, runID, account, _ string) (*remediation.PlaybookRun, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.remediation_id, r.status, r.created_by, r.created_at, r.updated_at
FROM playbook_runs r
JOIN remediations m ON m.id = r.remediation_id
WHERE r.id = ? AND r.remediation_id = ? AND m.account_number = ?;
`, runID, remediationID, account)
	if err != nil {
		return nil, fmt.Errorf("get run details: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	run, err := scanRun(rows)
	if err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}

	execs, err := s.runExecutors(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	run.Executors = execs
	return run, nil
}

func (s *SQLite) runExecutors(ctx context.Context, runID string) ([]remediation.RunExecutor, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, playbook_run_id, executor_id, executor_name, status, system_count, updated_at
FROM playbook_run_executors
WHERE playbook_run_id = ?
ORDER BY executor_name;
`, runID)
	if err != nil {
		return nil, fmt.Errorf("get run executors: %w", err)
	}
	defer rows.Close()
	return scanRunExecutors(rows)
}

func (s *SQLite) GetSystems(ctx context.Context, q SystemsQuery) ([]remediation.RunSystem, error) {
	query := `
SELECT s.id, s.playbook_run_executor_id, s.system_id, s.system_name, s.status, s.sequence, s.console, s.updated_at
FROM playbook_run_systems s
JOIN playbook_run_executors e ON e.id = s.playbook_run_executor_id
JOIN playbook_runs r ON r.id = e.playbook_run_id
JOIN remediations m ON m.id = r.remediation_id
WHERE r.id = ? AND r.remediation_id = ? AND m.account_number = ?`
	args := []any{q.RunID, q.RemediationID, q.Account}

	if q.ExecutorID != "" {
		query += ` AND e.executor_id = ?`
		args = append(args, q.ExecutorID)
	}
	if q.AnsibleHost != "" {
		query += ` AND s.system_name LIKE '%' || ? || '%'`
		args = append(args, q.AnsibleHost)
	}
	query += ` ORDER BY s.system_name;`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get systems: %w", err)
	}
	defer rows.Close()

	var systems []remediation.RunSystem
	for rows.Next() {
		sys, err := scanRunSystem(rows)
		if err != nil {
			return nil, err
		}
		systems = append(systems, *sys)
	}
	return systems, rows.Err()
}

func (s *SQLite) GetSystemDetails(ctx context.Context, remediationID, runID, systemID, account, _ string) (*remediation.RunSystem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT s.id, s.playbook_run_executor_id, s.system_id, s.system_name, s.status, s.sequence, s.console, s.updated_at
FROM playbook_run_systems s
JOIN playbook_run_executors e ON e.id = s.playbook_run_executor_id
JOIN playbook_runs r ON r.id = e.playbook_run_id
JOIN remediations m ON m.id = r.remediation_id
WHERE s.system_id = ? AND r.id = ? AND r.remediation_id = ? AND m.account_number = ?;
`, systemID, runID, remediationID, account)
	if err != nil {
		return nil, fmt.Errorf("get system details: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanRunSystem(rows)
}

func (s *SQLite) RecordRunCreation(ctx context.Context, rec RunCreation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run creation: %w", err)
	}
	defer tx.Rollback()

	run := rec.Run
	_, err = tx.ExecContext(ctx, `
INSERT INTO playbook_runs(id, remediation_id, status, created_by, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`, run.ID, run.RemediationID, run.Status, run.CreatedBy, formatTime(run.CreatedAt), formatTime(run.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert playbook run: %w", err)
	}

	for _, e := range rec.Executors {
		_, err = tx.ExecContext(ctx, `
INSERT INTO playbook_run_executors(id, playbook_run_id, executor_id, executor_name, status, system_count, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, e.ID, e.PlaybookRunID, e.ExecutorID, e.ExecutorName, e.Status, e.SystemCount, formatTime(e.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert run executor: %w", err)
		}
	}

	for _, sys := range rec.Systems {
		_, err = tx.ExecContext(ctx, `
INSERT INTO playbook_run_systems(id, playbook_run_executor_id, system_id, system_name, status, sequence, console, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?);
`, sys.ID, sys.RunExecutorID, sys.SystemID, sys.SystemName, sys.Status, sys.Sequence, sys.Console, formatTime(sys.UpdatedAt))
		if err != nil {
			return fmt.Errorf("insert run system: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run creation: %w", err)
	}
	return nil
}

// SaveRemediation inserts a remediation with its issues and systems. Used by
// provisioning and tests; run creation never touches these tables.
func (s *SQLite) SaveRemediation(ctx context.Context, rem *remediation.Remediation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save remediation: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO remediations(id, name, account_number, created_by, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?);
`, rem.ID, rem.Name, rem.AccountNumber, rem.CreatedBy, formatTime(rem.CreatedAt), formatTime(rem.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert remediation: %w", err)
	}

	for _, issue := range rem.Issues {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO remediation_issues(id, remediation_id, resolution) VALUES(?, ?, ?);
`, issue.ID, rem.ID, issue.Resolution); err != nil {
			return fmt.Errorf("insert issue: %w", err)
		}
		for _, sys := range issue.Systems {
			if _, err := tx.ExecContext(ctx, `
INSERT INTO issue_systems(issue_id, system_id, hostname, display_name, executor_id, executor_name, executor_type)
VALUES(?, ?, ?, ?, ?, ?, ?);
`, issue.ID, sys.ID, sys.Hostname, sys.DisplayName, sys.ExecutorID, sys.ExecutorName, sys.ExecutorType); err != nil {
				return fmt.Errorf("insert issue system: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save remediation: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*remediation.PlaybookRun, error) {
	var (
		run        remediation.PlaybookRun
		statusS    string
		createdAtS string
		updatedAtS string
	)
	if err := row.Scan(&run.ID, &run.RemediationID, &statusS, &run.CreatedBy, &createdAtS, &updatedAtS); err != nil {
		return nil, fmt.Errorf("scan playbook run: %w", err)
	}
	run.Status = remediation.RunStatus(statusS)
	run.CreatedAt = parseTime(createdAtS)
	run.UpdatedAt = parseTime(updatedAtS)
	run.Source = remediation.SourceStore
	return &run, nil
}

func scanRunExecutors(rows *sql.Rows) ([]remediation.RunExecutor, error) {
	var execs []remediation.RunExecutor
	for rows.Next() {
		var (
			e          remediation.RunExecutor
			statusS    string
			updatedAtS string
		)
		if err := rows.Scan(&e.ID, &e.PlaybookRunID, &e.ExecutorID, &e.ExecutorName, &statusS, &e.SystemCount, &updatedAtS); err != nil {
			return nil, fmt.Errorf("scan run executor: %w", err)
		}
		e.Status = remediation.RunStatus(statusS)
		e.UpdatedAt = parseTime(updatedAtS)
		execs = append(execs, e)
	}
	return execs, rows.Err()
}

func scanRunSystem(row rowScanner) (*remediation.RunSystem, error) {
	var (
		sys        remediation.RunSystem
		statusS    string
		updatedAtS string
	)
	if err := row.Scan(&sys.ID, &sys.RunExecutorID, &sys.SystemID, &sys.SystemName, &statusS, &sys.Sequence, &sys.Console, &updatedAtS); err != nil {
		return nil, fmt.Errorf("scan run system: %w", err)
	}
	sys.Status = remediation.RunStatus(statusS)
	sys.UpdatedAt = parseTime(updatedAtS)
	sys.Source = remediation.SourceStore
	return &sys, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var _ Store = (*SQLite)(nil)
