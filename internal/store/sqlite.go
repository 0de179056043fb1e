package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/healthpay/claimcheck/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	claim      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS findings (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL REFERENCES runs(id),
	field      TEXT NOT NULL,
	severity   TEXT NOT NULL,
	reason     TEXT NOT NULL,
	doc_values TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_claim ON runs(claim);
CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_severity ON findings(severity);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, claim model.Claim) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal claim")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, claim, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, string(claimJSON), string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Claim:     claim,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(resultStatus(result)), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run result %s", runID)
	}
	if err := checkRowsAffected(res, runID); err != nil {
		return err
	}

	return s.archiveFindings(ctx, runID, result)
}

// archiveFindings stores one row per finding so discrepancies can be
// queried across runs without unpacking result JSON.
func (s *SQLiteStore) archiveFindings(ctx context.Context, runID string, result *model.RunResult) error {
	if result == nil || result.Report == nil || len(result.Report.Findings) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for _, f := range result.Report.Findings {
		valuesJSON, err := json.Marshal(f.ValuesByDocument)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal finding values")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO findings (id, run_id, field, severity, reason, doc_values, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), runID, string(f.FieldName), string(f.Severity), f.Reason, string(valuesJSON), now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert finding for run %s", runID)
		}
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, claim, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, claim, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ClaimID != "" {
		query += ` AND json_extract(claim, '$.id') = ?`
		args = append(args, filter.ClaimID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) ListFindings(ctx context.Context, filter FindingFilter) ([]RunFinding, error) {
	query := `SELECT run_id, field, severity, reason, doc_values, created_at FROM findings WHERE 1=1`
	var args []any

	if filter.RunID != "" {
		query += ` AND run_id = ?`
		args = append(args, filter.RunID)
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list findings")
	}
	defer rows.Close()

	var findings []RunFinding
	for rows.Next() {
		var rf RunFinding
		var valuesJSON string
		if err := rows.Scan(&rf.RunID, &rf.Finding.FieldName, &rf.Finding.Severity, &rf.Finding.Reason, &valuesJSON, &rf.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan finding")
		}
		if err := json.Unmarshal([]byte(valuesJSON), &rf.Finding.ValuesByDocument); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal finding values")
		}
		findings = append(findings, rf)
	}
	return findings, eris.Wrap(rows.Err(), "sqlite: list findings iterate")
}

// helpers

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "%s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var claimJSON string
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &claimJSON, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(claimJSON), &r.Claim); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal claim")
	}
	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal result")
		}
	}
	return &r, nil
}
