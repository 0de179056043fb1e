package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/model"
)

func configWithDriver(driver string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: "claimcheck_test.db"}
}

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.Claim{ID: "CLM-1", Documents: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	claimJSON := []byte(`{"id":"CLM-1","documents":2}`)
	resultJSON := []byte(`{"decision":{"status":"approved","reason":"score 0.91","confidence":0.91}}`)

	mock.ExpectQuery(`SELECT id, claim, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "claim", "status", "result", "created_at", "updated_at"}).
			AddRow("run-1", claimJSON, "complete", &resultJSON, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "CLM-1", run.Claim.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, model.ClaimApproved, run.Result.Decision.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, claim, status, result, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusComplete)
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult_ArchivesFindings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	result := testResult()
	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), "complete", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"findings"},
		[]string{"id", "run_id", "field", "severity", "reason", "doc_values", "created_at"}).
		WillReturnResult(int64(len(result.Report.Findings)))

	err := s.UpdateRunResult(context.Background(), "run-1", result)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateRunResult_FailedStatus(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET result`).
		WithArgs(pgxmock.AnyArg(), "failed", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateRunResult(context.Background(), "run-1", &model.RunResult{Error: "boom"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListRuns_StatusFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	claimJSON, err := json.Marshal(model.Claim{ID: "CLM-1", Documents: 2})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, claim, status, result, created_at, updated_at FROM runs WHERE true AND status = \$1`).
		WithArgs("complete", 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "claim", "status", "result", "created_at", "updated_at"}).
			AddRow("run-1", claimJSON, "complete", (*[]byte)(nil), now, now))

	runs, err := s.ListRuns(context.Background(), RunFilter{Status: model.RunStatusComplete})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "CLM-1", runs[0].Claim.ID)
	assert.Nil(t, runs[0].Result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListFindings(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT run_id, field, severity, reason, doc_values, created_at FROM findings`).
		WithArgs("run-1", 100).
		WillReturnRows(pgxmock.NewRows([]string{"run_id", "field", "severity", "reason", "doc_values", "created_at"}).
			AddRow("run-1", "patient_name", "critical", "PatientName mismatch beyond edit distance 2",
				[]byte(`{"doc-1":"John Smith","doc-2":"Jane Doe"}`), now))

	findings, err := s.ListFindings(context.Background(), FindingFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, model.FieldPatientName, findings[0].Finding.FieldName)
	assert.Equal(t, model.SeverityCritical, findings[0].Finding.Severity)
	assert.NoError(t, mock.ExpectationsWereMet())
}
