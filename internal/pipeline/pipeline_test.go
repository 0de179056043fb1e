package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpay/claimcheck/internal/bundle"
	"github.com/healthpay/claimcheck/internal/decision"
	"github.com/healthpay/claimcheck/internal/ingest"
	"github.com/healthpay/claimcheck/internal/model"
	"github.com/healthpay/claimcheck/internal/store"
	"github.com/healthpay/claimcheck/internal/validator"
)

func newTestPipeline(t *testing.T, st store.Store) *Pipeline {
	t.Helper()
	v, err := validator.New(validator.DefaultConfig())
	require.NoError(t, err)
	e, err := decision.New(decision.DefaultConfig())
	require.NoError(t, err)
	return New(v, e, st)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "pipeline_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func cleanClaim() ingest.ClaimInput {
	return ingest.ClaimInput{
		ClaimID: "CLM-1001",
		Documents: []bundle.RawDocument{
			{
				DocumentID: "doc-1",
				Type:       "bill",
				Fields: []bundle.RawField{
					{Name: "patient_name", Value: "John Smith", Confidence: 0.92},
					{Name: "hospital_name", Value: "City General Hospital", Confidence: 0.9},
					{Name: "total_charge", Value: "45,000.00", Confidence: 0.85},
				},
			},
			{
				DocumentID: "doc-2",
				Type:       "discharge_summary",
				Fields: []bundle.RawField{
					{Name: "patient_name", Value: "John Smith", Confidence: 0.88},
					{Name: "admission_date", Value: "2024-03-01", Confidence: 0.9},
					{Name: "discharge_date", Value: "2024-03-07", Confidence: 0.9},
				},
			},
		},
	}
}

func TestPipeline_Run_WithoutStore(t *testing.T) {
	p := newTestPipeline(t, nil)

	run, err := p.Run(context.Background(), cleanClaim())
	require.NoError(t, err)

	assert.Empty(t, run.ID)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	require.NotNil(t, run.Result.Report)
	assert.True(t, run.Result.Report.IsConsistent)
	require.NotNil(t, run.Result.Decision)
	assert.Equal(t, model.ClaimApproved, run.Result.Decision.Status)
}

func TestPipeline_Run_PersistsResult(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(t, st)

	run, err := p.Run(context.Background(), cleanClaim())
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)

	stored, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, stored.Status)
	assert.Equal(t, "CLM-1001", stored.Claim.ID)
	assert.Equal(t, 2, stored.Claim.Documents)
	require.NotNil(t, stored.Result)
	assert.Equal(t, model.ClaimApproved, stored.Result.Decision.Status)
}

func TestPipeline_Run_SingleDocumentFails(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(t, st)

	claim := cleanClaim()
	claim.Documents = claim.Documents[:1]

	run, err := p.Run(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	require.NotNil(t, run.Result)
	assert.Contains(t, run.Result.Error, "at least two document bundles")

	stored, err := st.GetRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, stored.Status)
}

func TestPipeline_Run_DuplicateFieldFails(t *testing.T) {
	p := newTestPipeline(t, nil)

	claim := cleanClaim()
	claim.Documents[0].Fields = append(claim.Documents[0].Fields,
		bundle.RawField{Name: "patient_name", Value: "J Smith", Confidence: 0.5})

	run, err := p.Run(context.Background(), claim)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Contains(t, run.Result.Error, "duplicate field")
}

func TestPipeline_RunBatch(t *testing.T) {
	st := newTestStore(t)
	p := newTestPipeline(t, st)

	bad := cleanClaim()
	bad.ClaimID = "CLM-BAD"
	bad.Documents = bad.Documents[:1]

	claims := []ingest.ClaimInput{cleanClaim(), bad}

	summary, err := p.RunBatch(context.Background(), claims, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Runs, 2)

	// Order matches input.
	assert.Equal(t, "CLM-1001", summary.Runs[0].Claim.ID)
	assert.Equal(t, "CLM-BAD", summary.Runs[1].Claim.ID)
	assert.Equal(t, model.RunStatusFailed, summary.Runs[1].Status)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestPipeline_RunBatch_ZeroConcurrency(t *testing.T) {
	p := newTestPipeline(t, nil)

	summary, err := p.RunBatch(context.Background(), []ingest.ClaimInput{cleanClaim()}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
}
