package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/decision"
	"github.com/healthpay/claimcheck/internal/model"
	"github.com/healthpay/claimcheck/internal/pipeline"
	"github.com/healthpay/claimcheck/internal/store"
	"github.com/healthpay/claimcheck/internal/validator"
)

const cleanClaimJSON = `{
  "claim_id": "CLM-1001",
  "documents": [
    {
      "document_id": "doc-1",
      "document_type": "bill",
      "fields": [
        {"name": "patient_name", "value": "John Smith", "confidence": 0.92},
        {"name": "hospital_name", "value": "City General Hospital", "confidence": 0.9},
        {"name": "total_charge", "value": "45,000.00", "confidence": 0.85}
      ]
    },
    {
      "document_id": "doc-2",
      "document_type": "discharge_summary",
      "fields": [
        {"name": "patient_name", "value": "John Smith", "confidence": 0.88},
        {"name": "admission_date", "value": "2024-03-01", "confidence": 0.9},
        {"name": "discharge_date", "value": "2024-03-07", "confidence": 0.9}
      ]
    }
  ]
}`

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "server_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	v, err := validator.New(validator.DefaultConfig())
	require.NoError(t, err)
	e, err := decision.New(decision.DefaultConfig())
	require.NoError(t, err)

	p := pipeline.New(v, e, st)
	return New(cfg, p, st), st
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_Health(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})
	rec := doRequest(t, s.Router(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_Validate(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})
	rec := doRequest(t, s.Router(), http.MethodPost, "/validate", cleanClaimJSON)

	require.Equal(t, http.StatusOK, rec.Code)

	var run model.Run
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Report.IsConsistent)
	assert.Equal(t, model.ClaimApproved, run.Result.Decision.Status)
}

func TestServer_Validate_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})

	rec := doRequest(t, s.Router(), http.MethodPost, "/validate", `{"claim_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, s.Router(), http.MethodPost, "/validate", `{"documents":[{"document_id":"d1"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "claim_id is required")
}

func TestServer_SubmitClaim_Async(t *testing.T) {
	s, st := newTestServer(t, config.ServerConfig{})
	rec := doRequest(t, s.Router(), http.MethodPost, "/claims", cleanClaimJSON)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp struct {
		RunID  string `json:"run_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)
	assert.Equal(t, "queued", resp.Status)

	// Background processing finishes the run.
	require.Eventually(t, func() bool {
		run, err := st.GetRun(context.Background(), resp.RunID)
		return err == nil && run.Status == model.RunStatusComplete
	}, 5*time.Second, 20*time.Millisecond)
}

// The 202 body is snapshotted before the worker goroutine starts, so
// concurrent submissions always report the queued status and never share
// the mutating run with the response encoder.
func TestServer_SubmitClaim_ConcurrentSubmissions(t *testing.T) {
	s, st := newTestServer(t, config.ServerConfig{})
	router := s.Router()

	const submissions = 25
	runIDs := make(chan string, submissions)

	var wg sync.WaitGroup
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := doRequest(t, router, http.MethodPost, "/claims", cleanClaimJSON)
			assert.Equal(t, http.StatusAccepted, rec.Code)

			var resp struct {
				RunID  string `json:"run_id"`
				Status string `json:"status"`
			}
			assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "queued", resp.Status)
			runIDs <- resp.RunID
		}()
	}
	wg.Wait()
	close(runIDs)

	for id := range runIDs {
		require.NotEmpty(t, id)
		require.Eventually(t, func() bool {
			run, err := st.GetRun(context.Background(), id)
			return err == nil && run.Status == model.RunStatusComplete
		}, 10*time.Second, 20*time.Millisecond)
	}
}

func TestServer_GetRun_NotFound(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})
	rec := doRequest(t, s.Router(), http.MethodGet, "/runs/missing", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "run not found")
}

func TestServer_ListRuns(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{})
	router := s.Router()

	rec := doRequest(t, router, http.MethodPost, "/validate", cleanClaimJSON)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/runs/?claim_id=CLM-1001", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs  []model.Run `json:"runs"`
		Count int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "CLM-1001", resp.Runs[0].Claim.ID)

	rec = doRequest(t, router, http.MethodGet, "/runs/?status=failed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestServer_ListFindings(t *testing.T) {
	s, st := newTestServer(t, config.ServerConfig{})
	router := s.Router()

	// A claim with a hospital mismatch produces findings.
	inconsistent := strings.Replace(cleanClaimJSON, `"John Smith", "confidence": 0.88`, `"Jane Doe", "confidence": 0.88`, 1)
	rec := doRequest(t, router, http.MethodPost, "/validate", inconsistent)
	require.Equal(t, http.StatusOK, rec.Code)

	runs, err := st.ListRuns(context.Background(), store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)

	rec = doRequest(t, router, http.MethodGet, "/runs/"+runs[0].ID+"/findings?severity=critical", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Findings []store.RunFinding `json:"findings"`
		Count    int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.GreaterOrEqual(t, resp.Count, 1)
	assert.Equal(t, model.FieldPatientName, resp.Findings[0].Finding.FieldName)
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t, config.ServerConfig{RateLimitRPS: 1, RateLimitBurst: 1})
	router := s.Router()

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
