package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/ingest"
	"github.com/healthpay/claimcheck/internal/model"
	"github.com/healthpay/claimcheck/internal/store"
)

// processTimeout bounds background claim processing kicked off by the
// async submit endpoint.
const processTimeout = 2 * time.Minute

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate runs a claim synchronously and returns the full run.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	claim, err := ingest.ReadClaimJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return
	}

	run, err := s.pipeline.Run(r.Context(), *claim)
	if err != nil {
		zap.L().Error("server: validate failed", zap.String("claim", claim.ClaimID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "validation run failed")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// handleSubmitClaim accepts a claim for asynchronous processing and
// responds immediately with the queued run.
func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := ingest.ReadClaimJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, eris.Cause(err).Error())
		return
	}

	run, err := s.pipeline.CreateRun(r.Context(), *claim)
	if err != nil {
		zap.L().Error("server: create run failed", zap.String("claim", claim.ClaimID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	// Snapshot before handing the run to the worker goroutine: Process
	// mutates run.Status concurrently.
	resp := map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	}

	// Detached from the request context so the response does not cancel
	// the work.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
		defer cancel()
		if _, err := s.pipeline.Process(ctx, run, *claim); err != nil {
			zap.L().Error("server: async run failed",
				zap.String("run", resp["run_id"]),
				zap.String("claim", claim.ClaimID),
				zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if eris.Is(err, store.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		zap.L().Error("server: get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	filter := store.RunFilter{
		Status:  model.RunStatus(r.URL.Query().Get("status")),
		ClaimID: r.URL.Query().Get("claim_id"),
		Limit:   queryInt(r, "limit"),
		Offset:  queryInt(r, "offset"),
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleListFindings(w http.ResponseWriter, r *http.Request) {
	filter := store.FindingFilter{
		RunID:    chi.URLParam(r, "id"),
		Severity: model.Severity(r.URL.Query().Get("severity")),
		Limit:    queryInt(r, "limit"),
	}

	findings, err := s.store.ListFindings(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list findings failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list findings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"findings": findings, "count": len(findings)})
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
