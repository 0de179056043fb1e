// Package store persists validation runs and their findings.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/config"
	"github.com/healthpay/claimcheck/internal/model"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	ClaimID string          `json:"claim_id,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// FindingFilter specifies criteria for listing archived findings.
type FindingFilter struct {
	RunID    string         `json:"run_id,omitempty"`
	Severity model.Severity `json:"severity,omitempty"`
	Limit    int            `json:"limit,omitempty"`
}

// RunFinding is one archived discrepancy finding with its run id.
type RunFinding struct {
	RunID     string                   `json:"run_id"`
	Finding   model.DiscrepancyFinding `json:"finding"`
	CreatedAt time.Time                `json:"created_at"`
}

// Store defines the persistence interface for validation runs.
type Store interface {
	CreateRun(ctx context.Context, claim model.Claim) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
	ListFindings(ctx context.Context, filter FindingFilter) ([]RunFinding, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from config and runs migrations.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var s Store
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		sq, err := NewSQLite(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s = sq
	case "postgres":
		pg, err := NewPostgres(ctx, cfg.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		s = pg
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// resultStatus decides the terminal run status for a result.
func resultStatus(result *model.RunResult) model.RunStatus {
	if result != nil && result.Error != "" {
		return model.RunStatusFailed
	}
	return model.RunStatusComplete
}
