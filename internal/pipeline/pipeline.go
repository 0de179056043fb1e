// Package pipeline orchestrates a validation run: bundle construction,
// cross-document validation, decision, and persistence.
package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/healthpay/claimcheck/internal/bundle"
	"github.com/healthpay/claimcheck/internal/decision"
	"github.com/healthpay/claimcheck/internal/ingest"
	"github.com/healthpay/claimcheck/internal/model"
	"github.com/healthpay/claimcheck/internal/store"
	"github.com/healthpay/claimcheck/internal/validator"
)

// Pipeline runs claims through validation and decision. The store is
// optional; without one, runs are not persisted.
type Pipeline struct {
	validator *validator.Validator
	engine    *decision.Engine
	store     store.Store
}

// New creates a Pipeline. st may be nil.
func New(v *validator.Validator, e *decision.Engine, st store.Store) *Pipeline {
	return &Pipeline{validator: v, engine: e, store: st}
}

// Run validates and decides a single claim. The returned Run carries the
// result; its ID is empty when no store is configured. Validation failures
// (for example a single-document claim) are recorded on the run rather
// than returned, so a batch can keep going.
func (p *Pipeline) Run(ctx context.Context, claim ingest.ClaimInput) (*model.Run, error) {
	run, err := p.CreateRun(ctx, claim)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, run, claim)
}

// CreateRun registers a queued run for a claim without processing it.
// Callers that respond before processing (the async API) use this to hand
// out a run id first.
func (p *Pipeline) CreateRun(ctx context.Context, claim ingest.ClaimInput) (*model.Run, error) {
	c := model.Claim{ID: claim.ClaimID, Documents: len(claim.Documents)}
	if p.store == nil {
		return &model.Run{Claim: c, Status: model.RunStatusQueued}, nil
	}
	return p.store.CreateRun(ctx, c)
}

// Process takes a queued run through validation and decision.
func (p *Pipeline) Process(ctx context.Context, run *model.Run, claim ingest.ClaimInput) (*model.Run, error) {
	log := zap.L().With(zap.String("claim", claim.ClaimID))
	log.Info("pipeline: starting validation run", zap.Int("documents", len(claim.Documents)))

	bundles, err := bundle.BuildAll(claim.Documents)
	if err != nil {
		return p.failRun(ctx, run, eris.Wrap(err, "pipeline: build bundles"))
	}

	if err := p.setStatus(ctx, run, model.RunStatusValidating); err != nil {
		return nil, err
	}
	report, err := p.validator.Validate(bundles)
	if err != nil {
		return p.failRun(ctx, run, err)
	}

	if err := p.setStatus(ctx, run, model.RunStatusDeciding); err != nil {
		return nil, err
	}
	dec := p.engine.Decide(bundles, report)

	run.Result = &model.RunResult{Report: report, Decision: &dec}
	run.Status = model.RunStatusComplete
	if p.store != nil {
		if err := p.store.UpdateRunResult(ctx, run.ID, run.Result); err != nil {
			return nil, err
		}
	}

	log.Info("pipeline: run complete",
		zap.Bool("consistent", report.IsConsistent),
		zap.Int("findings", len(report.Findings)),
		zap.String("decision", string(dec.Status)))
	return run, nil
}

func (p *Pipeline) setStatus(ctx context.Context, run *model.Run, status model.RunStatus) error {
	run.Status = status
	if p.store == nil {
		return nil
	}
	return p.store.UpdateRunStatus(ctx, run.ID, status)
}

// failRun records a failed result on the run. The returned error is nil:
// the failure lives on the run so batch callers can report it per claim.
func (p *Pipeline) failRun(ctx context.Context, run *model.Run, cause error) (*model.Run, error) {
	zap.L().Warn("pipeline: run failed",
		zap.String("claim", run.Claim.ID),
		zap.Error(cause))

	run.Result = &model.RunResult{Error: eris.Cause(cause).Error()}
	run.Status = model.RunStatusFailed
	if p.store != nil {
		if err := p.store.UpdateRunResult(ctx, run.ID, run.Result); err != nil {
			return nil, err
		}
	}
	return run, nil
}
