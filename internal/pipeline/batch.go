package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/healthpay/claimcheck/internal/ingest"
	"github.com/healthpay/claimcheck/internal/model"
)

// BatchSummary aggregates the outcome of a batch run.
type BatchSummary struct {
	Runs      []*model.Run `json:"runs"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// RunBatch processes claims concurrently, at most concurrency at a time.
// One claim failing does not abort the batch. Run order in the summary
// matches the input order.
func (p *Pipeline) RunBatch(ctx context.Context, claims []ingest.ClaimInput, concurrency int) (*BatchSummary, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	runs := make([]*model.Run, len(claims))
	var succeeded, failed atomic.Int64

	for i, claim := range claims {
		g.Go(func() error {
			run, err := p.Run(gCtx, claim)
			if err != nil {
				// Store errors abort the batch; they affect every claim.
				return err
			}

			if run.Status == model.RunStatusFailed {
				failed.Add(1)
			} else {
				succeeded.Add(1)
			}

			mu.Lock()
			runs[i] = run
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &BatchSummary{
		Runs:      runs,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}
	zap.L().Info("pipeline: batch complete",
		zap.Int("claims", len(claims)),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
