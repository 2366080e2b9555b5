package scorer

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/rfp-scorer/internal/model"
)

// DefaultConcurrency is used when ScoreAll is given a non-positive limit.
const DefaultConcurrency = 8

// ScoreAll scores recs concurrently with at most concurrency workers and
// returns results in input order. Cancellation is checked between records.
func ScoreAll(ctx context.Context, s Scorer, recs []model.OpportunityRecord, at time.Time, concurrency int) ([]model.ScoringResult, error) {
	if len(recs) == 0 {
		return []model.ScoringResult{}, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	start := time.Now()
	results := make([]model.ScoringResult, len(recs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range recs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.ScoreAt(recs[i], at)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "scorer: batch")
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "scorer: batch")
	}

	var qualified int
	for _, r := range results {
		if r.Qualified {
			qualified++
		}
	}
	zap.L().Info("scorer: batch complete",
		zap.Int("records", len(recs)),
		zap.Int("qualified", qualified),
		zap.Int("concurrency", concurrency),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
