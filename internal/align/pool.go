// internal/align/pool.go
package align

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cogs/internal/metrics"
)

// Job is one cluster to align.
type Job struct {
	Key     string
	Entries []Entry
}

// Result pairs a job key with its alignment.
type Result struct {
	Key       string
	Alignment string
}

// Pool aligns jobs with at most Workers concurrent aligner calls.
type Pool struct {
	Aligner Aligner
	Workers int
	Log     *zap.Logger
	Metrics *metrics.Recorder
}

// AlignAll returns one result per job, in job order. The first failure
// cancels the remaining jobs and is returned.
func (p Pool) AlignAll(ctx context.Context, jobs []Job) ([]Result, error) {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	out := make([]Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			aln, err := p.Aligner.Align(gctx, job.Entries)
			p.Metrics.Alignment(err == nil)
			if err != nil {
				return fmt.Errorf("align %s: %w", job.Key, err)
			}
			log.Debug("cluster aligned", zap.String("cluster", job.Key), zap.Int("sequences", len(job.Entries)))
			out[i] = Result{Key: job.Key, Alignment: aln}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
