// internal/cluster/runner.go
package cluster

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"

	"cogs/internal/bbh"
	"cogs/internal/metrics"
	"cogs/internal/model"
	"cogs/internal/store"
)

// RoundReport describes one organism round.
type RoundReport struct {
	Organism     model.Organism
	EdgesMerged  int
	Absorbed     []Absorption
	Created      []model.Cluster
	WorkingEdges int
	Attempts     int
	// Waiting is set for the rounds before MinOrganisms are present.
	Waiting bool
}

type Summary struct {
	Rounds     []RoundReport
	Membership model.Membership
	// Resumed is the number of rounds restored from a checkpoint.
	Resumed int
	// Replayed counts rounds the store had committed before this run.
	Replayed int
	// Working is the edge set left after the last round.
	Working *WorkingSet
}

// RetryPolicy bounds how a round is retried after a store write failure.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

var DefaultRetry = RetryPolicy{MaxAttempts: 3, InitialInterval: 200 * time.Millisecond, MaxInterval: 5 * time.Second}

type Runner struct {
	provider   bbh.Provider
	store      store.Store
	log        *zap.Logger
	metrics    *metrics.Recorder
	retry      RetryPolicy
	checkpoint Checkpointer
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option { return func(r *Runner) { r.log = l } }
func WithMetrics(m *metrics.Recorder) Option { return func(r *Runner) { r.metrics = m } }
func WithRetry(p RetryPolicy) Option { return func(r *Runner) { r.retry = p } }
func WithCheckpoint(c Checkpointer) Option { return func(r *Runner) { r.checkpoint = c } }

func NewRunner(p bbh.Provider, s store.Store, opts ...Option) *Runner {
	r := &Runner{provider: p, store: s, log: zap.NewNop(), retry: DefaultRetry}
	for _, o := range opts {
		o(r)
	}
	if r.retry.MaxAttempts == 0 {
		r.retry.MaxAttempts = 1
	}
	return r
}

// Run introduces orgs in order and commits one round per organism.
// Cancellation is honored only between rounds.
//
// Rounds the store already committed are not clustered again: their edges
// are merged and every edge touching a clustered protein is retired, which
// is the working set a committed round leaves behind.
func (r *Runner) Run(ctx context.Context, orgs []model.Organism) (*Summary, error) {
	ws := NewWorkingSet(r.provider)
	sum := &Summary{Working: ws}

	committed, err := r.store.Progress(ctx)
	if err != nil {
		return sum, fmt.Errorf("read store progress: %w", err)
	}
	if committed > len(orgs) {
		return sum, fmt.Errorf("store has rounds for %d organisms, run has %d", committed, len(orgs))
	}

	start, err := r.resume(ws, orgs)
	if err != nil {
		return sum, err
	}
	if start > committed && start >= MinOrganisms {
		return sum, fmt.Errorf("checkpoint covers %d organisms but the store has committed rounds for %d", start, committed)
	}
	sum.Resumed = start

	var clustered []model.ProteinID
	if committed > start {
		m, err := r.store.ClusterMembership(ctx)
		if err != nil {
			return sum, err
		}
		clustered = slices.Collect(maps.Keys(m.Owners()))
	}

	for i := start; i < len(orgs); i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if i < committed {
			if err := r.replay(ctx, ws, orgs[i], clustered); err != nil {
				return sum, fmt.Errorf("replay round %d (%s): %w", i+1, orgs[i].Name, err)
			}
			sum.Replayed++
		} else {
			rep, err := r.runRound(ctx, ws, orgs[i], i+1)
			if err != nil {
				return sum, fmt.Errorf("round %d (%s): %w", i+1, orgs[i].Name, err)
			}
			sum.Rounds = append(sum.Rounds, rep)
		}
		if r.checkpoint != nil {
			cp := &Checkpoint{Completed: i + 1, Edges: ws.Edges()}
			for _, o := range orgs[:i+1] {
				cp.Organisms = append(cp.Organisms, o.Name)
			}
			if err := r.checkpoint.Save(cp); err != nil {
				return sum, fmt.Errorf("checkpoint after %s: %w", orgs[i].Name, err)
			}
		}
	}

	sum.Membership, err = r.store.ClusterMembership(ctx)
	return sum, err
}

// replay rebuilds the working set for a round the store already holds.
func (r *Runner) replay(ctx context.Context, ws *WorkingSet, org model.Organism, clustered []model.ProteinID) error {
	merged, err := ws.Introduce(ctx, org)
	if err != nil {
		return err
	}
	retired := ws.Remove(clustered...)
	r.log.Info("committed round replayed",
		zap.String("organism", org.Name),
		zap.Int("edges_merged", merged),
		zap.Int("edges_retired", retired),
		zap.Int("working_edges", ws.Edges().Len()))
	return nil
}

func (r *Runner) resume(ws *WorkingSet, orgs []model.Organism) (int, error) {
	if r.checkpoint == nil {
		return 0, nil
	}
	cp, err := r.checkpoint.Load()
	if err != nil || cp == nil {
		return 0, err
	}
	if cp.Completed > len(orgs) {
		return 0, fmt.Errorf("checkpoint covers %d organisms, run has %d", cp.Completed, len(orgs))
	}
	for i, name := range cp.Organisms {
		if orgs[i].Name != name {
			return 0, fmt.Errorf("checkpoint organism %d is %q, run has %q", i+1, name, orgs[i].Name)
		}
	}
	ws.Resume(orgs[:cp.Completed], cp.Edges)
	r.log.Info("resumed from checkpoint",
		zap.Int("completed", cp.Completed),
		zap.Int("working_edges", cp.Edges.Len()))
	return cp.Completed, nil
}

// runRound retries a whole round from the organism boundary when the store
// reports a write failure. Any other error is permanent.
func (r *Runner) runRound(ctx context.Context, ws *WorkingSet, org model.Organism, completed int) (RoundReport, error) {
	snap := ws.Snapshot()
	attempts := 0

	b := backoff.NewExponentialBackOff()
	if r.retry.InitialInterval > 0 {
		b.InitialInterval = r.retry.InitialInterval
	}
	if r.retry.MaxInterval > 0 {
		b.MaxInterval = r.retry.MaxInterval
	}

	op := func() (RoundReport, error) {
		attempts++
		if attempts > 1 {
			ws.Restore(snap)
		}
		// A round is never interrupted half way.
		rep, err := r.round(context.WithoutCancel(ctx), ws, org, completed)
		if err == nil {
			return rep, nil
		}
		if errors.Is(err, store.ErrWriteFailure) {
			return rep, err
		}
		return rep, backoff.Permanent(err)
	}

	rep, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.retry.MaxAttempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.metrics.Retry()
			r.log.Warn("round failed, retrying from organism boundary",
				zap.String("organism", org.Name),
				zap.Int("attempt", attempts),
				zap.Duration("wait", wait),
				zap.Error(err))
		}),
	)
	if err != nil {
		ws.Restore(snap)
		return rep, err
	}
	rep.Attempts = attempts
	return rep, nil
}

func (r *Runner) round(ctx context.Context, ws *WorkingSet, org model.Organism, completed int) (rep RoundReport, err error) {
	started := time.Now()
	rep.Organism = org

	if rep.EdgesMerged, err = ws.Introduce(ctx, org); err != nil {
		return rep, err
	}
	if !ws.Ready() {
		rep.Waiting = true
		rep.WorkingEdges = ws.Edges().Len()
		r.log.Info("organism introduced",
			zap.String("organism", org.Name),
			zap.Int("edges_merged", rep.EdgesMerged),
			zap.Int("working_edges", rep.WorkingEdges))
		return rep, nil
	}

	proteins, err := r.store.OrganismProteins(ctx, org.ID)
	if err != nil {
		return rep, err
	}

	tx, err := r.store.Begin(ctx)
	if err != nil {
		return rep, err
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.log.Error("rollback failed", zap.String("organism", org.Name), zap.Error(rbErr))
			}
		}
	}()

	clusters, err := tx.ClusterMembership(ctx)
	if err != nil {
		return rep, err
	}
	var consumed Consumed
	if rep.Absorbed, consumed, err = Extend(ctx, tx, clusters, ws.Edges()); err != nil {
		return rep, err
	}
	if rep.Created, err = Discover(ctx, tx, proteins, ws.Edges(), consumed); err != nil {
		return rep, err
	}
	if err = tx.SetProgress(ctx, completed); err != nil {
		return rep, err
	}
	if err = tx.Commit(ctx); err != nil {
		return rep, err
	}

	rep.WorkingEdges = ws.Edges().Len()
	sizes := make([]int, len(rep.Created))
	for i, c := range rep.Created {
		sizes[i] = len(c.Members)
	}
	r.metrics.Round(rep.EdgesMerged, len(rep.Absorbed), sizes, rep.WorkingEdges, time.Since(started))
	r.log.Info("round committed",
		zap.String("organism", org.Name),
		zap.Int("edges_merged", rep.EdgesMerged),
		zap.Int("absorbed", len(rep.Absorbed)),
		zap.Int("created", len(rep.Created)),
		zap.Int("working_edges", rep.WorkingEdges))
	for _, a := range rep.Absorbed {
		r.log.Debug("cluster extended",
			zap.Int64("cluster", int64(a.Cluster)),
			zap.Int64("protein", int64(a.Protein)),
			zap.Int("votes", a.Votes),
			zap.Int("candidates", a.Candidates))
	}
	return rep, nil
}
