// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"cogs/internal/align"
	"cogs/internal/bbh"
	"cogs/internal/cluster"
	"cogs/internal/config"
	"cogs/internal/edgeset"
	"cogs/internal/ingest"
	"cogs/internal/metrics"
	"cogs/internal/report"
	"cogs/internal/store"
	"cogs/internal/writers"
)

// InputError marks a problem with the run's inputs rather than with the run.
type InputError struct{ Err error }

func (e *InputError) Error() string { return e.Err.Error() }
func (e *InputError) Unwrap() error { return e.Err }

type Options struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Recorder

	// Aligner overrides the configured aligner command.
	Aligner align.Aligner
	// OpenStore overrides how the store is opened.
	OpenStore func(ctx context.Context, cfg config.Store) (store.Store, error)
}

// Result summarizes a finished run.
type Result struct {
	Clusters int
	Summary  *cluster.Summary
}

// Run clusters the configured organisms and writes the report to stdout.
func Run(ctx context.Context, stdout io.Writer, o Options) (Result, error) {
	cfg, log := o.Config, o.Log
	if log == nil {
		log = zap.NewNop()
	}
	var res Result

	if o.Metrics != nil && cfg.MetricsFile != "" {
		defer func() {
			if err := o.Metrics.WriteTextfile(cfg.MetricsFile); err != nil {
				log.Warn("metrics file not written", zap.String("path", cfg.MetricsFile), zap.Error(err))
			}
		}()
	}

	srcs, err := Sources(cfg)
	if err != nil {
		return res, &InputError{err}
	}

	open := o.OpenStore
	if open == nil {
		open = OpenStore
	}
	st, err := open(ctx, cfg.Store)
	if err != nil {
		return res, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	cat, err := ingest.New(st, log).Load(ctx, srcs)
	if err != nil {
		return res, &InputError{err}
	}

	provider := bbh.NewHitTableProvider(cfg.HitDir, cat, log)
	opts := []cluster.Option{
		cluster.WithLogger(log),
		cluster.WithMetrics(o.Metrics),
		cluster.WithRetry(cluster.RetryPolicy{
			MaxAttempts:     cfg.Retry.MaxAttempts,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		}),
	}
	if cfg.Checkpoint != "" {
		opts = append(opts, cluster.WithCheckpoint(cluster.FileCheckpoint{Dir: cfg.Checkpoint}))
	}
	sum, err := cluster.NewRunner(provider, st, opts...).Run(ctx, cat.Organisms())
	res.Summary = sum
	if err != nil {
		return res, err
	}
	res.Clusters = len(sum.Membership)

	if cfg.DumpEdges != "" {
		if err := dumpEdges(cfg.DumpEdges, sum.Working.Edges()); err != nil {
			return res, fmt.Errorf("dump edges: %w", err)
		}
	}

	clusters, err := report.Build(ctx, st, sum.Membership)
	if err != nil {
		return res, err
	}
	if cfg.Align.Enabled && len(clusters) > 0 {
		aligner := o.Aligner
		if aligner == nil {
			cmd, err := align.ParseCommand(cfg.Align.Command)
			if err != nil {
				return res, &InputError{err}
			}
			aligner = cmd
		}
		pool := align.Pool{Aligner: aligner, Workers: cfg.Align.Workers, Log: log, Metrics: o.Metrics}
		results, err := pool.AlignAll(ctx, report.AlignJobs(clusters))
		if err != nil {
			return res, err
		}
		report.AttachAlignments(clusters, results)
	}

	return res, writeReport(ctx, stdout, cfg.Output, clusters)
}

func writeReport(ctx context.Context, stdout io.Writer, o config.Output, clusters []report.Cluster) error {
	outw := bufio.NewWriter(stdout)
	wf := NewClusterWriterFactory(o.Format, writers.Options{Header: o.Header, Sequences: o.Sequences})
	in, done := wf.Start(outw, 64)
	var sendErr error
send:
	for _, c := range clusters {
		if sendErr = ctx.Err(); sendErr != nil {
			break
		}
		select {
		case in <- c:
		case <-ctx.Done():
			sendErr = ctx.Err()
			break send
		}
	}
	close(in)
	if werr := <-done; werr != nil && !writers.IsBrokenPipe(werr) {
		return werr
	}
	if err := outw.Flush(); err != nil && !writers.IsBrokenPipe(err) {
		return err
	}
	return sendErr
}

// Sources resolves the organisms to ingest from cfg.
func Sources(cfg *config.Config) ([]ingest.Source, error) {
	if cfg.OrganismList != "" {
		return ingest.LoadOrganismList(cfg.OrganismList)
	}
	out := make([]ingest.Source, len(cfg.Organisms))
	for i, o := range cfg.Organisms {
		out[i] = ingest.Source{Name: o.Name, Path: o.Path}
	}
	if len(out) == 0 {
		return nil, errors.New("no organisms")
	}
	return out, nil
}

// OpenStore opens the configured store, creating the PostgreSQL schema when
// needed.
func OpenStore(ctx context.Context, cfg config.Store) (store.Store, error) {
	if cfg.Driver != "postgres" {
		return store.NewMemory(), nil
	}
	pg, err := store.OpenPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := pg.Migrate(ctx, cfg.Reset); err != nil {
		pg.Close()
		return nil, err
	}
	return pg, nil
}

func dumpEdges(path string, s *edgeset.Set) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := edgeset.WritePairList(fh, s); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
