// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cogs/internal/align"
	"cogs/internal/appcore"
	"cogs/internal/cli"
	"cogs/internal/clibase"
	"cogs/internal/config"
	"cogs/internal/logging"
	"cogs/internal/metrics"
	"cogs/internal/version"
	"cogs/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitFailure   = 3
	ExitCancelled = 130
)

// Hooks lets tests swap external collaborators.
type Hooks struct {
	Aligner align.Aligner
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	return run(parent, argv, stdout, stderr, Hooks{})
}

// RunWithHooks is RunContext with collaborators replaced.
func RunWithHooks(parent context.Context, argv []string, stdout, stderr io.Writer, h Hooks) int {
	return run(parent, argv, stdout, stderr, h)
}

func run(parent context.Context, argv []string, stdout, stderr io.Writer, h Hooks) int {
	outw := bufio.NewWriter(stdout)
	flush := func(code int) int {
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return ExitOK
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return ExitFailure
		}
		return code
	}

	fs := cli.NewFlagSet("cogs")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	switch {
	case errors.Is(err, flag.ErrHelp):
		fs.SetOutput(outw)
		fs.Usage()
		return flush(ExitOK)
	case errors.Is(err, clibase.ErrPrintedAndExitOK):
		cli.PrintExamples(outw, "cogs")
		return flush(ExitOK)
	case err != nil:
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return flush(ExitUsage)
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "cogs version %s\n", version.Version)
		return flush(ExitOK)
	}

	cfg, err := config.Load(opts.ConfigFile, opts.EnvFile)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	opts.Apply(cfg)
	if err := cfg.Finalize(); err != nil {
		_, _ = fmt.Fprintln(stderr, "configuration:", err)
		return ExitUsage
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	defer func() { _ = log.Sync() }()
	log = log.With(zap.String("run_id", uuid.NewString()))
	log.Info("run starting",
		zap.String("version", version.Version),
		zap.String("store", cfg.Store.Driver),
		zap.String("hits", cfg.HitDir))

	res, err := appcore.Run(parent, outw, appcore.Options{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
		Aligner: h.Aligner,
	})
	if err != nil {
		var inErr *appcore.InputError
		switch {
		case errors.Is(err, context.Canceled):
			log.Warn("run cancelled", zap.Error(err))
			return ExitCancelled
		case errors.As(err, &inErr):
			_, _ = fmt.Fprintln(stderr, err)
			return ExitUsage
		default:
			log.Error("run failed", zap.Error(err))
			return flush(ExitFailure)
		}
	}

	log.Info("run complete", zap.Int("clusters", res.Clusters))
	if res.Clusters == 0 {
		return flush(opts.NoClusterExitCode)
	}
	return flush(ExitOK)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
