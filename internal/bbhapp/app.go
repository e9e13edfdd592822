// Package bbhapp implements cogs-bbh, which prints the mutual best hits the
// clustering run would derive from a hit-table directory.
package bbhapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"

	"cogs/internal/appcore"
	"cogs/internal/bbh"
	"cogs/internal/clibase"
	"cogs/internal/cliutil"
	"cogs/internal/config"
	"cogs/internal/logging"
	"cogs/internal/model"
	"cogs/internal/version"
	"cogs/internal/writers"
)

func newFlagSet() (*flag.FlagSet, *clibase.Common, *bool) {
	fs := flag.NewFlagSet("cogs-bbh", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var c clibase.Common
	var help bool
	clibase.Register(fs, &c)
	fs.BoolVar(&help, "h", false, "show this help message")
	fs.BoolVar(&help, "help", false, "show this help message")
	clibase.UsageCommon(fs, "cogs-bbh", "mutual best hits per organism pair", func(out io.Writer, _ func(string) string) {
		fmt.Fprintln(out, "\nPrints \"> A B\" then one \"accA<TAB>accB\" line per bidirectional best hit,")
		fmt.Fprintln(out, "for every organism pair in list order.")
	})
	return fs, &c, &help
}

func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	flush := func(code int) int {
		if e := outw.Flush(); writers.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			fmt.Fprintln(stderr, e)
			return 3
		}
		return code
	}

	fs, c, help := newFlagSet()
	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	err := fs.Parse(flagArgs)
	if err == nil && !*help && !c.Version {
		err = clibase.AfterParse(c, posArgs)
	}
	switch {
	case err != nil:
		fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		return flush(2)
	case *help:
		fs.SetOutput(outw)
		fs.Usage()
		return flush(0)
	case c.Version:
		fmt.Fprintf(outw, "cogs-bbh version %s\n", version.Version)
		return flush(0)
	}

	cfg, err := config.Load(c.ConfigFile, c.EnvFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	c.Apply(cfg)
	if err := cfg.Finalize(); err != nil {
		fmt.Fprintln(stderr, "configuration:", err)
		return 2
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = log.Sync() }()

	srcs, err := appcore.Sources(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	orgs := make([]model.Organism, len(srcs))
	for i, s := range srcs {
		orgs[i] = model.Organism{ID: model.OrganismID(i + 1), Name: s.Name}
	}

	if err := WritePairs(ctx, outw, bbh.NewHitTableProvider(cfg.HitDir, nil, log), orgs); err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		log.Error("bbh derivation failed", zap.Error(err))
		if errors.Is(err, bbh.ErrMissingEdgeData) {
			return flush(2)
		}
		return flush(3)
	}
	return flush(0)
}

// WritePairs writes the mutual best hits of every organism pair. The context
// is checked between pairs.
func WritePairs(ctx context.Context, w io.Writer, p *bbh.HitTableProvider, orgs []model.Organism) error {
	for i := range orgs {
		for j := i + 1; j < len(orgs); j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			pairs, err := p.AccessionPairs(orgs[i], orgs[j])
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "> %s %s\n", orgs[i].Name, orgs[j].Name); err != nil {
				return err
			}
			for _, pr := range pairs {
				if _, err := fmt.Fprintf(w, "%s\t%s\n", pr[0], pr[1]); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
