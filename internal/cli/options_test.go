// internal/cli/options_test.go
package cli

import (
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"cogs/internal/clibase"
	"cogs/internal/config"
	"cogs/internal/ingest"
)

func newFS() *flag.FlagSet {
	fs := NewFlagSet("test")
	fs.SetOutput(io.Discard)
	return fs
}

func mustParse(t *testing.T, args ...string) Options {
	t.Helper()
	opts, err := ParseArgs(newFS(), args)
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	return opts
}

func TestPositionalFASTAInOrder(t *testing.T) {
	o := mustParse(t, "--hits", "hits", "g/eco.fa", "-o", "tsv", "g/bsu.faa")
	want := []ingest.Source{{Name: "eco", Path: "g/eco.fa"}, {Name: "bsu", Path: "g/bsu.faa"}}
	if len(o.Sources) != 2 || o.Sources[0] != want[0] || o.Sources[1] != want[1] {
		t.Fatalf("sources: %+v", o.Sources)
	}
	if o.Output != "tsv" || o.HitDir != "hits" {
		t.Errorf("bad parse %+v", o)
	}
}

func TestOrganismFlagsBeforePositionals(t *testing.T) {
	o := mustParse(t, "--organism", "k12=a.fa", "-O", "bsu=b.fa", "c/mja.fa")
	if len(o.Sources) != 3 || o.Sources[0].Name != "k12" || o.Sources[2].Name != "mja" {
		t.Fatalf("sources: %+v", o.Sources)
	}
}

func TestErrorListConflictsWithFiles(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"--organisms", "list.txt", "eco.fa"})
	if err == nil || !strings.Contains(err.Error(), "conflicts") {
		t.Fatalf("want conflict error, got %v", err)
	}
}

func TestErrorDuplicateOrganism(t *testing.T) {
	_, err := ParseArgs(newFS(), []string{"a/eco.fa", "b/eco.fa"})
	if err == nil || !strings.Contains(err.Error(), "given twice") {
		t.Fatalf("want duplicate error, got %v", err)
	}
}

func TestErrorBadOrganismSpec(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"--organism", "eco"}); err == nil {
		t.Fatal("expected name=path error")
	}
}

func TestErrorExitCodeRange(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"--no-cluster-exit-code", "300", "a.fa"}); err == nil {
		t.Fatal("expected range error")
	}
}

func TestHelpVersionExamples(t *testing.T) {
	if _, err := ParseArgs(newFS(), []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Errorf("-h: %v", err)
	}
	if _, err := ParseArgs(newFS(), []string{"--examples"}); !errors.Is(err, clibase.ErrPrintedAndExitOK) {
		t.Errorf("--examples: %v", err)
	}
	if o := mustParse(t, "-v"); !o.Version {
		t.Error("-v not recorded")
	}
}

func TestApplyOverridesOnlyGivenFlags(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Format = "json"
	cfg.Output.Header = true
	cfg.Store.URL = "postgres://from-config"
	cfg.Store.Driver = "postgres"

	o := mustParse(t, "--no-header", "--align-workers", "2", "--aligner", "muscle -quiet", "--quiet", "x/eco.fa")
	o.Apply(cfg)

	if cfg.Output.Format != "json" {
		t.Errorf("unset --output must keep config value, got %q", cfg.Output.Format)
	}
	if cfg.Output.Header {
		t.Error("--no-header ignored")
	}
	if cfg.Store.URL != "postgres://from-config" {
		t.Errorf("store url overwritten: %q", cfg.Store.URL)
	}
	if !cfg.Align.Enabled || cfg.Align.Command != "muscle -quiet" || cfg.Align.Workers != 2 {
		t.Errorf("align: %+v", cfg.Align)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("--quiet: level %q", cfg.Log.Level)
	}
	if len(cfg.Organisms) != 1 || cfg.Organisms[0].Name != "eco" {
		t.Errorf("organisms: %+v", cfg.Organisms)
	}
}

func TestApplyDatabaseURL(t *testing.T) {
	cfg := config.Default()
	mustParse(t, "--db", "postgres://x/cogs", "--reset-db", "a.fa").Apply(cfg)
	if cfg.Store.Driver != "postgres" || cfg.Store.URL != "postgres://x/cogs" || !cfg.Store.Reset {
		t.Fatalf("store: %+v", cfg.Store)
	}
}
