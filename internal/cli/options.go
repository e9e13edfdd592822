// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"cogs/internal/clibase"
	"cogs/internal/cliutil"
	"cogs/internal/config"
)

// Options holds all cogs flags. Zero values mean "not given"; settings
// left unset on the command line come from the config layers.
type Options struct {
	clibase.Common

	// Store
	DatabaseURL   string
	ResetDB       bool
	RetryAttempts int
	Checkpoint    string

	// Output
	Output            string
	Sequences         bool
	Header            bool // true unless --no-header
	DumpEdges         string
	MetricsFile       string
	NoClusterExitCode int

	// Alignment
	Align        bool
	Aligner      string
	AlignWorkers int

	Examples bool

	set map[string]bool
}

// IsSet reports whether flag name was given on the command line.
func (o Options) IsSet(name string) bool { return o.set[name] }

// ParseArgs registers and parses all flags and returns the Options.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	clibase.Register(fs, &opt.Common)

	fs.StringVar(&opt.DatabaseURL, "db", "", "PostgreSQL connection URL")
	fs.BoolVar(&opt.ResetDB, "reset-db", false, "drop and recreate the schema first [false]")
	fs.IntVar(&opt.RetryAttempts, "retry", 0, "attempts per round on store write failure [3]")
	fs.StringVar(&opt.Checkpoint, "checkpoint", "", "checkpoint directory")

	fs.StringVar(&opt.Output, "output", "", "output: text | tsv | json | jsonl | fasta [text]")
	fs.StringVar(&opt.Output, "o", "", "alias of --output")
	fs.BoolVar(&opt.Sequences, "sequences", false, "include member sequences in json/jsonl [false]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress TSV header [false]")
	fs.StringVar(&opt.DumpEdges, "dump-edges", "", "write the final working edge set to file")
	fs.StringVar(&opt.MetricsFile, "metrics-file", "", "write Prometheus metrics to file")
	fs.IntVar(&opt.NoClusterExitCode, "no-cluster-exit-code", 0, "exit code when no cluster forms [0]")

	fs.BoolVar(&opt.Align, "align", false, "align each cluster after clustering [false]")
	fs.StringVar(&opt.Aligner, "aligner", "", "aligner command reading FASTA on stdin")
	fs.IntVar(&opt.AlignWorkers, "align-workers", 0, "concurrent aligner processes [4]")

	fs.BoolVar(&opt.Examples, "examples", false, "show quickstart examples and exit")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")
	fs.BoolVar(&help, "help", false, "show this help message [false]")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Examples {
		return opt, clibase.ErrPrintedAndExitOK
	}
	if opt.Version {
		return opt, nil
	}
	opt.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })
	opt.Header = !noHeader

	if err := clibase.AfterParse(&opt.Common, posArgs); err != nil {
		return opt, err
	}
	if opt.RetryAttempts < 0 {
		return opt, errors.New("--retry must be ≥ 0")
	}
	if opt.AlignWorkers < 0 {
		return opt, errors.New("--align-workers must be ≥ 0")
	}
	if opt.NoClusterExitCode < 0 || opt.NoClusterExitCode > 255 {
		return opt, errors.New("--no-cluster-exit-code must be between 0 and 255")
	}
	return opt, nil
}

// Apply overlays the flags that were given onto cfg.
func (o Options) Apply(cfg *config.Config) {
	o.Common.Apply(cfg)
	if o.DatabaseURL != "" {
		cfg.Store.URL = o.DatabaseURL
		cfg.Store.Driver = "postgres"
	}
	if o.ResetDB {
		cfg.Store.Reset = true
	}
	if o.RetryAttempts > 0 {
		cfg.Retry.MaxAttempts = uint(o.RetryAttempts)
	}
	if o.Checkpoint != "" {
		cfg.Checkpoint = o.Checkpoint
	}
	if o.Output != "" {
		cfg.Output.Format = o.Output
	}
	if o.Sequences {
		cfg.Output.Sequences = true
	}
	if o.IsSet("no-header") {
		cfg.Output.Header = o.Header
	}
	if o.DumpEdges != "" {
		cfg.DumpEdges = o.DumpEdges
	}
	if o.MetricsFile != "" {
		cfg.MetricsFile = o.MetricsFile
	}
	if o.Align || o.Aligner != "" {
		cfg.Align.Enabled = true
	}
	if o.Aligner != "" {
		cfg.Align.Command = o.Aligner
	}
	if o.AlignWorkers > 0 {
		cfg.Align.Workers = o.AlignWorkers
	}
}

// PrintExamples writes the quickstart text.
func PrintExamples(out io.Writer, name string) {
	clibase.PrintExamples(out, name, func(w io.Writer) {
		fmt.Fprintf(w, "  # three genomes, hit tables in hits/, text report\n")
		fmt.Fprintf(w, "  %s --hits hits/ genomes/eco.fa genomes/bsu.fa genomes/mja.fa\n\n", name)
		fmt.Fprintf(w, "  # organism list, PostgreSQL store, TSV membership\n")
		fmt.Fprintf(w, "  %s --organisms genomes/organisms.txt --hits hits/ --db postgres://localhost/cogs -o tsv\n\n", name)
		fmt.Fprintf(w, "  # align every cluster with MAFFT, four at a time\n")
		fmt.Fprintf(w, "  %s --organisms genomes/organisms.txt --hits hits/ --align --align-workers 4\n", name)
	})
}
