// internal/cli/flagset.go
package cli

import (
	"flag"
	"fmt"
	"io"

	"cogs/internal/clibase"
)

// NewFlagSet returns a ContinueOnError FlagSet with the cogs usage text.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	clibase.UsageCommon(fs, name, "incremental COG clustering from bidirectional best hits", usageRun)
	return fs
}

func usageRun(out io.Writer, def func(string) string) {
	p := func(format string, a ...any) { _, _ = fmt.Fprintf(out, format, a...) }
	p("\nStore:\n")
	p("      --db url                PostgreSQL URL (default: in-memory store)\n")
	p("      --reset-db              Drop and recreate the schema first [%s]\n", def("reset-db"))
	p("      --retry int             Attempts per round on store write failure [%s]\n", def("retry"))
	p("      --checkpoint dir        Save/resume working set between organisms\n")

	p("\nOutput:\n")
	p("  -o, --output string         text | tsv | json | jsonl | fasta [text]\n")
	p("      --sequences             Include member sequences in json/jsonl [%s]\n", def("sequences"))
	p("      --no-header             Suppress TSV header [%s]\n", def("no-header"))
	p("      --dump-edges file       Write the final working edge set (a;b lines)\n")
	p("      --metrics-file file     Write Prometheus metrics in textfile format\n")
	p("      --no-cluster-exit-code int  Exit code when no cluster forms [%s]\n", def("no-cluster-exit-code"))

	p("\nAlignment:\n")
	p("      --align                 Align each cluster after clustering [%s]\n", def("align"))
	p("      --aligner cmd           Aligner command reading FASTA on stdin [mafft --auto -]\n")
	p("      --align-workers int     Concurrent aligner processes [4]\n")
	p("      --examples              Show quickstart examples and exit\n")
}
