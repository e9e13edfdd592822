// internal/clibase/usage.go
package clibase

import (
	"flag"
	"fmt"
	"io"

	"cogs/internal/version"
)

// UsageCommon installs a shared Usage() handler on fs.
// extra prints tool-specific sections between the header and the shared
// blocks.
func UsageCommon(fs *flag.FlagSet, name, tagline string, extra func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		fmt.Fprintf(out, "%s – %s\n\n", name, tagline)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)
		fmt.Fprintf(out, "Usage: %s [flags] [FASTA...]\n", name)

		if extra != nil {
			extra(out, def)
		}

		fmt.Fprintln(out, "\nInput:")
		fmt.Fprintln(out, "  -O, --organism name=path    Organism FASTA, repeatable, in introduction order")
		fmt.Fprintln(out, "      --organisms file        Organism list (one name per line, <name>.fa beside it)")
		fmt.Fprintln(out, "      --hits dir              Directory of <A>__<B> top-hit tables [*]")
		fmt.Fprintln(out, "      FASTA...                Positional FASTA files or globs; name = file stem")

		fmt.Fprintln(out, "\nSettings:")
		fmt.Fprintln(out, "      --config file           YAML settings (flags override it)")
		fmt.Fprintln(out, "      --env-file file         dotenv file with COGS_* variables")

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintln(out, "      --log-level string      debug | info | warn | error [info]")
		fmt.Fprintln(out, "      --log-format string     console | json [console]")
		fmt.Fprintf(out, "  -q, --quiet                 Only log warnings and errors [%s]\n", def("quiet"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
}
