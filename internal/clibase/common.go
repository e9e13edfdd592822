// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"

	"cogs/internal/cliutil"
	"cogs/internal/config"
	"cogs/internal/ingest"
)

// Common holds CLI fields shared by cogs and cogs-bbh.
type Common struct {
	// Settings
	ConfigFile string
	EnvFile    string

	// Input
	Organisms    []string // name=path
	OrganismList string
	HitDir       string
	Sources      []ingest.Source // resolved from Organisms and positionals

	// Logging
	LogLevel  string
	LogFormat string
	Quiet     bool

	Version bool
}

// sliceValue appends each value to a *[]string (for repeatable flags).
type sliceValue struct{ dst *[]string }

func (s *sliceValue) String() string {
	if s.dst == nil {
		return ""
	}
	return fmt.Sprint(*s.dst)
}

func (s *sliceValue) Set(v string) error {
	*s.dst = append(*s.dst, v)
	return nil
}

// Register wires the shared flags onto fs.
func Register(fs *flag.FlagSet, c *Common) {
	fs.StringVar(&c.ConfigFile, "config", "", "YAML settings file")
	fs.StringVar(&c.EnvFile, "env-file", "", "dotenv file with COGS_* variables (default .env if present)")

	orgVal := &sliceValue{dst: &c.Organisms}
	fs.Var(orgVal, "organism", "organism as name=fasta (repeatable, in order)")
	fs.Var(orgVal, "O", "alias of --organism")
	fs.StringVar(&c.OrganismList, "organisms", "", "organism list file (one name per line, <name>.fa beside it)")
	fs.StringVar(&c.HitDir, "hits", "", "directory of <A>__<B> top-hit tables")

	fs.StringVar(&c.LogLevel, "log-level", "", "log level: debug | info | warn | error [info]")
	fs.StringVar(&c.LogFormat, "log-format", "", "log format: console | json [console]")
	fs.BoolVar(&c.Quiet, "quiet", false, "only log warnings and errors [false]")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Version, "v", false, "print version and exit [false]")
	fs.BoolVar(&c.Version, "version", false, "print version and exit [false]")
}

// AfterParse resolves organism specs and positional FASTA paths (globs are
// expanded) into Sources, then validates.
func AfterParse(c *Common, posArgs []string) error {
	for _, spec := range c.Organisms {
		src, err := ingest.ParseSource(spec)
		if err != nil {
			return err
		}
		c.Sources = append(c.Sources, src)
	}
	if len(posArgs) > 0 {
		paths, err := cliutil.ExpandPositionals(posArgs)
		if err != nil {
			return err
		}
		for _, p := range paths {
			c.Sources = append(c.Sources, ingest.Source{Name: cliutil.OrganismName(p), Path: p})
		}
	}
	return Validate(c)
}

// Validate applies the shared CLI invariants.
func Validate(c *Common) error {
	if len(c.Sources) > 0 && c.OrganismList != "" {
		return errors.New("--organisms conflicts with --organism and positional FASTA files")
	}
	seen := make(map[string]bool, len(c.Sources))
	for _, s := range c.Sources {
		if seen[s.Name] {
			return fmt.Errorf("organism %q given twice", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Apply copies explicitly given shared settings onto cfg.
func (c *Common) Apply(cfg *config.Config) {
	if len(c.Sources) > 0 {
		cfg.Organisms = cfg.Organisms[:0]
		cfg.OrganismList = ""
		for _, s := range c.Sources {
			cfg.Organisms = append(cfg.Organisms, config.Organism{Name: s.Name, Path: s.Path})
		}
	}
	if c.OrganismList != "" {
		cfg.OrganismList = c.OrganismList
		cfg.Organisms = nil
	}
	if c.HitDir != "" {
		cfg.HitDir = c.HitDir
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if c.Quiet {
		cfg.Log.Level = "warn"
	}
}
