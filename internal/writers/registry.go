// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"cogs/internal/report"
)

// Options tunes the presentation shared by all formats.
type Options struct {
	Header    bool // column header for tsv
	Sequences bool // include member sequences in json/jsonl
}

// ClusterWriters maps a format name to its handler. Formats register in
// init() blocks of their own files.
var ClusterWriters = map[string]func(w io.Writer, list []report.Cluster, o Options) error{}

// RegisterCluster adds or replaces the handler for format.
func RegisterCluster(format string, fn func(io.Writer, []report.Cluster, Options) error) {
	ClusterWriters[format] = fn
}

// Formats lists the registered format names, sorted.
func Formats() []string {
	out := make([]string, 0, len(ClusterWriters))
	for f := range ClusterWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// WriteClusters dispatches to the handler registered for format.
func WriteClusters(format string, w io.Writer, list []report.Cluster, o Options) error {
	fn, ok := ClusterWriters[format]
	if !ok {
		return fmt.Errorf("unknown cluster format %q (no writer registered)", format)
	}
	return fn(w, list, o)
}
