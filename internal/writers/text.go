// internal/writers/text.go
package writers

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"cogs/internal/report"
)

func init() {
	RegisterCluster("text", writeText)
	RegisterCluster("tsv", writeTSV)
	RegisterCluster("fasta", writeFASTA)
}

const tsvHeader = "cog\tprotein_id\torganism\tname"

// writeText prints one block per cluster, followed by its alignment when
// there is one.
func writeText(w io.Writer, list []report.Cluster, _ Options) error {
	bw := bufio.NewWriter(w)
	for i, c := range list {
		if i > 0 {
			bw.WriteByte('\n')
		}
		fmt.Fprintf(bw, "COG %d: %d proteins from %d organisms\n", c.ID, len(c.Members), c.Organisms())
		for _, m := range c.Members {
			fmt.Fprintf(bw, "  %-8d %-16s %s\n", m.Protein, m.Organism, m.Name)
		}
		if c.Alignment != "" {
			bw.WriteString(strings.TrimRight(c.Alignment, "\n"))
			bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

func writeTSV(w io.Writer, list []report.Cluster, o Options) error {
	bw := bufio.NewWriter(w)
	if o.Header {
		bw.WriteString(tsvHeader)
		bw.WriteByte('\n')
	}
	for _, c := range list {
		for _, m := range c.Members {
			fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", c.ID, m.Protein, m.Organism, m.Name)
		}
	}
	return bw.Flush()
}

// writeFASTA emits member sequences with ">cog<id>|<organism>|<name>" headers.
func writeFASTA(w io.Writer, list []report.Cluster, _ Options) error {
	bw := bufio.NewWriter(w)
	for _, c := range list {
		for _, m := range c.Members {
			fmt.Fprintf(bw, ">cog%d|%s|%s\n%s\n", c.ID, m.Organism, m.Name, m.Sequence)
		}
	}
	return bw.Flush()
}
