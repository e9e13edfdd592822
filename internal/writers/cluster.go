// internal/writers/cluster.go
package writers

import (
	"io"

	"cogs/internal/report"
)

// StartClusterWriter spins up a writer goroutine for reported clusters.
// jsonl streams; every other format buffers until the channel closes.
func StartClusterWriter(out io.Writer, format string, o Options, bufSize int) (chan<- report.Cluster, <-chan error) {
	if format == "jsonl" {
		return StartClusterJSONLWriter(out, o, bufSize)
	}
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan report.Cluster, bufSize)
	errCh := make(chan error, 1)

	go func() {
		var buf []report.Cluster
		for c := range in {
			buf = append(buf, c)
		}
		err := WriteClusters(format, out, buf, o)
		if IsBrokenPipe(err) {
			err = nil
		}
		errCh <- err
	}()

	return in, errCh
}
