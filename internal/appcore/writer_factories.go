// internal/appcore/writer_factories.go
package appcore

import (
	"io"

	"cogs/internal/report"
	"cogs/internal/writers"
)

// ClusterWriterFactory starts the writer for one output format.
type ClusterWriterFactory struct {
	Format  string
	Options writers.Options
}

func NewClusterWriterFactory(format string, o writers.Options) ClusterWriterFactory {
	return ClusterWriterFactory{Format: format, Options: o}
}

func (w ClusterWriterFactory) Start(out io.Writer, bufSize int) (chan<- report.Cluster, <-chan error) {
	return writers.StartClusterWriter(out, w.Format, w.Options, bufSize)
}
