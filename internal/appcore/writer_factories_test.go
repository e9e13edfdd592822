package appcore

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"cogs/internal/config"
	"cogs/internal/report"
	"cogs/internal/writers"
)

func TestClusterWriterFactory_TSVHeader(t *testing.T) {
	var buf bytes.Buffer
	in, done := NewClusterWriterFactory("tsv", writers.Options{Header: true}).Start(&buf, 1)
	in <- report.Cluster{ID: 1, Members: []report.Member{{Protein: 2, Organism: "eco", Name: "p2"}}}
	close(in)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if buf.String() != "cog\tprotein_id\torganism\tname\n1\t2\teco\tp2\n" {
		t.Fatalf("tsv: %q", buf.String())
	}
}

func TestWriteReportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	clusters := make([]report.Cluster, 200)
	err := writeReport(ctx, &buf, config.Output{Format: "jsonl"}, clusters)
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("want cancellation, got %v", err)
	}
}
