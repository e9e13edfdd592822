// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"cogs/internal/jsonlutil"
	"cogs/internal/report"
	"cogs/pkg/api"
)

func init() {
	RegisterCluster("json", writeJSON)
	RegisterCluster("jsonl", writeJSONL)
}

// StartClusterJSONLWriter streams each cluster as one JSON line (v1).
func StartClusterJSONLWriter(out io.Writer, o Options, bufSize int) (chan<- report.Cluster, <-chan error) {
	return jsonlutil.Start[report.Cluster](out, bufSize,
		func(enc *json.Encoder, c report.Cluster) error {
			return enc.Encode(report.ToAPI(c, o.Sequences))
		},
		IsBrokenPipe,
	)
}

func writeJSON(w io.Writer, list []report.Cluster, o Options) error {
	out := make([]api.ClusterV1, len(list))
	for i, c := range list {
		out[i] = report.ToAPI(c, o.Sequences)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeJSONL(w io.Writer, list []report.Cluster, o Options) error {
	enc := json.NewEncoder(w)
	for _, c := range list {
		if err := enc.Encode(report.ToAPI(c, o.Sequences)); err != nil {
			return err
		}
	}
	return nil
}
