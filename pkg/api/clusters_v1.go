// pkg/api/clusters_v1.go
package api

// ClusterV1 is the stable JSON/JSONL schema for one COG.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ClusterV1 struct {
	COG       int64      `json:"cog"`
	Size      int        `json:"size"`
	Organisms int        `json:"organisms"`
	Members   []MemberV1 `json:"members"`
	Alignment string     `json:"alignment,omitempty"`
}

// MemberV1 is one protein of a cluster.
type MemberV1 struct {
	ProteinID int64  `json:"protein_id"`
	Organism  string `json:"organism"`
	Name      string `json:"name"`
	Sequence  string `json:"sequence,omitempty"`
}
