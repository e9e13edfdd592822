// Package model holds the identifiers and records shared by ingestion,
// clustering, persistence and output.
package model

import "slices"

// ProteinID is assigned at ingestion and stays stable for the whole run.
type ProteinID int64

// ClusterID identifies a COG. Ids are allocated as max+1 and never reused.
type ClusterID int64

// OrganismID is the 1-based ingestion index of an organism.
type OrganismID int

// NoCluster marks a protein that has not been assigned yet.
const NoCluster ClusterID = 0

type Organism struct {
	ID   OrganismID
	Name string
}

type Protein struct {
	ID       ProteinID
	Organism OrganismID
	Name     string
	Sequence string
	Cluster  ClusterID
}

// Clustered reports whether the protein already belongs to a COG.
func (p Protein) Clustered() bool { return p.Cluster != NoCluster }

// Cluster is a COG and its member proteins in ascending id order.
type Cluster struct {
	ID      ClusterID
	Members []ProteinID
}

// Membership maps each COG to its member proteins.
type Membership map[ClusterID][]ProteinID

// IDs returns the cluster ids in ascending order.
func (m Membership) IDs() []ClusterID {
	ids := make([]ClusterID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Owners inverts the membership into protein -> cluster.
func (m Membership) Owners() map[ProteinID]ClusterID {
	out := make(map[ProteinID]ClusterID)
	for cid, members := range m {
		for _, p := range members {
			out[p] = cid
		}
	}
	return out
}

// MaxID returns the largest cluster id, or NoCluster when empty.
func (m Membership) MaxID() ClusterID {
	var max ClusterID
	for id := range m {
		if id > max {
			max = id
		}
	}
	return max
}

// Clone deep-copies the membership.
func (m Membership) Clone() Membership {
	out := make(Membership, len(m))
	for id, members := range m {
		out[id] = slices.Clone(members)
	}
	return out
}

// Clusters flattens the membership into sorted clusters.
func (m Membership) Clusters() []Cluster {
	out := make([]Cluster, 0, len(m))
	for _, id := range m.IDs() {
		members := slices.Clone(m[id])
		slices.Sort(members)
		out = append(out, Cluster{ID: id, Members: members})
	}
	return out
}

// SortProteins sorts ids ascending in place and returns them.
func SortProteins(ids []ProteinID) []ProteinID {
	slices.Sort(ids)
	return ids
}
