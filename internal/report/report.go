// Package report turns final cluster membership into presentable clusters.
package report

import (
	"context"
	"fmt"
	"strconv"

	"cogs/internal/align"
	"cogs/internal/model"
	"cogs/internal/store"
	"cogs/pkg/api"
)

// Member is one protein of a reported cluster.
type Member struct {
	Protein  model.ProteinID
	Organism string
	Name     string
	Sequence string
}

// Cluster is a COG with its members resolved against the store.
type Cluster struct {
	ID        model.ClusterID
	Members   []Member
	Alignment string
}

// Organisms counts the distinct organisms in c.
func (c Cluster) Organisms() int {
	seen := make(map[string]struct{}, len(c.Members))
	for _, m := range c.Members {
		seen[m.Organism] = struct{}{}
	}
	return len(seen)
}

// Build resolves every cluster of m, in ascending id order, with members in
// ascending protein id order.
func Build(ctx context.Context, s store.Store, m model.Membership) ([]Cluster, error) {
	orgs, err := s.Organisms(ctx)
	if err != nil {
		return nil, err
	}
	orgName := make(map[model.OrganismID]string, len(orgs))
	for _, o := range orgs {
		orgName[o.ID] = o.Name
	}

	out := make([]Cluster, 0, len(m))
	for _, c := range m.Clusters() {
		prots, err := s.Proteins(ctx, c.Members)
		if err != nil {
			return nil, fmt.Errorf("cluster %d: %w", c.ID, err)
		}
		rc := Cluster{ID: c.ID, Members: make([]Member, len(prots))}
		for i, p := range prots {
			rc.Members[i] = Member{
				Protein:  p.ID,
				Organism: orgName[p.Organism],
				Name:     p.Name,
				Sequence: p.Sequence,
			}
		}
		out = append(out, rc)
	}
	return out, nil
}

// AlignJobs builds one alignment job per cluster. Sequence names are
// "organism|accession".
func AlignJobs(clusters []Cluster) []align.Job {
	jobs := make([]align.Job, len(clusters))
	for i, c := range clusters {
		entries := make([]align.Entry, len(c.Members))
		for j, m := range c.Members {
			entries[j] = align.Entry{Name: m.Organism + "|" + m.Name, Sequence: m.Sequence}
		}
		jobs[i] = align.Job{Key: strconv.FormatInt(int64(c.ID), 10), Entries: entries}
	}
	return jobs
}

// AttachAlignments copies results, which are in job order, onto clusters.
func AttachAlignments(clusters []Cluster, results []align.Result) {
	for i := range clusters {
		if i < len(results) {
			clusters[i].Alignment = results[i].Alignment
		}
	}
}

// ToAPI converts c to the v1 wire schema. Sequences are kept only when
// withSeq is set.
func ToAPI(c Cluster, withSeq bool) api.ClusterV1 {
	out := api.ClusterV1{
		COG:       int64(c.ID),
		Size:      len(c.Members),
		Organisms: c.Organisms(),
		Members:   make([]api.MemberV1, len(c.Members)),
		Alignment: c.Alignment,
	}
	for i, m := range c.Members {
		out.Members[i] = api.MemberV1{
			ProteinID: int64(m.Protein),
			Organism:  m.Organism,
			Name:      m.Name,
		}
		if withSeq {
			out.Members[i].Sequence = m.Sequence
		}
	}
	return out
}
