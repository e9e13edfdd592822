// internal/cluster/extend.go
package cluster

import (
	"context"
	"fmt"
	"slices"

	"cogs/internal/edgeset"
	"cogs/internal/model"
	"cogs/internal/store"
)

// Absorption records one protein joining an existing cluster.
type Absorption struct {
	Cluster    model.ClusterID
	Protein    model.ProteinID
	Votes      int
	Candidates int
}

// Extend offers every existing cluster, in ascending id order, the protein
// best connected to it in the working set.
//
// Each working edge with exactly one endpoint in the cluster is one vote for
// the outside endpoint. The most-voted protein joins the cluster; ties go to
// the smallest protein id. Every edge touching any voting protein is then
// retired, so a protein wanted by two clusters only ever reaches the first.
// Clusters without incident edges are left alone.
func Extend(ctx context.Context, tx store.Assigner, clusters model.Membership, ws *edgeset.Set) ([]Absorption, Consumed, error) {
	consumed := make(Consumed)
	var out []Absorption
	for _, cid := range clusters.IDs() {
		members := clusters[cid]
		votes := tally(members, ws)
		if len(votes) == 0 {
			continue
		}
		winner, n := bestCandidate(votes)
		if err := tx.Assign(ctx, winner, cid); err != nil {
			return out, consumed, fmt.Errorf("extend cluster %d with protein %d: %w", cid, winner, err)
		}
		voters := make([]model.ProteinID, 0, len(votes))
		for p := range votes {
			voters = append(voters, p)
		}
		ws.RemoveIncident(voters...)
		consumed.Add(winner)
		out = append(out, Absorption{Cluster: cid, Protein: winner, Votes: n, Candidates: len(votes)})
	}
	return out, consumed, nil
}

func tally(members []model.ProteinID, ws *edgeset.Set) map[model.ProteinID]int {
	in := make(map[model.ProteinID]struct{}, len(members))
	for _, m := range members {
		in[m] = struct{}{}
	}
	votes := make(map[model.ProteinID]int)
	for _, m := range members {
		for _, nb := range ws.Neighbors(m) {
			if _, inside := in[nb]; inside {
				continue
			}
			votes[nb]++
		}
	}
	return votes
}

// bestCandidate picks the highest tally, breaking ties by smallest id.
func bestCandidate(votes map[model.ProteinID]int) (model.ProteinID, int) {
	ids := make([]model.ProteinID, 0, len(votes))
	for id := range votes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	best, n := ids[0], votes[ids[0]]
	for _, id := range ids[1:] {
		if votes[id] > n {
			best, n = id, votes[id]
		}
	}
	return best, n
}
