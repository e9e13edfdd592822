// internal/cluster/discover.go
package cluster

import (
	"context"
	"fmt"
	"slices"

	"cogs/internal/edgeset"
	"cogs/internal/model"
	"cogs/internal/store"
)

// Discover seeds new clusters from closed triangles through the proteins of
// the organism just introduced.
//
// For each candidate P (ascending id) that is neither clustered nor consumed,
// every pair of P's neighbors that is itself a working edge closes a triangle.
// All triangles through P are merged into one group, which becomes a new
// cluster with the next free id. Its members' edges are retired.
func Discover(ctx context.Context, tx store.Assigner, candidates []model.ProteinID, ws *edgeset.Set, consumed Consumed) ([]model.Cluster, error) {
	current, err := tx.ClusterMembership(ctx)
	if err != nil {
		return nil, err
	}
	owners := current.Owners()

	order := model.SortProteins(slices.Clone(candidates))
	var created []model.Cluster
	for _, p := range order {
		if consumed.Has(p) {
			continue
		}
		if _, clustered := owners[p]; clustered {
			continue
		}
		members := closedTriangles(p, ws)
		if len(members) == 0 {
			continue
		}
		cid, err := tx.NextClusterID(ctx)
		if err != nil {
			return created, err
		}
		if err := tx.AssignMany(ctx, members, cid); err != nil {
			return created, fmt.Errorf("seed cluster %d from protein %d: %w", cid, p, err)
		}
		ws.RemoveIncident(members...)
		consumed.Add(members...)
		for _, m := range members {
			owners[m] = cid
		}
		created = append(created, model.Cluster{ID: cid, Members: members})
	}
	return created, nil
}

// closedTriangles returns the union of every triangle through p, sorted, or
// nil when p closes none.
func closedTriangles(p model.ProteinID, ws *edgeset.Set) []model.ProteinID {
	nb := ws.Neighbors(p)
	group := make(map[model.ProteinID]struct{})
	for i := 0; i < len(nb); i++ {
		for j := i + 1; j < len(nb); j++ {
			if ws.Has(nb[i], nb[j]) {
				group[nb[i]] = struct{}{}
				group[nb[j]] = struct{}{}
			}
		}
	}
	if len(group) == 0 {
		return nil
	}
	out := make([]model.ProteinID, 0, len(group)+1)
	out = append(out, p)
	for id := range group {
		out = append(out, id)
	}
	return model.SortProteins(out)
}
