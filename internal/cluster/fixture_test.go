package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cogs/internal/bbh"
	"cogs/internal/edgeset"
	"cogs/internal/model"
	"cogs/internal/store"
)

// Protein ids for the two-proteins-per-organism fixture.
const (
	a1 model.ProteinID = iota + 1
	a2
	b1
	b2
	c1
	c2
	d1
	d2
)

var fixtureOrgs = []model.Organism{
	{ID: 1, Name: "O1"},
	{ID: 2, Name: "O2"},
	{ID: 3, Name: "O3"},
	{ID: 4, Name: "O4"},
}

// newFixtureStore stores four organisms with two proteins each.
func newFixtureStore(t *testing.T) *store.Memory {
	t.Helper()
	s := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, s.AddOrganisms(ctx, fixtureOrgs))
	names := []string{"a1", "a2", "b1", "b2", "c1", "c2", "d1", "d2"}
	var prots []model.Protein
	for i, n := range names {
		prots = append(prots, model.Protein{
			ID:       model.ProteinID(i + 1),
			Organism: model.OrganismID(i/2 + 1),
			Name:     n,
			Sequence: "M",
		})
	}
	require.NoError(t, s.AddProteins(ctx, prots))
	return s
}

// edges registers every organism pair up to n, adding the given pairs to the
// pair they span.
func edges(n int, pairs ...edgeset.Pair) *bbh.MemoryProvider {
	orgOf := func(p model.ProteinID) model.OrganismID { return model.OrganismID((p-1)/2 + 1) }
	byPair := map[[2]model.OrganismID][]edgeset.Pair{}
	for _, p := range pairs {
		x, y := orgOf(p.A), orgOf(p.B)
		if y < x {
			x, y = y, x
		}
		byPair[[2]model.OrganismID{x, y}] = append(byPair[[2]model.OrganismID{x, y}], p)
	}
	mp := bbh.NewMemoryProvider()
	for i := 1; i <= n; i++ {
		for j := i + 1; j <= n; j++ {
			k := [2]model.OrganismID{model.OrganismID(i), model.OrganismID(j)}
			mp.Set(k[0], k[1], byPair[k]...)
		}
	}
	return mp
}

func e(x, y model.ProteinID) edgeset.Pair { return edgeset.NewPair(x, y) }

// assertInvariants checks that every protein sits in at most one cluster and
// every cluster has at least three members.
func assertInvariants(t *testing.T, m model.Membership) {
	t.Helper()
	seen := map[model.ProteinID]model.ClusterID{}
	for cid, members := range m {
		require.GreaterOrEqual(t, len(members), 3, "cluster %d too small", cid)
		for _, p := range members {
			prev, dup := seen[p]
			require.False(t, dup, "protein %d in clusters %d and %d", p, prev, cid)
			seen[p] = cid
		}
	}
}
