package cluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogs/internal/edgeset"
	"cogs/internal/model"
	"cogs/internal/store"
)

func TestScenarioA_TriangleSeedsOneCluster(t *testing.T) {
	s := newFixtureStore(t)
	p := edges(3, e(a1, b1), e(b1, c1), e(a1, c1))

	sum, err := NewRunner(p, s).Run(context.Background(), fixtureOrgs[:3])
	require.NoError(t, err)

	assert.Equal(t, model.Membership{1: {a1, b1, c1}}, sum.Membership)
	require.Len(t, sum.Rounds, 3)
	assert.True(t, sum.Rounds[0].Waiting)
	assert.True(t, sum.Rounds[1].Waiting)
	assert.Equal(t, []model.Cluster{{ID: 1, Members: []model.ProteinID{a1, b1, c1}}}, sum.Rounds[2].Created)
	assert.Equal(t, 0, sum.Working.Edges().Len())

	prots, err := s.Proteins(context.Background(), []model.ProteinID{a2, b2, c2})
	require.NoError(t, err)
	for _, pr := range prots {
		assert.False(t, pr.Clustered(), "%s must stay unclustered", pr.Name)
	}
}

func TestScenarioB_ExtensionTakesMostVoted(t *testing.T) {
	s := newFixtureStore(t)
	p := edges(4,
		e(a1, b1), e(b1, c1), e(a1, c1),
		e(d1, a1), e(d1, b1), e(d2, c1),
	)

	sum, err := NewRunner(p, s).Run(context.Background(), fixtureOrgs)
	require.NoError(t, err)

	assert.Equal(t, model.Membership{1: {a1, b1, c1, d1}}, sum.Membership)
	last := sum.Rounds[3]
	assert.Equal(t, []Absorption{{Cluster: 1, Protein: d1, Votes: 2, Candidates: 2}}, last.Absorbed)
	assert.Empty(t, last.Created)
	// d2 voted and lost, so its edge is retired with the round.
	assert.Equal(t, 0, sum.Working.Edges().Degree(d2))
}

func TestScenarioC_LowerClusterClaimsSharedProtein(t *testing.T) {
	s := newFixtureStore(t)
	p := edges(4,
		e(a1, b1), e(b1, c1), e(a1, c1),
		e(a2, b2), e(b2, c2), e(a2, c2),
		e(d1, a1), e(d1, b2),
	)

	sum, err := NewRunner(p, s).Run(context.Background(), fixtureOrgs)
	require.NoError(t, err)

	assert.Equal(t, model.Membership{
		1: {a1, b1, c1, d1},
		2: {a2, b2, c2},
	}, sum.Membership)
	assert.Len(t, sum.Rounds[3].Absorbed, 1)
	assertInvariants(t, sum.Membership)
}

func TestExtendTieBreaksOnSmallestID(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	seedCluster(t, s, 1, a1, b1, c1)

	ws := edgeset.Of(e(d2, a1), e(d1, b1))
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	clusters, err := tx.ClusterMembership(ctx)
	require.NoError(t, err)

	got, consumed, err := Extend(ctx, tx, clusters, ws)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, d1, got[0].Protein, "equal votes: smallest id wins")
	assert.True(t, consumed.Has(d1))
	assert.False(t, consumed.Has(d2))
	assert.Equal(t, 0, ws.Len(), "loser's edges are retired too")
	require.NoError(t, tx.Commit(ctx))
}

func TestExtendSkipsClustersWithoutEdges(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	seedCluster(t, s, 1, a1, b1, c1)

	ws := edgeset.Of(e(a2, d2))
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	clusters, err := tx.ClusterMembership(ctx)
	require.NoError(t, err)
	got, _, err := Extend(ctx, tx, clusters, ws)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, ws.Len())
}

func TestExtendIgnoresEdgesInsideCluster(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	seedCluster(t, s, 1, a1, b1, c1)

	ws := edgeset.Of(e(a1, b1), e(d1, c1))
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	clusters, err := tx.ClusterMembership(ctx)
	require.NoError(t, err)
	got, _, err := Extend(ctx, tx, clusters, ws)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Absorption{Cluster: 1, Protein: d1, Votes: 1, Candidates: 1}, got[0])
}

func TestDiscoverUnionsOverlappingTriangles(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	// d1 closes d1-a1-b1 and d1-b1-c2; the union is one cluster.
	ws := edgeset.Of(e(d1, a1), e(d1, b1), e(d1, c2), e(a1, b1), e(b1, c2), e(a2, b2))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	created, err := Discover(ctx, tx, []model.ProteinID{d2, d1}, ws, Consumed{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []model.Cluster{{ID: 1, Members: []model.ProteinID{a1, b1, c2, d1}}}, created)
	assert.Equal(t, []edgeset.Pair{e(a2, b2)}, ws.Pairs())
}

func TestDiscoverSkipsConsumedAndClustered(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	seedCluster(t, s, 4, a2, b2, c2)

	ws := edgeset.Of(e(d1, a1), e(d1, b1), e(a1, b1), e(d2, a1), e(d2, c1), e(a1, c1))
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	created, err := Discover(ctx, tx, []model.ProteinID{d1, d2, a2}, ws, Consumed{d1: {}})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, model.ClusterID(5), created[0].ID, "next id is max+1")
	assert.Equal(t, []model.ProteinID{a1, c1, d2}, created[0].Members)
}

func TestReplayOnConsumedWorkingSetIsNoop(t *testing.T) {
	s := newFixtureStore(t)
	ctx := context.Background()
	p := edges(4,
		e(a1, b1), e(b1, c1), e(a1, c1),
		e(a2, b2), e(b2, c2), e(a2, c2), e(b2, d2),
		e(d1, a1), e(d1, b1), e(d1, c1), e(d2, c2),
	)
	sum, err := NewRunner(p, s).Run(ctx, fixtureOrgs)
	require.NoError(t, err)
	before := sum.Membership

	ws := sum.Working.Edges()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	clusters, err := tx.ClusterMembership(ctx)
	require.NoError(t, err)
	absorbed, consumed, err := Extend(ctx, tx, clusters, ws)
	require.NoError(t, err)
	created, err := Discover(ctx, tx, []model.ProteinID{d1, d2}, ws, consumed)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Empty(t, absorbed)
	assert.Empty(t, created)
	after, err := s.ClusterMembership(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func seedCluster(t *testing.T, s store.Store, cid model.ClusterID, ids ...model.ProteinID) {
	t.Helper()
	ctx := context.Background()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.AssignMany(ctx, ids, cid))
	require.NoError(t, tx.Commit(ctx))
}
