package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cogs/internal/align"
	"cogs/internal/model"
	"cogs/internal/store"
)

func fixture(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	s := store.NewMemory()
	require.NoError(t, s.AddOrganisms(ctx, []model.Organism{{ID: 1, Name: "eco"}, {ID: 2, Name: "bsu"}}))
	require.NoError(t, s.AddProteins(ctx, []model.Protein{
		{ID: 1, Organism: 1, Name: "p1", Sequence: "MK"},
		{ID: 2, Organism: 1, Name: "p2", Sequence: "MA"},
		{ID: 3, Organism: 2, Name: "q1", Sequence: "MS"},
	}))
	return s
}

func TestBuildResolvesMembers(t *testing.T) {
	s := fixture(t)
	got, err := Build(context.Background(), s, model.Membership{
		7: {3, 1},
		2: {2},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.ClusterID(2), got[0].ID)
	assert.Equal(t, []Member{
		{Protein: 1, Organism: "eco", Name: "p1", Sequence: "MK"},
		{Protein: 3, Organism: "bsu", Name: "q1", Sequence: "MS"},
	}, got[1].Members)
	assert.Equal(t, 2, got[1].Organisms())
}

func TestBuildUnknownProtein(t *testing.T) {
	_, err := Build(context.Background(), fixture(t), model.Membership{1: {99}})
	assert.ErrorIs(t, err, store.ErrUnknownProtein)
}

func TestAlignJobsAndAttach(t *testing.T) {
	cs := []Cluster{{ID: 4, Members: []Member{{Organism: "eco", Name: "p1", Sequence: "MK"}}}}
	jobs := AlignJobs(cs)
	assert.Equal(t, []align.Job{{Key: "4", Entries: []align.Entry{{Name: "eco|p1", Sequence: "MK"}}}}, jobs)

	AttachAlignments(cs, []align.Result{{Key: "4", Alignment: ">eco|p1\nMK\n"}})
	assert.Equal(t, ">eco|p1\nMK\n", cs[0].Alignment)
}

func TestToAPI(t *testing.T) {
	c := Cluster{ID: 3, Members: []Member{
		{Protein: 1, Organism: "eco", Name: "p1", Sequence: "MK"},
		{Protein: 5, Organism: "eco", Name: "p5", Sequence: "MV"},
	}}
	v := ToAPI(c, false)
	assert.Equal(t, int64(3), v.COG)
	assert.Equal(t, 2, v.Size)
	assert.Equal(t, 1, v.Organisms)
	assert.Empty(t, v.Members[0].Sequence)
	assert.Equal(t, "MV", ToAPI(c, true).Members[1].Sequence)
}
