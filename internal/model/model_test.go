package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMembershipHelpers(t *testing.T) {
	m := Membership{
		3: {9, 7, 8},
		1: {1, 2, 3},
	}
	assert.Equal(t, []ClusterID{1, 3}, m.IDs())
	assert.Equal(t, ClusterID(3), m.MaxID())
	assert.Equal(t, ClusterID(3), m.Owners()[8])

	cl := m.Clusters()
	assert.Equal(t, []Cluster{{ID: 1, Members: []ProteinID{1, 2, 3}}, {ID: 3, Members: []ProteinID{7, 8, 9}}}, cl)
	// Clusters must not reorder the source slice.
	assert.Equal(t, []ProteinID{9, 7, 8}, m[3])

	c := m.Clone()
	c[1] = append(c[1], 4)
	assert.Len(t, m[1], 3)
}

func TestEmptyMembership(t *testing.T) {
	var m Membership
	assert.Equal(t, NoCluster, m.MaxID())
	assert.Empty(t, m.IDs())
	assert.False(t, Protein{}.Clustered())
	assert.True(t, Protein{Cluster: 2}.Clustered())
}
