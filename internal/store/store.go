// Package store persists organisms, proteins and COG membership.
//
// Cluster writes happen inside a Tx that spans one organism round; a round is
// committed or rolled back as a whole. Reads through a Tx observe that Tx's
// own writes.
package store

import (
	"context"

	"cogs/internal/model"
)

// Reader exposes the committed (or, inside a Tx, staged) cluster membership.
type Reader interface {
	ClusterMembership(ctx context.Context) (model.Membership, error)
}

// Assigner is the write side used by the clustering engines.
type Assigner interface {
	Reader
	Assign(ctx context.Context, id model.ProteinID, cog model.ClusterID) error
	AssignMany(ctx context.Context, ids []model.ProteinID, cog model.ClusterID) error
	NextClusterID(ctx context.Context) (model.ClusterID, error)
}

type Tx interface {
	Assigner
	// SetProgress records that the rounds for the first completed organisms
	// are done. It becomes visible with the round's clusters on Commit.
	SetProgress(ctx context.Context, completed int) error
	Commit(ctx context.Context) error
	// Rollback discards staged writes; it is a no-op after Commit.
	Rollback(ctx context.Context) error
}

type Store interface {
	Reader
	AddOrganisms(ctx context.Context, orgs []model.Organism) error
	AddProteins(ctx context.Context, prots []model.Protein) error
	Organisms(ctx context.Context) ([]model.Organism, error)
	// OrganismProteins returns the protein ids of one organism, ascending.
	OrganismProteins(ctx context.Context, org model.OrganismID) ([]model.ProteinID, error)
	// Proteins returns the requested proteins ordered by id.
	Proteins(ctx context.Context, ids []model.ProteinID) ([]model.Protein, error)
	// Progress is the organism count of the last committed round, 0 before
	// any round committed.
	Progress(ctx context.Context) (int, error)
	Begin(ctx context.Context) (Tx, error)
	Close() error
}
