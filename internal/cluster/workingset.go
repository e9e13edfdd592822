// internal/cluster/workingset.go
package cluster

import (
	"context"
	"fmt"
	"slices"

	"cogs/internal/bbh"
	"cogs/internal/edgeset"
	"cogs/internal/model"
)

// MinOrganisms is how many organisms must be present before clusters form.
const MinOrganisms = 3

// WorkingSet accumulates BBH edges as organisms are introduced and loses them
// only as proteins are consumed.
type WorkingSet struct {
	provider   bbh.Provider
	edges      *edgeset.Set
	introduced []model.Organism
}

func NewWorkingSet(p bbh.Provider) *WorkingSet {
	return &WorkingSet{provider: p, edges: edgeset.New()}
}

func (w *WorkingSet) Edges() *edgeset.Set { return w.edges }

func (w *WorkingSet) Introduced() []model.Organism { return slices.Clone(w.introduced) }

// Ready reports whether enough organisms are present to run a round.
func (w *WorkingSet) Ready() bool { return len(w.introduced) >= MinOrganisms }

// Introduce merges the edges between org and every earlier organism. All
// pairs are fetched before any edge is merged, so a provider failure leaves
// the working set untouched. It returns the number of edges added.
func (w *WorkingSet) Introduce(ctx context.Context, org model.Organism) (int, error) {
	if n := len(w.introduced); n > 0 && w.introduced[n-1].ID >= org.ID {
		return 0, fmt.Errorf("organism %s (%d) introduced out of order after %s (%d)",
			org.Name, org.ID, w.introduced[n-1].Name, w.introduced[n-1].ID)
	}
	batches := make([][]edgeset.Pair, 0, len(w.introduced))
	for _, prev := range w.introduced {
		pairs, err := w.provider.EdgesBetween(ctx, prev, org)
		if err != nil {
			return 0, fmt.Errorf("introduce %s: %w", org.Name, err)
		}
		batches = append(batches, pairs)
	}
	added := 0
	for _, pairs := range batches {
		added += w.edges.AddAll(pairs)
	}
	w.introduced = append(w.introduced, org)
	return added, nil
}

// Remove retires every edge incident to ids.
func (w *WorkingSet) Remove(ids ...model.ProteinID) int { return w.edges.RemoveIncident(ids...) }

// Snapshot captures the state at an organism boundary.
type Snapshot struct {
	edges      *edgeset.Set
	introduced []model.Organism
}

func (w *WorkingSet) Snapshot() Snapshot {
	return Snapshot{edges: w.edges.Clone(), introduced: slices.Clone(w.introduced)}
}

// Restore rewinds to s. The snapshot stays reusable.
func (w *WorkingSet) Restore(s Snapshot) {
	w.edges = s.edges.Clone()
	w.introduced = slices.Clone(s.introduced)
}

// Resume installs a previously checkpointed state.
func (w *WorkingSet) Resume(introduced []model.Organism, edges *edgeset.Set) {
	w.introduced = slices.Clone(introduced)
	w.edges = edges
}
