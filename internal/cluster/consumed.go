// internal/cluster/consumed.go
package cluster

import "cogs/internal/model"

// Consumed is the set of proteins claimed during the current round.
type Consumed map[model.ProteinID]struct{}

func (c Consumed) Add(ids ...model.ProteinID) {
	for _, id := range ids {
		c[id] = struct{}{}
	}
}

func (c Consumed) Has(id model.ProteinID) bool {
	_, ok := c[id]
	return ok
}
