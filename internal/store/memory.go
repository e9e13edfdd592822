// internal/store/memory.go
package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"cogs/internal/model"
)

// Memory is an in-process Store. It backs tests and runs without a database.
type Memory struct {
	mu         sync.RWMutex
	organisms  []model.Organism
	proteins   map[model.ProteinID]model.Protein
	byOrg      map[model.OrganismID][]model.ProteinID
	membership model.Membership
	progress   int
	open       bool
	failWrites int
}

func NewMemory() *Memory {
	return &Memory{
		proteins:   make(map[model.ProteinID]model.Protein),
		byOrg:      make(map[model.OrganismID][]model.ProteinID),
		membership: make(model.Membership),
	}
}

// FailWrites makes the next n cluster writes fail with ErrWriteFailure.
func (m *Memory) FailWrites(n int) {
	m.mu.Lock()
	m.failWrites = n
	m.mu.Unlock()
}

func (m *Memory) AddOrganisms(_ context.Context, orgs []model.Organism) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range orgs {
		for _, have := range m.organisms {
			if have.ID == o.ID || have.Name == o.Name {
				return fmt.Errorf("organism %d %q already stored", o.ID, o.Name)
			}
		}
	}
	m.organisms = append(m.organisms, orgs...)
	slices.SortFunc(m.organisms, func(a, b model.Organism) int { return int(a.ID) - int(b.ID) })
	return nil
}

func (m *Memory) AddProteins(_ context.Context, prots []model.Protein) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range prots {
		if _, dup := m.proteins[p.ID]; dup {
			return fmt.Errorf("protein %d already stored", p.ID)
		}
	}
	for _, p := range prots {
		p.Cluster = model.NoCluster
		m.proteins[p.ID] = p
		m.byOrg[p.Organism] = append(m.byOrg[p.Organism], p.ID)
	}
	for org := range m.byOrg {
		slices.Sort(m.byOrg[org])
	}
	return nil
}

func (m *Memory) Organisms(context.Context) ([]model.Organism, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.organisms), nil
}

func (m *Memory) OrganismProteins(_ context.Context, org model.OrganismID) ([]model.ProteinID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.byOrg[org]), nil
}

func (m *Memory) Proteins(_ context.Context, ids []model.ProteinID) ([]model.Protein, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sorted := model.SortProteins(slices.Clone(ids))
	out := make([]model.Protein, 0, len(ids))
	for _, id := range sorted {
		p, ok := m.proteins[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownProtein, id)
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Memory) ClusterMembership(context.Context) (model.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.membership.Clone(), nil
}

func (m *Memory) Progress(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.progress, nil
}

func (m *Memory) Begin(context.Context) (Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.open {
		return nil, ErrTxOpen
	}
	m.open = true
	staged := m.membership.Clone()
	return &memTx{parent: m, staged: staged, owners: staged.Owners(), progress: m.progress}, nil
}

func (m *Memory) Close() error { return nil }

type memTx struct {
	parent   *Memory
	staged   model.Membership
	owners   map[model.ProteinID]model.ClusterID
	progress int
	done     bool
}

func (t *memTx) ClusterMembership(context.Context) (model.Membership, error) {
	if t.done {
		return nil, ErrTxDone
	}
	return t.staged.Clone(), nil
}

func (t *memTx) NextClusterID(context.Context) (model.ClusterID, error) {
	if t.done {
		return 0, ErrTxDone
	}
	return t.staged.MaxID() + 1, nil
}

func (t *memTx) Assign(ctx context.Context, id model.ProteinID, cog model.ClusterID) error {
	return t.AssignMany(ctx, []model.ProteinID{id}, cog)
}

func (t *memTx) AssignMany(_ context.Context, ids []model.ProteinID, cog model.ClusterID) error {
	if t.done {
		return ErrTxDone
	}
	if cog == model.NoCluster {
		return fmt.Errorf("assign to cluster id %d", cog)
	}
	m := t.parent
	m.mu.Lock()
	if m.failWrites > 0 {
		m.failWrites--
		m.mu.Unlock()
		return &WriteFailureError{Op: "assign", Err: fmt.Errorf("injected failure for cluster %d", cog)}
	}
	m.mu.Unlock()

	m.mu.RLock()
	seen := make(map[model.ProteinID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := m.proteins[id]; !ok {
			m.mu.RUnlock()
			return fmt.Errorf("%w: %d", ErrUnknownProtein, id)
		}
		if have, ok := t.owners[id]; ok {
			m.mu.RUnlock()
			return &DuplicateAssignmentError{Protein: id, Existing: have, Target: cog}
		}
		if _, ok := seen[id]; ok {
			m.mu.RUnlock()
			return &DuplicateAssignmentError{Protein: id, Existing: cog, Target: cog}
		}
		seen[id] = struct{}{}
	}
	m.mu.RUnlock()

	for _, id := range ids {
		t.owners[id] = cog
		t.staged[cog] = append(t.staged[cog], id)
	}
	slices.Sort(t.staged[cog])
	return nil
}

func (t *memTx) SetProgress(_ context.Context, completed int) error {
	if t.done {
		return ErrTxDone
	}
	if completed < t.progress {
		return fmt.Errorf("progress %d is behind committed progress %d", completed, t.progress)
	}
	t.progress = completed
	return nil
}

func (t *memTx) Commit(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	m := t.parent
	m.mu.Lock()
	defer m.mu.Unlock()
	for cog, members := range t.staged {
		for _, id := range members {
			p := m.proteins[id]
			p.Cluster = cog
			m.proteins[id] = p
		}
	}
	m.membership = t.staged
	m.progress = t.progress
	m.open = false
	t.done = true
	return nil
}

func (t *memTx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	m := t.parent
	m.mu.Lock()
	m.open = false
	m.mu.Unlock()
	t.done = true
	return nil
}
