// Package bbh supplies bidirectional best-hit edges for organism pairs.
package bbh

import (
	"context"
	"errors"
	"fmt"

	"cogs/internal/edgeset"
	"cogs/internal/model"
)

// ErrMissingEdgeData is matched by errors.Is when an organism pair has no
// precomputed hits. It aborts the run.
var ErrMissingEdgeData = errors.New("missing BBH edge data")

// MissingEdgeDataError names the organism pair whose edges are unavailable.
type MissingEdgeDataError struct {
	A, B string
	Err  error
}

func (e *MissingEdgeDataError) Error() string {
	msg := fmt.Sprintf("no BBH edges for organism pair %s/%s", e.A, e.B)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingEdgeDataError) Unwrap() []error { return []error{ErrMissingEdgeData, e.Err} }

// Provider returns the BBH edges spanning two organisms. Edges are stable for
// the run and contain no reversed duplicates.
type Provider interface {
	EdgesBetween(ctx context.Context, a, b model.Organism) ([]edgeset.Pair, error)
}

type orgPair struct{ lo, hi model.OrganismID }

func keyOf(a, b model.OrganismID) orgPair {
	if b < a {
		a, b = b, a
	}
	return orgPair{a, b}
}

// MemoryProvider serves edges registered up front. A pair registered with no
// edges is known-empty; an unregistered pair is missing data.
type MemoryProvider struct {
	edges map[orgPair][]edgeset.Pair
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{edges: make(map[orgPair][]edgeset.Pair)}
}

// Set registers the edges between a and b, replacing earlier ones.
func (m *MemoryProvider) Set(a, b model.OrganismID, pairs ...edgeset.Pair) {
	out := make([]edgeset.Pair, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, edgeset.NewPair(p.A, p.B))
	}
	m.edges[keyOf(a, b)] = out
}

func (m *MemoryProvider) EdgesBetween(ctx context.Context, a, b model.Organism) ([]edgeset.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pairs, ok := m.edges[keyOf(a.ID, b.ID)]
	if !ok {
		return nil, &MissingEdgeDataError{A: a.Name, B: b.Name}
	}
	return append([]edgeset.Pair(nil), pairs...), nil
}
