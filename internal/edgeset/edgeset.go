// Package edgeset is the mutable working set of bidirectional best-hit edges.
//
// A Set stores unordered protein pairs with O(1) membership tests and keeps an
// adjacency index so neighbor lookups and incident-edge removal do not scan the
// whole set.
package edgeset

import (
	"slices"

	"cogs/internal/model"
)

// Pair is an unordered protein pair stored canonically with A < B.
type Pair struct {
	A, B model.ProteinID
}

// NewPair canonicalizes x, y into a Pair.
func NewPair(x, y model.ProteinID) Pair {
	if y < x {
		x, y = y, x
	}
	return Pair{A: x, B: y}
}

// Touches reports whether id is an endpoint of p.
func (p Pair) Touches(id model.ProteinID) bool { return p.A == id || p.B == id }

// Other returns the endpoint opposite id.
func (p Pair) Other(id model.ProteinID) (model.ProteinID, bool) {
	switch id {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	}
	return 0, false
}

func comparePairs(x, y Pair) int {
	if x.A != y.A {
		if x.A < y.A {
			return -1
		}
		return 1
	}
	switch {
	case x.B < y.B:
		return -1
	case x.B > y.B:
		return 1
	}
	return 0
}

// SortPairs orders pairs by (A, B).
func SortPairs(ps []Pair) { slices.SortFunc(ps, comparePairs) }

type Set struct {
	edges map[Pair]struct{}
	adj   map[model.ProteinID]map[model.ProteinID]struct{}
}

func New() *Set {
	return &Set{
		edges: make(map[Pair]struct{}),
		adj:   make(map[model.ProteinID]map[model.ProteinID]struct{}),
	}
}

// Of builds a set from pairs.
func Of(pairs ...Pair) *Set {
	s := New()
	s.AddAll(pairs)
	return s
}

func (s *Set) Len() int { return len(s.edges) }

// Add inserts the edge x-y. Self loops are rejected. It returns true when the
// edge was not already present.
func (s *Set) Add(x, y model.ProteinID) bool {
	if x == y {
		return false
	}
	p := NewPair(x, y)
	if _, ok := s.edges[p]; ok {
		return false
	}
	s.edges[p] = struct{}{}
	s.link(p.A, p.B)
	s.link(p.B, p.A)
	return true
}

// AddAll inserts every pair and returns how many were new.
func (s *Set) AddAll(pairs []Pair) int {
	n := 0
	for _, p := range pairs {
		if s.Add(p.A, p.B) {
			n++
		}
	}
	return n
}

func (s *Set) link(from, to model.ProteinID) {
	nb, ok := s.adj[from]
	if !ok {
		nb = make(map[model.ProteinID]struct{})
		s.adj[from] = nb
	}
	nb[to] = struct{}{}
}

func (s *Set) Has(x, y model.ProteinID) bool {
	_, ok := s.edges[NewPair(x, y)]
	return ok
}

// Degree is the number of working edges incident to id.
func (s *Set) Degree(id model.ProteinID) int { return len(s.adj[id]) }

// Neighbors returns the proteins adjacent to id in ascending order.
func (s *Set) Neighbors(id model.ProteinID) []model.ProteinID {
	nb := s.adj[id]
	out := make([]model.ProteinID, 0, len(nb))
	for n := range nb {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// Remove deletes a single edge.
func (s *Set) Remove(x, y model.ProteinID) bool {
	p := NewPair(x, y)
	if _, ok := s.edges[p]; !ok {
		return false
	}
	delete(s.edges, p)
	s.unlink(p.A, p.B)
	s.unlink(p.B, p.A)
	return true
}

func (s *Set) unlink(from, to model.ProteinID) {
	nb := s.adj[from]
	delete(nb, to)
	if len(nb) == 0 {
		delete(s.adj, from)
	}
}

// RemoveIncident deletes every edge touching any of ids and returns the number
// of edges removed.
func (s *Set) RemoveIncident(ids ...model.ProteinID) int {
	n := 0
	for _, id := range ids {
		for _, nb := range s.Neighbors(id) {
			if s.Remove(id, nb) {
				n++
			}
		}
	}
	return n
}

// Pairs returns every edge sorted by (A, B).
func (s *Set) Pairs() []Pair {
	out := make([]Pair, 0, len(s.edges))
	for p := range s.edges {
		out = append(out, p)
	}
	SortPairs(out)
	return out
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := New()
	for p := range s.edges {
		c.Add(p.A, p.B)
	}
	return c
}

// Equal reports set equality; insertion order is irrelevant.
func (s *Set) Equal(o *Set) bool {
	if s.Len() != o.Len() {
		return false
	}
	for p := range s.edges {
		if _, ok := o.edges[p]; !ok {
			return false
		}
	}
	return true
}
