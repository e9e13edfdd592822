// internal/bbh/hittable.go
package bbh

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"cogs/internal/edgeset"
	"cogs/internal/model"
)

// Resolver maps an accession within an organism to its protein id.
type Resolver interface {
	Lookup(org model.OrganismID, accession string) (model.ProteinID, bool)
}

// HitTablePath is where the A-vs-B top-hit table for a query organism lives.
func HitTablePath(dir, query, subject string) string {
	return filepath.Join(dir, query+"__"+subject)
}

// HitTableProvider derives BBH edges from per-ordered-pair hit tables written
// by an external search run ("<dir>/<A>__<B>" and "<dir>/<B>__<A>").
// Derived edges are cached per pair.
type HitTableProvider struct {
	dir     string
	resolve Resolver
	log     *zap.Logger
	cache   map[orgPair][]edgeset.Pair
}

func NewHitTableProvider(dir string, resolve Resolver, log *zap.Logger) *HitTableProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &HitTableProvider{
		dir:     dir,
		resolve: resolve,
		log:     log,
		cache:   make(map[orgPair][]edgeset.Pair),
	}
}

// AccessionPairs returns the mutual best hits between a and b by accession.
func (p *HitTableProvider) AccessionPairs(a, b model.Organism) ([][2]string, error) {
	ab, err := p.readTable(a, b)
	if err != nil {
		return nil, err
	}
	ba, err := p.readTable(b, a)
	if err != nil {
		return nil, err
	}
	return Mutual(ab, ba), nil
}

func (p *HitTableProvider) readTable(q, s model.Organism) (map[string]string, error) {
	path := HitTablePath(p.dir, q.Name, s.Name)
	fh, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &MissingEdgeDataError{A: q.Name, B: s.Name, Err: err}
	}
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	hits, err := TopHits(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return hits, nil
}

func (p *HitTableProvider) EdgesBetween(ctx context.Context, a, b model.Organism) ([]edgeset.Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	k := keyOf(a.ID, b.ID)
	if pairs, ok := p.cache[k]; ok {
		return append([]edgeset.Pair(nil), pairs...), nil
	}
	acc, err := p.AccessionPairs(a, b)
	if err != nil {
		return nil, err
	}
	pairs := make([]edgeset.Pair, 0, len(acc))
	unresolved := 0
	for _, ap := range acc {
		x, okA := p.resolve.Lookup(a.ID, ap[0])
		y, okB := p.resolve.Lookup(b.ID, ap[1])
		if !okA || !okB {
			unresolved++
			continue
		}
		pairs = append(pairs, edgeset.NewPair(x, y))
	}
	if unresolved > 0 {
		p.log.Warn("BBH pairs reference unknown accessions",
			zap.String("organism_a", a.Name),
			zap.String("organism_b", b.Name),
			zap.Int("skipped", unresolved))
	}
	edgeset.SortPairs(pairs)
	p.cache[k] = pairs
	return append([]edgeset.Pair(nil), pairs...), nil
}
