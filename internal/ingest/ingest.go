// Package ingest loads organisms and their proteins into a store and assigns
// protein ids.
package ingest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"cogs/internal/fasta"
	"cogs/internal/model"
	"cogs/internal/store"
)

// Catalog indexes the ingested proteins by organism and accession.
type Catalog struct {
	orgs  []model.Organism
	index map[model.OrganismID]map[string]model.ProteinID
	count int
}

func (c *Catalog) Organisms() []model.Organism { return c.orgs }

// Proteins returns the number of ingested proteins.
func (c *Catalog) Proteins() int { return c.count }

// Lookup resolves an accession within org.
func (c *Catalog) Lookup(org model.OrganismID, accession string) (model.ProteinID, bool) {
	id, ok := c.index[org][accession]
	return id, ok
}

// Ingester reads each organism's FASTA in order. Protein ids come from one
// running counter starting at 1, so they follow organism order and then
// record order.
type Ingester struct {
	store store.Store
	log   *zap.Logger
}

func New(s store.Store, log *zap.Logger) *Ingester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ingester{store: s, log: log}
}

// Load stores the organisms (ids 1..n in the given order) and their proteins.
// Malformed records and repeated accessions are skipped with a warning.
func (in *Ingester) Load(ctx context.Context, srcs []Source) (*Catalog, error) {
	if len(srcs) == 0 {
		return nil, errors.New("no organisms to ingest")
	}
	existing, err := in.store.Organisms(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return in.reuse(ctx, existing, srcs)
	}

	cat := &Catalog{index: make(map[model.OrganismID]map[string]model.ProteinID)}
	seen := make(map[string]struct{}, len(srcs))
	for i, src := range srcs {
		if _, dup := seen[src.Name]; dup {
			return nil, fmt.Errorf("organism %q listed twice", src.Name)
		}
		seen[src.Name] = struct{}{}
		cat.orgs = append(cat.orgs, model.Organism{ID: model.OrganismID(i + 1), Name: src.Name})
	}
	if err := in.store.AddOrganisms(ctx, cat.orgs); err != nil {
		return nil, fmt.Errorf("store organisms: %w", err)
	}

	next := model.ProteinID(1)
	for i, src := range srcs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		org := cat.orgs[i]
		log := in.log.With(zap.String("organism", org.Name), zap.String("path", src.Path))
		byAcc := make(map[string]model.ProteinID)
		var prots []model.Protein

		emit := func(r fasta.Record) error {
			if _, dup := byAcc[r.ID]; dup {
				log.Warn("duplicate accession skipped", zap.String("accession", r.ID))
				return nil
			}
			byAcc[r.ID] = next
			prots = append(prots, model.Protein{
				ID:       next,
				Organism: org.ID,
				Name:     r.ID,
				Sequence: string(r.Seq),
			})
			next++
			return nil
		}
		warn := func(err error) { log.Warn("sequence record skipped", zap.Error(err)) }
		if err := fasta.ScanFile(src.Path, emit, warn); err != nil {
			return nil, fmt.Errorf("organism %s: %w", org.Name, err)
		}
		if len(prots) == 0 {
			log.Warn("organism has no proteins")
		}
		if err := in.store.AddProteins(ctx, prots); err != nil {
			return nil, fmt.Errorf("store proteins of %s: %w", org.Name, err)
		}
		cat.index[org.ID] = byAcc
		cat.count += len(prots)
		log.Debug("organism ingested", zap.Int("proteins", len(prots)))
	}
	in.log.Info("ingestion complete",
		zap.Int("organisms", len(cat.orgs)),
		zap.Int("proteins", cat.count))
	return cat, nil
}

// reuse indexes a store that was filled by an earlier run. The stored
// organisms must match srcs name for name, in order.
func (in *Ingester) reuse(ctx context.Context, stored []model.Organism, srcs []Source) (*Catalog, error) {
	if len(stored) != len(srcs) {
		return nil, fmt.Errorf("store holds %d organisms, run lists %d", len(stored), len(srcs))
	}
	cat := &Catalog{orgs: stored, index: make(map[model.OrganismID]map[string]model.ProteinID)}
	for i, org := range stored {
		if org.Name != srcs[i].Name || org.ID != model.OrganismID(i+1) {
			return nil, fmt.Errorf("stored organism %d is %q, run lists %q", i+1, org.Name, srcs[i].Name)
		}
		ids, err := in.store.OrganismProteins(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		prots, err := in.store.Proteins(ctx, ids)
		if err != nil {
			return nil, err
		}
		byAcc := make(map[string]model.ProteinID, len(prots))
		for _, p := range prots {
			byAcc[p.Name] = p.ID
		}
		cat.index[org.ID] = byAcc
		cat.count += len(prots)
	}
	in.log.Info("reusing stored organisms",
		zap.Int("organisms", len(cat.orgs)),
		zap.Int("proteins", cat.count))
	return cat, nil
}
