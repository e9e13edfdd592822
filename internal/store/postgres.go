// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"cogs/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS organism (
	organism_id INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS cog (
	cog_id INTEGER PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS protein (
	protein_id BIGINT PRIMARY KEY,
	name       TEXT NOT NULL,
	sequence   TEXT NOT NULL,
	organism   INTEGER NOT NULL REFERENCES organism (organism_id),
	cog        INTEGER REFERENCES cog (cog_id)
);
CREATE INDEX IF NOT EXISTS protein_cog_idx ON protein (cog);
CREATE INDEX IF NOT EXISTS protein_organism_idx ON protein (organism);
CREATE TABLE IF NOT EXISTS progress (
	singleton BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
	completed INTEGER NOT NULL
);
`

const dropSQL = `DROP TABLE IF EXISTS progress; DROP TABLE IF EXISTS protein; DROP TABLE IF EXISTS cog; DROP TABLE IF EXISTS organism;`

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txConn is the part of pgx.Tx a round uses.
type txConn interface {
	querier
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Postgres stores organisms, proteins and COGs in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and pings the database at url.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Migrate creates the schema. With reset, existing tables are dropped first.
func (p *Postgres) Migrate(ctx context.Context, reset bool) error {
	if reset {
		if _, err := p.pool.Exec(ctx, dropSQL); err != nil {
			return fmt.Errorf("drop schema: %w", err)
		}
	}
	if _, err := p.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) AddOrganisms(ctx context.Context, orgs []model.Organism) error {
	b := &pgx.Batch{}
	for _, o := range orgs {
		b.Queue(`INSERT INTO organism (organism_id, name) VALUES ($1, $2)`, int(o.ID), o.Name)
	}
	br := p.pool.SendBatch(ctx, b)
	for _, o := range orgs {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return &WriteFailureError{Op: fmt.Sprintf("insert organism %q", o.Name), Err: err}
		}
	}
	return br.Close()
}

func (p *Postgres) AddProteins(ctx context.Context, prots []model.Protein) error {
	rows := make([][]any, 0, len(prots))
	for _, pr := range prots {
		rows = append(rows, []any{int64(pr.ID), pr.Name, pr.Sequence, int(pr.Organism)})
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"protein"},
		[]string{"protein_id", "name", "sequence", "organism"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return &WriteFailureError{Op: "copy proteins", Err: err}
	}
	return nil
}

func (p *Postgres) Organisms(ctx context.Context) ([]model.Organism, error) {
	rows, err := p.pool.Query(ctx, `SELECT organism_id, name FROM organism ORDER BY organism_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Organism
	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out = append(out, model.Organism{ID: model.OrganismID(id), Name: name})
	}
	return out, rows.Err()
}

func (p *Postgres) OrganismProteins(ctx context.Context, org model.OrganismID) ([]model.ProteinID, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT protein_id FROM protein WHERE organism = $1 ORDER BY protein_id`, int(org))
	if err != nil {
		return nil, err
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, err
	}
	out := make([]model.ProteinID, len(ids))
	for i, id := range ids {
		out[i] = model.ProteinID(id)
	}
	return out, nil
}

func (p *Postgres) Proteins(ctx context.Context, ids []model.ProteinID) ([]model.Protein, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT protein_id, organism, name, sequence, COALESCE(cog, 0)
		FROM protein WHERE protein_id = ANY($1) ORDER BY protein_id`, int64s(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Protein, 0, len(ids))
	for rows.Next() {
		var (
			id, cog int64
			org     int
			pr      model.Protein
		)
		if err := rows.Scan(&id, &org, &pr.Name, &pr.Sequence, &cog); err != nil {
			return nil, err
		}
		pr.ID, pr.Organism, pr.Cluster = model.ProteinID(id), model.OrganismID(org), model.ClusterID(cog)
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) != len(dedupe(ids)) {
		return nil, fmt.Errorf("%w: requested %d, found %d", ErrUnknownProtein, len(ids), len(out))
	}
	return out, nil
}

func (p *Postgres) ClusterMembership(ctx context.Context) (model.Membership, error) {
	return membership(ctx, p.pool)
}

func (p *Postgres) Progress(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx, `SELECT completed FROM progress`).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return n, err
}

func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, &WriteFailureError{Op: "begin", Err: err}
	}
	return &pgTx{tx: tx}, nil
}

// pgTx reports every failed statement, reads included, as a write failure so
// the round is retried from its organism boundary.
type pgTx struct {
	tx txConn
}

func (t *pgTx) ClusterMembership(ctx context.Context) (model.Membership, error) {
	m, err := membership(ctx, t.tx)
	if err != nil {
		return nil, &WriteFailureError{Op: "read membership", Err: err}
	}
	return m, nil
}

func (t *pgTx) NextClusterID(ctx context.Context) (model.ClusterID, error) {
	var next int64
	if err := t.tx.QueryRow(ctx, `SELECT COALESCE(MAX(cog_id), 0) + 1 FROM cog`).Scan(&next); err != nil {
		return 0, &WriteFailureError{Op: "next cluster id", Err: err}
	}
	return model.ClusterID(next), nil
}

func (t *pgTx) SetProgress(ctx context.Context, completed int) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO progress (singleton, completed) VALUES (TRUE, $1)
		ON CONFLICT (singleton) DO UPDATE SET completed = EXCLUDED.completed`, completed)
	if err != nil {
		return &WriteFailureError{Op: "record progress", Err: err}
	}
	return nil
}

func (t *pgTx) Assign(ctx context.Context, id model.ProteinID, cog model.ClusterID) error {
	return t.AssignMany(ctx, []model.ProteinID{id}, cog)
}

func (t *pgTx) AssignMany(ctx context.Context, ids []model.ProteinID, cog model.ClusterID) error {
	if cog == model.NoCluster {
		return fmt.Errorf("assign to cluster id %d", cog)
	}
	want := dedupe(ids)
	if len(want) != len(ids) {
		return &DuplicateAssignmentError{Protein: firstRepeat(ids), Existing: cog, Target: cog}
	}
	var (
		clustered int64
		existing  int64
	)
	err := t.tx.QueryRow(ctx, `
		SELECT protein_id, cog FROM protein
		WHERE protein_id = ANY($1) AND cog IS NOT NULL
		ORDER BY protein_id LIMIT 1`, int64s(ids)).Scan(&clustered, &existing)
	switch {
	case err == nil:
		return &DuplicateAssignmentError{
			Protein: model.ProteinID(clustered), Existing: model.ClusterID(existing), Target: cog,
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return &WriteFailureError{Op: "check assignments", Err: err}
	}

	if _, err := t.tx.Exec(ctx, `INSERT INTO cog (cog_id) VALUES ($1) ON CONFLICT DO NOTHING`, int64(cog)); err != nil {
		return &WriteFailureError{Op: "insert cog", Err: err}
	}
	tag, err := t.tx.Exec(ctx,
		`UPDATE protein SET cog = $1 WHERE protein_id = ANY($2) AND cog IS NULL`, int64(cog), int64s(ids))
	if err != nil {
		return &WriteFailureError{Op: "assign", Err: err}
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("%w: assigned %d of %d proteins to cluster %d",
			ErrUnknownProtein, tag.RowsAffected(), len(ids), cog)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return &WriteFailureError{Op: "commit", Err: err}
	}
	return nil
}

func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

func membership(ctx context.Context, q querier) (model.Membership, error) {
	rows, err := q.Query(ctx,
		`SELECT cog, protein_id FROM protein WHERE cog IS NOT NULL ORDER BY cog, protein_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(model.Membership)
	for rows.Next() {
		var cog, id int64
		if err := rows.Scan(&cog, &id); err != nil {
			return nil, err
		}
		out[model.ClusterID(cog)] = append(out[model.ClusterID(cog)], model.ProteinID(id))
	}
	return out, rows.Err()
}

func int64s(ids []model.ProteinID) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func dedupe(ids []model.ProteinID) map[model.ProteinID]struct{} {
	out := make(map[model.ProteinID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func firstRepeat(ids []model.ProteinID) model.ProteinID {
	seen := make(map[model.ProteinID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return 0
}
