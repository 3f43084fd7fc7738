package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inamate/orbitcam/internal/snapshot"
	"github.com/inamate/orbitcam/internal/typeid"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS snapshots_owner_idx ON snapshots (owner_id, created_at DESC);
`

// Postgres stores records in a snapshots table.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL and creates the schema.
func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Create(ctx context.Context, name, ownerID string, snap *snapshot.Snapshot) (*Record, error) {
	doc, err := snapshot.Encode(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	rec := Record{ID: typeid.NewSnapshotID(), Name: name, OwnerID: ownerID, Snapshot: snap.Clone()}
	err = p.pool.QueryRow(ctx,
		`INSERT INTO snapshots (id, name, owner_id, document) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		rec.ID, name, ownerID, doc,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	return &rec, nil
}

func (p *Postgres) Get(ctx context.Context, id, ownerID string) (*Record, error) {
	var rec Record
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id, name, owner_id, document, created_at FROM snapshots WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.Name, &rec.OwnerID, &doc, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if rec.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	if rec.Snapshot, err = snapshot.Decode(doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &rec, nil
}

func (p *Postgres) List(ctx context.Context, ownerID string) ([]Record, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, owner_id, created_at FROM snapshots WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Record, error) {
		var rec Record
		var created time.Time
		err := row.Scan(&rec.ID, &rec.Name, &rec.OwnerID, &created)
		rec.CreatedAt = created.UTC()
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return records, nil
}

func (p *Postgres) Delete(ctx context.Context, id, ownerID string) error {
	var owner string
	err := p.pool.QueryRow(ctx, `SELECT owner_id FROM snapshots WHERE id = $1`, id).Scan(&owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get snapshot: %w", err)
	}
	if owner != ownerID {
		return ErrForbidden
	}

	if _, err := p.pool.Exec(ctx, `DELETE FROM snapshots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (p *Postgres) Close() { p.pool.Close() }
