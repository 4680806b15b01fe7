package clientstate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carecart/internal/infra/dbx"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

const (
	DefaultTable         = "client_state"
	QueryTimeoutDuration = 5 * time.Second
)

// Repository keeps records in Postgres. The payload column is bytea so the
// stored bytes match the checksum exactly; jsonb would normalize them.
type Repository struct {
	db    dbx.Querier
	table string
}

func NewRepository(q dbx.Querier) *Repository {
	return NewRepositoryWithTable(q, DefaultTable)
}

// NewRepositoryWithTable uses a custom table name, quoted as an identifier.
func NewRepositoryWithTable(q dbx.Querier, table string) *Repository {
	if table == "" {
		table = DefaultTable
	}
	return &Repository{db: q, table: pq.QuoteIdentifier(table)}
}

// Migrate creates the table when it does not exist yet.
func (r *Repository) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    owner_id   TEXT        NOT NULL,
    key        TEXT        NOT NULL,
    version    INT         NOT NULL,
    payload    BYTEA       NOT NULL,
    checksum   TEXT        NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (owner_id, key)
)`, r.table))
	return err
}

func (r *Repository) Load(ctx context.Context, ownerID, key string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rec := Record{OwnerID: ownerID, Key: key}
	var payload []byte
	err := r.db.QueryRow(ctx, fmt.Sprintf(`
SELECT version, payload, checksum, updated_at
FROM %s
WHERE owner_id = $1 AND key = $2`, r.table), ownerID, key).
		Scan(&rec.Version, &payload, &rec.Checksum, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load %s: %w", key, err)
	}
	rec.Payload = payload
	return rec, nil
}

// Save upserts the record. Concurrent writers for the same key overwrite
// each other; the last write wins.
func (r *Repository) Save(ctx context.Context, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, fmt.Sprintf(`
INSERT INTO %s (owner_id, key, version, payload, checksum, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (owner_id, key)
DO UPDATE SET version = EXCLUDED.version,
              payload = EXCLUDED.payload,
              checksum = EXCLUDED.checksum,
              updated_at = EXCLUDED.updated_at`, r.table),
		rec.OwnerID, rec.Key, rec.Version, []byte(rec.Payload), rec.Checksum, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save %s: %w", rec.Key, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, ownerID, key string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND key = $2`, r.table), ownerID, key)
	return err
}
