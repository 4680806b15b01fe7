package storage

import (
	"context"
	"fmt"

	"carecart/internal/domain/clientstate"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Container struct {
	pool        *pgxpool.Pool
	table       string
	ClientState clientstate.Store
}

// NewContainer wires the Postgres repositories. With a nil pool the
// container falls back to in-memory state and WithTx is unavailable.
func NewContainer(db *pgxpool.Pool, table string) *Container {
	if db == nil {
		return &Container{ClientState: clientstate.NewMemoryStore()}
	}
	return &Container{
		pool:        db,
		table:       table,
		ClientState: clientstate.NewRepositoryWithTable(db, table),
	}
}

// Migrate prepares the backing tables. No-op for the in-memory store.
func (c *Container) Migrate(ctx context.Context) error {
	repo, ok := c.ClientState.(*clientstate.Repository)
	if !ok {
		return nil
	}
	return repo.Migrate(ctx)
}

// Persistent reports whether state is backed by Postgres.
func (c *Container) Persistent() bool {
	return c.pool != nil
}

func (c *Container) Ping(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Ping(ctx)
}

// Tx is a tx-scoped set of repositories.
type Tx struct {
	ClientState clientstate.Store
}

// WithTx runs fn atomically, for changes spanning several records of one
// shopper such as erasing all of their state.
func (c *Container) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	if c.pool == nil {
		return fmt.Errorf("storage container has no database pool")
	}

	tx, err := c.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx) // no-op after commit
	}()

	if err := fn(&Tx{ClientState: clientstate.NewRepositoryWithTable(tx, c.table)}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
