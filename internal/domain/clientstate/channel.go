package clientstate

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Channel binds one shopper's record key to a Go type. It implements the
// Persist side used by the cart and wishlist stores and the Load side used
// when a shopper is restored.
type Channel[T any] struct {
	store   Store
	ownerID string
	key     string
	logger  *zap.SugaredLogger
}

func NewChannel[T any](store Store, ownerID, key string, logger *zap.SugaredLogger) *Channel[T] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Channel[T]{store: store, ownerID: ownerID, key: key, logger: logger}
}

func (c *Channel[T]) Persist(ctx context.Context, v T) error {
	rec, err := Seal(c.ownerID, c.key, v)
	if err != nil {
		return err
	}
	return c.store.Save(ctx, rec)
}

// Load returns the stored value and whether one was found. An inconsistent
// record is logged, discarded and reported as not found so the caller starts
// from the empty value.
func (c *Channel[T]) Load(ctx context.Context) (T, bool, error) {
	var v T

	rec, err := c.store.Load(ctx, c.ownerID, c.key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}

	if err := Open(rec, &v); err != nil {
		c.logger.Warnw("discarding persisted state", "owner_id", c.ownerID, "key", c.key, "error", err)
		if derr := c.store.Delete(ctx, c.ownerID, c.key); derr != nil {
			c.logger.Errorw("delete inconsistent state failed", "owner_id", c.ownerID, "key", c.key, "error", derr)
		}
		var zero T
		return zero, false, nil
	}
	return v, true, nil
}
