package storage

import (
	"context"
	"log/slog"

	"github.com/ShadowCodeSoftware/E-sante/internal/observability/metrics"
)

// Collection reads and writes a whole list of T stored under one key
type Collection[T any] struct {
	store *Store
	key   string
}

// NewCollection binds a list of T to key
func NewCollection[T any](store *Store, key string) *Collection[T] {
	return &Collection[T]{store: store, key: key}
}

// Key returns the storage key of the collection
func (c *Collection[T]) Key() string {
	return c.key
}

// Store returns the store the collection lives in
func (c *Collection[T]) Store() *Store {
	return c.store
}

// Load returns the stored list. The result is never nil: an absent key
// yields an empty list, and so does a failure, together with the error.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	var items []T
	found, err := c.store.Get(ctx, c.key, &items)
	if err != nil {
		return []T{}, err
	}
	if !found || items == nil {
		return []T{}, nil
	}
	metrics.SetCollectionSize(c.key, len(items))
	return items, nil
}

// Save replaces the stored list with items
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	if err := c.store.Set(ctx, c.key, items); err != nil {
		return err
	}
	c.store.logger.Debug("collection saved",
		slog.String("collection", c.key),
		slog.Int("count", len(items)),
	)
	metrics.SetCollectionSize(c.key, len(items))
	return nil
}
