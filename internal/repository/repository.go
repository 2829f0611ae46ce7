// Package repository exposes typed list/add/update access to the entity
// collections kept in the store.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/metrics"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

// Repository implements domain.Repository for one collection of T.
// It assigns ids and timestamps but stores entities exactly as given otherwise.
type Repository[T any, P domain.EntityPtr[T]] struct {
	coll   *storage.Collection[T]
	store  *storage.Store
	broker *events.Broker
	logger *slog.Logger
	now    func() time.Time
}

// New creates a repository over the collection stored under key.
// broker may be nil.
func New[T any, P domain.EntityPtr[T]](store *storage.Store, key string, broker *events.Broker, logger *slog.Logger) *Repository[T, P] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository[T, P]{
		coll:   storage.NewCollection[T](store, key),
		store:  store,
		broker: broker,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for ids and createdAt
func (r *Repository[T, P]) SetClock(now func() time.Time) {
	r.now = now
}

// Collection returns the collection key
func (r *Repository[T, P]) Collection() string {
	return r.coll.Key()
}

// List returns the stored entities in insertion order. On a storage failure
// the list is empty and the error says why.
func (r *Repository[T, P]) List(ctx context.Context) ([]T, error) {
	items, err := r.coll.Load(ctx)
	if err != nil {
		return items, fmt.Errorf("failed to list %s: %w", r.coll.Key(), err)
	}
	return items, nil
}

// Get returns the entity with id
func (r *Repository[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := r.List(ctx)
	if err != nil {
		return zero, err
	}
	if i := indexOf[T, P](items, id); i >= 0 {
		return items[i], nil
	}
	return zero, r.notFound(id)
}

// Add assigns a fresh id and createdAt to item, appends it and writes the
// collection back.
func (r *Repository[T, P]) Add(ctx context.Context, item T) (T, error) {
	var zero T
	unlock := r.store.Lock(r.coll.Key())
	defer unlock()

	items, err := r.coll.Load(ctx)
	if err != nil {
		r.observe("add", err)
		return zero, fmt.Errorf("failed to add to %s: %w", r.coll.Key(), err)
	}

	now := r.now()
	p := P(&item)
	p.SetID(nextID[T, P](items, now))
	p.SetCreatedAt(now)

	items = append(items, item)
	if err := r.coll.Save(ctx, items); err != nil {
		r.observe("add", err)
		return zero, fmt.Errorf("failed to add to %s: %w", r.coll.Key(), err)
	}

	r.logger.Info("entity added",
		slog.String("collection", r.coll.Key()),
		slog.String("id", p.GetID()),
	)
	r.observe("add", nil)
	r.publish(events.OpAdd, p.GetID())
	return item, nil
}

// Update merges patch into the entity with id. Fields present in patch
// overwrite, absent ones are kept; id and createdAt never change.
// An unknown id yields domain.ErrNotFound and nothing is written.
func (r *Repository[T, P]) Update(ctx context.Context, id string, patch domain.Patch) (T, error) {
	return r.Modify(ctx, id, func(T) (domain.Patch, error) {
		return patch, nil
	})
}

// Modify calls fn with the stored entity and merges the patch it returns,
// all while holding the collection lock, so fn may check the current state
// without racing other writers in this process. An error from fn aborts
// the update and is returned as is.
func (r *Repository[T, P]) Modify(ctx context.Context, id string, fn func(current T) (domain.Patch, error)) (T, error) {
	var zero T
	unlock := r.store.Lock(r.coll.Key())
	defer unlock()

	items, err := r.coll.Load(ctx)
	if err != nil {
		r.observe("update", err)
		return zero, fmt.Errorf("failed to update %s: %w", r.coll.Key(), err)
	}

	i := indexOf[T, P](items, id)
	if i < 0 {
		r.observe("update", domain.ErrNotFound)
		r.logger.Warn("update target not found",
			slog.String("collection", r.coll.Key()),
			slog.String("id", id),
		)
		return zero, r.notFound(id)
	}

	patch, err := fn(items[i])
	if err != nil {
		r.observe("update", err)
		return zero, err
	}

	merged, err := merge[T, P](items[i], patch)
	if err != nil {
		r.observe("update", err)
		return zero, err
	}

	items[i] = merged
	if err := r.coll.Save(ctx, items); err != nil {
		r.observe("update", err)
		return zero, fmt.Errorf("failed to update %s: %w", r.coll.Key(), err)
	}

	r.logger.Info("entity updated",
		slog.String("collection", r.coll.Key()),
		slog.String("id", id),
	)
	r.observe("update", nil)
	r.publish(events.OpUpdate, id)
	return merged, nil
}

// Replace overwrites the stored entity having item's id. The stored
// createdAt is kept.
func (r *Repository[T, P]) Replace(ctx context.Context, item T) error {
	unlock := r.store.Lock(r.coll.Key())
	defer unlock()

	items, err := r.coll.Load(ctx)
	if err != nil {
		r.observe("replace", err)
		return fmt.Errorf("failed to replace in %s: %w", r.coll.Key(), err)
	}

	p := P(&item)
	i := indexOf[T, P](items, p.GetID())
	if i < 0 {
		r.observe("replace", domain.ErrNotFound)
		return r.notFound(p.GetID())
	}

	p.SetCreatedAt(P(&items[i]).GetCreatedAt())
	items[i] = item
	if err := r.coll.Save(ctx, items); err != nil {
		r.observe("replace", err)
		return fmt.Errorf("failed to replace in %s: %w", r.coll.Key(), err)
	}

	r.observe("replace", nil)
	r.publish(events.OpReplace, p.GetID())
	return nil
}

func (r *Repository[T, P]) notFound(id string) error {
	return fmt.Errorf("%s %q: %w", r.coll.Key(), id, domain.ErrNotFound)
}

func (r *Repository[T, P]) observe(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ObserveMutation(r.coll.Key(), op, result)
}

func (r *Repository[T, P]) publish(op events.Op, id string) {
	r.broker.Publish(events.Change{
		Collection: r.coll.Key(),
		Op:         op,
		ID:         id,
		At:         r.now(),
	})
}

func indexOf[T any, P domain.EntityPtr[T]](items []T, id string) int {
	for i := range items {
		if P(&items[i]).GetID() == id {
			return i
		}
	}
	return -1
}

// nextID derives the id from the wall clock in milliseconds and moves
// forward until it is free in items.
func nextID[T any, P domain.EntityPtr[T]](items []T, now time.Time) string {
	taken := make(map[string]struct{}, len(items))
	for i := range items {
		taken[P(&items[i]).GetID()] = struct{}{}
	}

	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		n++
	}
}

// merge applies patch to a JSON view of current and decodes the result.
// Patch keys must match a JSON field name of T exactly, case included.
func merge[T any, P domain.EntityPtr[T]](current T, patch domain.Patch) (T, error) {
	var zero T

	data, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to encode entity: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return zero, fmt.Errorf("failed to decode entity fields: %w", err)
	}

	known := jsonFields(reflect.TypeFor[T]())
	for k, v := range patch {
		if _, ok := known[k]; !ok {
			return zero, domain.Invalid(k, "is not a known field")
		}
		if k == "id" || k == "createdAt" {
			continue
		}
		fields[k] = v
	}

	data, err = json.Marshal(fields)
	if err != nil {
		return zero, fmt.Errorf("invalid patch: %w: %w", domain.ErrValidation, err)
	}
	var merged T
	if err := json.Unmarshal(data, &merged); err != nil {
		return zero, fmt.Errorf("invalid patch: %w: %w", domain.ErrValidation, err)
	}

	cur := P(&current)
	P(&merged).SetID(cur.GetID())
	P(&merged).SetCreatedAt(cur.GetCreatedAt())
	return merged, nil
}

var fieldCache sync.Map // reflect.Type -> map[string]struct{}

// jsonFields returns the JSON field names encoding/json uses for struct type t,
// including those promoted from untagged embedded structs.
func jsonFields(t reflect.Type) map[string]struct{} {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(map[string]struct{})
	}
	names := map[string]struct{}{}
	collectFields(t, names)
	fieldCache.Store(t, names)
	return names
}

func collectFields(t reflect.Type, names map[string]struct{}) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, names)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[name] = struct{}{}
	}
}
