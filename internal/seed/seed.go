// Package seed writes the demo dataset into an empty store.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

// Result reports what a run did
type Result struct {
	Seeded bool
	Counts map[string]int
}

// Initializer seeds the store once, gated on the absence of the users key
type Initializer struct {
	store  *storage.Store
	hasher auth.PasswordHasher
	broker *events.Broker
	logger *slog.Logger
	now    func() time.Time
}

// Option customizes an Initializer
type Option func(*Initializer)

// WithClock sets the time the dataset is built from
func WithClock(now func() time.Time) Option {
	return func(i *Initializer) {
		i.now = now
	}
}

// WithBroker announces each seeded collection on broker
func WithBroker(b *events.Broker) Option {
	return func(i *Initializer) {
		i.broker = b
	}
}

// NewInitializer creates a seed initializer
func NewInitializer(store *storage.Store, hasher auth.PasswordHasher, logger *slog.Logger, opts ...Option) *Initializer {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Initializer{
		store:  store,
		hasher: hasher,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run writes the default dataset when the users key is absent and does
// nothing otherwise. Users are written last so an interrupted run is
// retried on the next start.
//
// The presence check and the writes are not atomic across processes:
// two first runs against a shared backend may both write.
func (i *Initializer) Run(ctx context.Context) (Result, error) {
	unlock := i.store.Lock(domain.KeyUsers)
	defer unlock()

	seeded, err := i.store.Has(ctx, domain.KeyUsers)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check seed state: %w", err)
	}
	if seeded {
		i.logger.Debug("store already seeded")
		return Result{Seeded: false}, nil
	}

	ds, err := DefaultDataset(i.now(), i.hasher)
	if err != nil {
		return Result{}, err
	}

	res := Result{Seeded: true, Counts: map[string]int{}}
	steps := []struct {
		key  string
		save func() error
		n    int
	}{
		{domain.KeyPatients, func() error { return save(ctx, i.store, domain.KeyPatients, ds.Patients) }, len(ds.Patients)},
		{domain.KeyAppointments, func() error { return save(ctx, i.store, domain.KeyAppointments, ds.Appointments) }, len(ds.Appointments)},
		{domain.KeyTreatments, func() error { return save(ctx, i.store, domain.KeyTreatments, ds.Treatments) }, len(ds.Treatments)},
		{domain.KeyMedicalRecords, func() error { return save(ctx, i.store, domain.KeyMedicalRecords, ds.MedicalRecords) }, len(ds.MedicalRecords)},
		{domain.KeyUsers, func() error { return save(ctx, i.store, domain.KeyUsers, ds.Users) }, len(ds.Users)},
	}
	for _, step := range steps {
		if err := step.save(); err != nil {
			i.logger.Error("failed to seed collection",
				slog.String("collection", step.key),
				slog.String("error", err.Error()),
			)
			return Result{}, fmt.Errorf("failed to seed %s: %w", step.key, err)
		}
		res.Counts[step.key] = step.n
		i.broker.Publish(events.Change{Collection: step.key, Op: events.OpSeed})
	}

	i.logger.Info("store seeded with default dataset",
		slog.Int("users", res.Counts[domain.KeyUsers]),
		slog.Int("patients", res.Counts[domain.KeyPatients]),
		slog.Int("appointments", res.Counts[domain.KeyAppointments]),
		slog.Int("treatments", res.Counts[domain.KeyTreatments]),
		slog.Int("medical_records", res.Counts[domain.KeyMedicalRecords]),
	)
	return res, nil
}

func save[T any](ctx context.Context, store *storage.Store, key string, items []T) error {
	return storage.NewCollection[T](store, key).Save(ctx, items)
}
