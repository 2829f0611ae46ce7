// Package storage maps string keys to JSON values on top of a durable
// key-value backend. It is the only layer that talks to the backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/metrics"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/tracing"
	"github.com/ShadowCodeSoftware/E-sante/internal/reliability/circuitbreaker"
	"github.com/ShadowCodeSoftware/E-sante/internal/reliability/retry"
)

// Store serializes values to JSON and reads them back. Backend failures
// are retried, then reported as domain.ErrStorageUnavailable.
type Store struct {
	backend Backend
	logger  *slog.Logger
	retry   *retry.Config
	breaker *circuitbreaker.CircuitBreaker

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option customizes a Store
type Option func(*Store)

// WithRetry replaces the default retry policy for backend calls
func WithRetry(cfg *retry.Config) Option {
	return func(s *Store) {
		s.retry = cfg
	}
}

// WithBreaker replaces the default circuit breaker
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(s *Store) {
		s.breaker = cb
	}
}

// New creates a store over backend
func New(backend Backend, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		backend: backend,
		logger:  logger,
		retry:   retry.DefaultConfig(),
		breaker: circuitbreaker.New(5, 1, 10*time.Second),
		locks:   map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.retry.Retryable == nil {
		s.retry.Retryable = retryable
	}
	s.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		metrics.ObserveBreakerTransition(to.String())
		s.logger.Warn("store circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return s
}

// Get decodes the value stored under key into dst.
// found is false, with a nil error, when the key was never written.
// A value that does not decode into dst yields domain.ErrCorruptData.
func (s *Store) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.read(ctx, key)
	if err != nil {
		s.logger.Error("failed to read key",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, err
	}
	if !found {
		s.logger.Debug("key not found", slog.String("key", key))
		return false, nil
	}

	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.logger.Error("failed to decode stored value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("failed to decode %q: %w: %w", key, domain.ErrCorruptData, err)
	}
	return true, nil
}

// Set serializes value and writes it under key, overwriting any previous value
func (s *Store) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	_, _, err = s.call(ctx, "set", key, func(ctx context.Context) (string, bool, error) {
		return "", true, s.backend.Write(ctx, key, string(data))
	})
	if err != nil {
		s.logger.Error("failed to write key",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// Has reports whether key holds a value
func (s *Store) Has(ctx context.Context, key string) (bool, error) {
	_, found, err := s.read(ctx, key)
	return found, err
}

// Remove deletes key. Removing a missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	_, _, err := s.call(ctx, "delete", key, func(ctx context.Context) (string, bool, error) {
		return "", true, s.backend.Delete(ctx, key)
	})
	return err
}

// Lock serializes read-modify-write cycles on key within this process.
// Writers in other processes sharing the backend are not coordinated.
func (s *Store) Lock(key string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[key] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// Ping checks that the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// Close releases the backend
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) read(ctx context.Context, key string) (string, bool, error) {
	return s.call(ctx, "get", key, func(ctx context.Context) (string, bool, error) {
		return s.backend.Read(ctx, key)
	})
}

func retryable(err error) bool {
	return !errors.Is(err, circuitbreaker.ErrOpen) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}

type readResult struct {
	value string
	found bool
}

func (s *Store) call(ctx context.Context, op, key string, fn func(ctx context.Context) (string, bool, error)) (string, bool, error) {
	ctx, span := tracing.Tracer().Start(ctx, "store."+op,
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer span.End()

	start := time.Now()
	res, err := retry.Do(ctx, s.retry, s.logger, "store."+op, func(ctx context.Context) (readResult, error) {
		var out readResult
		err := s.breaker.Execute(func() error {
			var err error
			out.value, out.found, err = fn(ctx)
			return err
		})
		return out, err
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.ObserveStoreOperation(op, "error", time.Since(start))
		return "", false, fmt.Errorf("failed to %s %q: %w: %w", op, key, domain.ErrStorageUnavailable, err)
	}

	span.SetAttributes(attribute.Bool("store.found", res.found))
	metrics.ObserveStoreOperation(op, "ok", time.Since(start))
	return res.value, res.found, nil
}
