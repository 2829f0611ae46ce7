// Package app wires the store, repositories and services shared by the
// server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/handler"
	"github.com/ShadowCodeSoftware/E-sante/internal/infrastructure/redis"
	"github.com/ShadowCodeSoftware/E-sante/internal/reliability/retry"
	"github.com/ShadowCodeSoftware/E-sante/internal/repository"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
	"github.com/ShadowCodeSoftware/E-sante/internal/seed"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
	"github.com/ShadowCodeSoftware/E-sante/pkg/config"
	"github.com/ShadowCodeSoftware/E-sante/pkg/database"
)

// App holds the long-lived components built from a Config
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Store    *storage.Store
	Broker   *events.Broker
	Repos    *repository.Set
	Hasher   auth.PasswordHasher
	Tokens   *auth.TokenManager
	Services handler.Services
}

// OpenBackend connects the backend selected by cfg.StoreBackend
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Warn("using in-memory store, data is lost on exit")
		return storage.NewMemoryBackend(), nil

	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL, cfg.StoreKeyPrefix, logger)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisBackend(client), nil

	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, database.DefaultConfig(cfg.DatabaseURL), logger)
		if err != nil {
			return nil, err
		}
		backend := storage.NewPostgresBackend(pool)
		if err := backend.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return backend, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

// New opens the configured backend and builds every service on top of it
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreBackend, err)
	}
	return Build(cfg, backend, logger), nil
}

// Build assembles the components over an already open backend
func Build(cfg *config.Config, backend storage.Backend, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	retryCfg := retry.DefaultConfig()
	if cfg.StoreMaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.StoreMaxRetries
	}
	store := storage.New(backend, logger, storage.WithRetry(retryCfg))
	broker := events.NewBroker(64)
	repos := repository.NewSet(store, broker, logger)
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, "esante")
	directory := service.NewPatientDirectory(repos.Patients)

	return &App{
		Config: cfg,
		Logger: logger,
		Store:  store,
		Broker: broker,
		Repos:  repos,
		Hasher: hasher,
		Tokens: tokens,
		Services: handler.Services{
			Auth:         service.NewAuthService(repos.Users, hasher, tokens, service.NewSessionStore(store), cfg.SessionTTL(), logger),
			Patients:     service.NewPatientService(repos.Patients, logger),
			Appointments: service.NewAppointmentService(repos.Appointments, directory, logger),
			Treatments:   service.NewTreatmentService(repos.Treatments, directory, logger),
			Records:      service.NewMedicalRecordService(repos.MedicalRecords, directory, logger),
			Dashboard:    service.NewDashboardService(repos.Patients, repos.Appointments, repos.Treatments, cfg.DashboardTTL(), logger),
		},
	}
}

// Seed writes the demonstration dataset when the store is empty
func (a *App) Seed(ctx context.Context) (seed.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return seed.NewInitializer(a.Store, a.Hasher, a.Logger, seed.WithBroker(a.Broker)).Run(ctx)
}

// Close releases the backend
func (a *App) Close() error {
	return a.Store.Close()
}
