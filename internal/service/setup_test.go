package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/reliability/retry"
	"github.com/ShadowCodeSoftware/E-sante/internal/repository"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
	"github.com/ShadowCodeSoftware/E-sante/internal/seed"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

// testNow is the day the seeded dataset is built around
var testNow = time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)

type fixture struct {
	backend *storage.MemoryBackend
	store   *storage.Store
	broker  *events.Broker
	repos   *repository.Set
	hasher  auth.PasswordHasher
	logger  *slog.Logger
}

// slowBackend delays reads so that interleavings between concurrent
// read-modify-write cycles become likely
type slowBackend struct {
	*storage.MemoryBackend
	delay time.Duration
}

func (b *slowBackend) Read(ctx context.Context, key string) (string, bool, error) {
	time.Sleep(b.delay)
	return b.MemoryBackend.Read(ctx, key)
}

func newFixture(t *testing.T, seeded bool) *fixture {
	t.Helper()
	return newFixtureOn(t, seeded, func(m *storage.MemoryBackend) storage.Backend { return m })
}

func newFixtureOn(t *testing.T, seeded bool, wrap func(*storage.MemoryBackend) storage.Backend) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := storage.NewMemoryBackend()
	store := storage.New(wrap(backend), logger, storage.WithRetry(&retry.Config{
		MaxAttempts:       1,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1,
	}))
	broker := events.NewBroker(64)
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)

	if seeded {
		_, err := seed.NewInitializer(store, hasher, logger, seed.WithClock(func() time.Time { return testNow })).Run(context.Background())
		require.NoError(t, err)
	}

	repos := repository.NewSet(store, broker, logger)
	return &fixture{
		backend: backend,
		store:   store,
		broker:  broker,
		repos:   repos,
		hasher:  hasher,
		logger:  logger,
	}
}

func (f *fixture) directory() *PatientDirectory {
	return NewPatientDirectory(f.repos.Patients)
}

func (f *fixture) authService() *AuthService {
	return NewAuthService(
		f.repos.Users,
		f.hasher,
		auth.NewTokenManager("test-secret", ""),
		NewSessionStore(f.store),
		time.Hour,
		f.logger,
	)
}

func (f *fixture) appointmentService() *AppointmentService {
	s := NewAppointmentService(f.repos.Appointments, f.directory(), f.logger)
	s.now = func() time.Time { return testNow }
	return s
}

func (f *fixture) treatmentService() *TreatmentService {
	s := NewTreatmentService(f.repos.Treatments, f.directory(), f.logger)
	s.now = func() time.Time { return testNow }
	return s
}

func (f *fixture) recordService() *MedicalRecordService {
	s := NewMedicalRecordService(f.repos.MedicalRecords, f.directory(), f.logger)
	s.now = func() time.Time { return testNow }
	return s
}
