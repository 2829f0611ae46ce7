package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/observability/metrics"
)

// Counts is what one refresh observed
type Counts struct {
	Collections       map[string]int
	ActiveTreatments  int
	TodayAppointments int
}

// StatsWorker periodically reloads every collection so the size and
// dashboard gauges follow writes made by other processes.
type StatsWorker struct {
	users        domain.UserRepository
	patients     domain.PatientRepository
	appointments domain.AppointmentRepository
	treatments   domain.TreatmentRepository
	records      domain.MedicalRecordRepository
	logger       *slog.Logger
	interval     time.Duration
	now          func() time.Time
}

// NewStatsWorker creates a new stats worker
func NewStatsWorker(
	users domain.UserRepository,
	patients domain.PatientRepository,
	appointments domain.AppointmentRepository,
	treatments domain.TreatmentRepository,
	records domain.MedicalRecordRepository,
	logger *slog.Logger,
	interval time.Duration,
) *StatsWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &StatsWorker{
		users:        users,
		patients:     patients,
		appointments: appointments,
		treatments:   treatments,
		records:      records,
		logger:       logger,
		interval:     interval,
		now:          time.Now,
	}
}

// Start refreshes once, then on every tick until ctx is done
func (w *StatsWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("stats worker started", slog.Duration("interval", w.interval))
	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("stats worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	if _, err := w.Refresh(ctx); err != nil {
		w.logger.Warn("stats refresh incomplete", slog.String("error", err.Error()))
	}
}

// Refresh reloads every collection and updates the gauges. A collection
// that cannot be read is skipped; the others are still counted.
func (w *StatsWorker) Refresh(ctx context.Context) (Counts, error) {
	counts := Counts{Collections: map[string]int{}}
	var errs []error

	count := func(key string, n int, err error) bool {
		if err != nil {
			errs = append(errs, err)
			return false
		}
		counts.Collections[key] = n
		return true
	}

	users, err := w.users.List(ctx)
	count(domain.KeyUsers, len(users), err)

	patients, err := w.patients.List(ctx)
	count(domain.KeyPatients, len(patients), err)

	records, err := w.records.List(ctx)
	count(domain.KeyMedicalRecords, len(records), err)

	appointments, err := w.appointments.List(ctx)
	if count(domain.KeyAppointments, len(appointments), err) {
		today := w.now().Format(domain.DateLayout)
		for _, a := range appointments {
			if a.Date == today {
				counts.TodayAppointments++
			}
		}
		metrics.SetTodayAppointments(counts.TodayAppointments)
	}

	treatments, err := w.treatments.List(ctx)
	if count(domain.KeyTreatments, len(treatments), err) {
		for _, t := range treatments {
			if t.Status == domain.TreatmentActive {
				counts.ActiveTreatments++
			}
		}
		metrics.SetActiveTreatments(counts.ActiveTreatments)
	}

	w.logger.Debug("stats refreshed",
		slog.Int("active_treatments", counts.ActiveTreatments),
		slog.Int("today_appointments", counts.TodayAppointments),
	)
	return counts, errors.Join(errs...)
}
