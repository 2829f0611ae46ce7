package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/pkg/cache"
)

const (
	dashboardCacheKey = "dashboard:stats"
	upcomingLimit     = 3
)

// DashboardStats summarizes the practice for the home screen
type DashboardStats struct {
	Patients          int                  `json:"patients"`
	Appointments      int                  `json:"appointments"`
	ActiveTreatments  int                  `json:"activeTreatments"`
	TodayAppointments int                  `json:"todayAppointments"`
	Upcoming          []domain.Appointment `json:"upcoming"`
	GeneratedAt       time.Time            `json:"generatedAt"`
}

// DashboardService computes the dashboard figures. Results are cached
// until the TTL expires or a collection changes.
type DashboardService struct {
	patients     domain.PatientRepository
	appointments domain.AppointmentRepository
	treatments   domain.TreatmentRepository
	cache        *cache.Cache[*DashboardStats]
	ttl          time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(
	patients domain.PatientRepository,
	appointments domain.AppointmentRepository,
	treatments domain.TreatmentRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		patients:     patients,
		appointments: appointments,
		treatments:   treatments,
		cache:        cache.New[*DashboardStats](),
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

// Stats returns the dashboard figures
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	if stats, ok := s.cache.Get(dashboardCacheKey); ok {
		return stats, nil
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	appointments, err := s.appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	treatments, err := s.treatments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}

	now := s.now()
	day := today(now)
	stats := &DashboardStats{
		Patients:     len(patients),
		Appointments: len(appointments),
		Upcoming:     []domain.Appointment{},
		GeneratedAt:  now,
	}
	for _, t := range treatments {
		if t.Status == domain.TreatmentActive {
			stats.ActiveTreatments++
		}
	}

	upcoming := make([]domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.Date == day {
			stats.TodayAppointments++
		}
		if a.Date >= day {
			upcoming = append(upcoming, a)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].SortKey() < upcoming[j].SortKey()
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}
	stats.Upcoming = upcoming

	if s.ttl > 0 {
		s.cache.Set(dashboardCacheKey, stats, s.ttl)
	}
	return stats, nil
}

// Invalidate drops the cached figures
func (s *DashboardService) Invalidate() {
	s.cache.Invalidate("dashboard:")
}

// Watch drops the cached figures on every change published by broker
// until ctx is done.
func (s *DashboardService) Watch(ctx context.Context, broker *events.Broker) {
	changes, cancel := broker.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.logger.Debug("dashboard cache invalidated", slog.String("collection", c.Collection))
			s.Invalidate()
		}
	}
}
