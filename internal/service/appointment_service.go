package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

// Appointment listing periods
const (
	PeriodAll       = "all"
	PeriodToday     = "today"
	PeriodUpcoming  = "upcoming"
	PeriodCompleted = "completed"
)

// AppointmentFilter narrows an appointment listing
type AppointmentFilter struct {
	Search string
	Period string
}

// AppointmentService schedules appointments and moves them through their lifecycle
type AppointmentService struct {
	appointments domain.AppointmentRepository
	directory    *PatientDirectory
	logger       *slog.Logger
	now          func() time.Time
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(appointments domain.AppointmentRepository, directory *PatientDirectory, logger *slog.Logger) *AppointmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentService{
		appointments: appointments,
		directory:    directory,
		logger:       logger,
		now:          time.Now,
	}
}

// Schedule books a new appointment, copying the patient's current name
func (s *AppointmentService) Schedule(ctx context.Context, a domain.Appointment) (domain.Appointment, error) {
	a.Type = strings.TrimSpace(a.Type)
	if a.Type == "" {
		return domain.Appointment{}, domain.Invalid("type", "is required")
	}
	if err := validDate("date", a.Date); err != nil {
		return domain.Appointment{}, err
	}
	if err := validTime("time", a.Time); err != nil {
		return domain.Appointment{}, err
	}
	if a.Status == "" {
		a.Status = domain.AppointmentScheduled
	}
	if !a.Status.Valid() {
		return domain.Appointment{}, domain.Invalid("status", "is not a known appointment status")
	}

	name, err := s.directory.Snapshot(ctx, a.PatientID)
	if err != nil {
		return domain.Appointment{}, err
	}
	a.PatientName = name

	added, err := s.appointments.Add(ctx, a)
	if err != nil {
		return domain.Appointment{}, err
	}
	s.logger.Info("appointment scheduled",
		slog.String("appointment_id", added.ID),
		slog.String("patient_id", added.PatientID),
	)
	return added, nil
}

// Edit merges patch into the appointment. A new patientId refreshes the
// patient name snapshot and a status change must be an allowed transition.
func (s *AppointmentService) Edit(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, error) {
	patch = clonePatch(patch)
	if err := requirePresent(patch, "patientId", "date", "time", "type"); err != nil {
		return domain.Appointment{}, err
	}
	if err := patchDates(patch, "date"); err != nil {
		return domain.Appointment{}, err
	}
	if t, ok, err := patchString(patch, "time"); err != nil {
		return domain.Appointment{}, err
	} else if ok {
		if err := validTime("time", t); err != nil {
			return domain.Appointment{}, err
		}
	}
	status, hasStatus, err := patchString(patch, "status")
	if err != nil {
		return domain.Appointment{}, err
	}
	delete(patch, "patientName")

	if patientID, ok, _ := patchString(patch, "patientId"); ok {
		name, err := s.directory.Snapshot(ctx, patientID)
		if err != nil {
			return domain.Appointment{}, err
		}
		patch["patientName"] = name
	}

	return s.appointments.Modify(ctx, id, func(current domain.Appointment) (domain.Patch, error) {
		if !hasStatus {
			return patch, nil
		}
		to := domain.AppointmentStatus(status)
		if to == current.Status {
			delete(patch, "status")
			return patch, nil
		}
		if err := checkAppointmentTransition(current.Status, to); err != nil {
			return nil, err
		}
		return patch, nil
	})
}

// Transition moves the appointment to status to
func (s *AppointmentService) Transition(ctx context.Context, id string, to domain.AppointmentStatus) (domain.Appointment, error) {
	var from domain.AppointmentStatus
	updated, err := s.appointments.Modify(ctx, id, func(current domain.Appointment) (domain.Patch, error) {
		if err := checkAppointmentTransition(current.Status, to); err != nil {
			return nil, err
		}
		from = current.Status
		return domain.Patch{"status": string(to)}, nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	s.logger.Info("appointment status changed",
		slog.String("appointment_id", id),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return updated, nil
}

// List returns matching appointments, latest date and time first
func (s *AppointmentService) List(ctx context.Context, f AppointmentFilter) ([]domain.Appointment, error) {
	appointments, err := s.appointments.List(ctx)
	if err != nil {
		return []domain.Appointment{}, err
	}

	day := today(s.now())
	out := make([]domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if !contains(f.Search, a.PatientName, a.Type) {
			continue
		}
		switch f.Period {
		case PeriodToday:
			if a.Date != day {
				continue
			}
		case PeriodUpcoming:
			if a.Date < day || a.Status != domain.AppointmentScheduled {
				continue
			}
		case PeriodCompleted:
			if a.Status != domain.AppointmentCompleted {
				continue
			}
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortKey() > out[j].SortKey()
	})
	return out, nil
}

func checkAppointmentTransition(from, to domain.AppointmentStatus) error {
	if !to.Valid() {
		return domain.Invalid("status", "is not a known appointment status")
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("appointment %s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}
	return nil
}
