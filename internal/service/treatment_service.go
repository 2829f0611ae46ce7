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

// TreatmentFilter narrows a treatment listing. An empty Status matches all.
type TreatmentFilter struct {
	Search string
	Status domain.TreatmentStatus
}

// TreatmentService manages prescriptions
type TreatmentService struct {
	treatments domain.TreatmentRepository
	directory  *PatientDirectory
	logger     *slog.Logger
	now        func() time.Time
}

// NewTreatmentService creates a new treatment service
func NewTreatmentService(treatments domain.TreatmentRepository, directory *PatientDirectory, logger *slog.Logger) *TreatmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreatmentService{
		treatments: treatments,
		directory:  directory,
		logger:     logger,
		now:        time.Now,
	}
}

// Prescribe records a new treatment, copying the patient's current name.
// The start date defaults to today and the status to actif.
func (s *TreatmentService) Prescribe(ctx context.Context, t domain.Treatment) (domain.Treatment, error) {
	t.Medication = strings.TrimSpace(t.Medication)
	t.Dosage = strings.TrimSpace(t.Dosage)
	switch {
	case t.Medication == "":
		return domain.Treatment{}, domain.Invalid("medication", "is required")
	case t.Dosage == "":
		return domain.Treatment{}, domain.Invalid("dosage", "is required")
	}
	if t.StartDate == "" {
		t.StartDate = today(s.now())
	}
	if err := validDate("startDate", t.StartDate); err != nil {
		return domain.Treatment{}, err
	}
	if t.EndDate != "" {
		if err := validDate("endDate", t.EndDate); err != nil {
			return domain.Treatment{}, err
		}
		if t.EndDate < t.StartDate {
			return domain.Treatment{}, domain.Invalid("endDate", "is before startDate")
		}
	}
	if t.Status == "" {
		t.Status = domain.TreatmentActive
	}
	if !t.Status.Valid() {
		return domain.Treatment{}, domain.Invalid("status", "is not a known treatment status")
	}

	name, err := s.directory.Snapshot(ctx, t.PatientID)
	if err != nil {
		return domain.Treatment{}, err
	}
	t.PatientName = name

	added, err := s.treatments.Add(ctx, t)
	if err != nil {
		return domain.Treatment{}, err
	}
	s.logger.Info("treatment prescribed",
		slog.String("treatment_id", added.ID),
		slog.String("patient_id", added.PatientID),
	)
	return added, nil
}

// Edit merges patch into the treatment. A new patientId refreshes the
// name snapshot and a status change must be an allowed transition.
func (s *TreatmentService) Edit(ctx context.Context, id string, patch domain.Patch) (domain.Treatment, error) {
	patch = clonePatch(patch)
	if err := requirePresent(patch, "patientId", "medication", "dosage", "startDate"); err != nil {
		return domain.Treatment{}, err
	}
	if err := patchDates(patch, "startDate", "endDate"); err != nil {
		return domain.Treatment{}, err
	}
	status, hasStatus, err := patchString(patch, "status")
	if err != nil {
		return domain.Treatment{}, err
	}
	delete(patch, "patientName")

	if patientID, ok, _ := patchString(patch, "patientId"); ok {
		name, err := s.directory.Snapshot(ctx, patientID)
		if err != nil {
			return domain.Treatment{}, err
		}
		patch["patientName"] = name
	}

	return s.treatments.Modify(ctx, id, func(current domain.Treatment) (domain.Patch, error) {
		if !hasStatus {
			return patch, nil
		}
		to := domain.TreatmentStatus(status)
		if to == current.Status {
			delete(patch, "status")
			return patch, nil
		}
		if err := checkTreatmentTransition(current.Status, to); err != nil {
			return nil, err
		}
		return patch, nil
	})
}

// Transition moves the treatment to status to. Finishing a treatment
// without an end date sets it to today.
func (s *TreatmentService) Transition(ctx context.Context, id string, to domain.TreatmentStatus) (domain.Treatment, error) {
	var from domain.TreatmentStatus
	updated, err := s.treatments.Modify(ctx, id, func(current domain.Treatment) (domain.Patch, error) {
		if err := checkTreatmentTransition(current.Status, to); err != nil {
			return nil, err
		}
		from = current.Status
		patch := domain.Patch{"status": string(to)}
		if to == domain.TreatmentFinished && current.EndDate == "" {
			patch["endDate"] = today(s.now())
		}
		return patch, nil
	})
	if err != nil {
		return domain.Treatment{}, err
	}
	s.logger.Info("treatment status changed",
		slog.String("treatment_id", id),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)
	return updated, nil
}

// List returns matching treatments, most recently created first
func (s *TreatmentService) List(ctx context.Context, f TreatmentFilter) ([]domain.Treatment, error) {
	treatments, err := s.treatments.List(ctx)
	if err != nil {
		return []domain.Treatment{}, err
	}

	out := make([]domain.Treatment, 0, len(treatments))
	for _, t := range treatments {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if !contains(f.Search, t.PatientName, t.Medication) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func checkTreatmentTransition(from, to domain.TreatmentStatus) error {
	if !to.Valid() {
		return domain.Invalid("status", "is not a known treatment status")
	}
	if !from.CanTransition(to) {
		return fmt.Errorf("treatment %s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}
	return nil
}
