package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

// PatientDirectory resolves patient ids for the entities that copy the
// patient's name.
type PatientDirectory struct {
	patients domain.PatientRepository
}

// NewPatientDirectory creates a directory over the patients repository
func NewPatientDirectory(patients domain.PatientRepository) *PatientDirectory {
	return &PatientDirectory{patients: patients}
}

// Snapshot returns the current name of patientID. Later renames of the
// patient are not propagated to entities that stored the snapshot.
func (d *PatientDirectory) Snapshot(ctx context.Context, patientID string) (string, error) {
	if strings.TrimSpace(patientID) == "" {
		return "", domain.Invalid("patientId", "is required")
	}
	p, err := d.patients.Get(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve patient: %w", err)
	}
	return p.Name, nil
}

// PatientFilter narrows a patient listing
type PatientFilter struct {
	Search string
}

// PatientService manages the patient file
type PatientService struct {
	patients domain.PatientRepository
	logger   *slog.Logger
}

// NewPatientService creates a new patient service
func NewPatientService(patients domain.PatientRepository, logger *slog.Logger) *PatientService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatientService{patients: patients, logger: logger}
}

// Add registers a new patient. Name, email and phone are required.
func (s *PatientService) Add(ctx context.Context, p domain.Patient) (domain.Patient, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)

	switch {
	case p.Name == "":
		return domain.Patient{}, domain.Invalid("name", "is required")
	case p.Email == "":
		return domain.Patient{}, domain.Invalid("email", "is required")
	case p.Phone == "":
		return domain.Patient{}, domain.Invalid("phone", "is required")
	}
	if _, err := mail.ParseAddress(p.Email); err != nil {
		return domain.Patient{}, domain.Invalid("email", "is not a valid address")
	}
	if p.DateOfBirth != "" {
		if err := validDate("dateOfBirth", p.DateOfBirth); err != nil {
			return domain.Patient{}, err
		}
	}
	if p.Allergies == nil {
		p.Allergies = []string{}
	}
	if p.MedicalHistory == nil {
		p.MedicalHistory = []string{}
	}

	added, err := s.patients.Add(ctx, p)
	if err != nil {
		return domain.Patient{}, err
	}
	s.logger.Info("patient added", slog.String("patient_id", added.ID))
	return added, nil
}

// Update merges patch into the patient. Snapshots of the name held by
// appointments, treatments and records are left as they are.
func (s *PatientService) Update(ctx context.Context, id string, patch domain.Patch) (domain.Patient, error) {
	if err := requirePresent(patch, "name", "email", "phone"); err != nil {
		return domain.Patient{}, err
	}
	if err := patchDates(patch, "dateOfBirth"); err != nil {
		return domain.Patient{}, err
	}
	if email, ok, _ := patchString(patch, "email"); ok {
		if _, err := mail.ParseAddress(email); err != nil {
			return domain.Patient{}, domain.Invalid("email", "is not a valid address")
		}
	}
	return s.patients.Update(ctx, id, patch)
}

// Get returns one patient
func (s *PatientService) Get(ctx context.Context, id string) (domain.Patient, error) {
	return s.patients.Get(ctx, id)
}

// List returns patients in stored order, matching the search on name or email
func (s *PatientService) List(ctx context.Context, f PatientFilter) ([]domain.Patient, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return []domain.Patient{}, err
	}
	out := make([]domain.Patient, 0, len(patients))
	for _, p := range patients {
		if contains(f.Search, p.Name, p.Email) {
			out = append(out, p)
		}
	}
	return out, nil
}
