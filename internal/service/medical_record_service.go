package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

// RecordFilter narrows a medical history listing. An empty Type matches all.
type RecordFilter struct {
	Search    string
	Type      domain.RecordType
	PatientID string
}

// MedicalRecordService manages the medical history
type MedicalRecordService struct {
	records   domain.MedicalRecordRepository
	directory *PatientDirectory
	logger    *slog.Logger
	now       func() time.Time
}

// NewMedicalRecordService creates a new medical record service
func NewMedicalRecordService(records domain.MedicalRecordRepository, directory *PatientDirectory, logger *slog.Logger) *MedicalRecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MedicalRecordService{
		records:   records,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// Add stores a new record, copying the patient's current name.
// The date defaults to today.
func (s *MedicalRecordService) Add(ctx context.Context, r domain.MedicalRecord) (domain.MedicalRecord, error) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return domain.MedicalRecord{}, domain.Invalid("title", "is required")
	}
	if !r.Type.Valid() {
		return domain.MedicalRecord{}, domain.Invalid("type", "is not a known record type")
	}
	if r.Date == "" {
		r.Date = today(s.now())
	}
	if err := validDate("date", r.Date); err != nil {
		return domain.MedicalRecord{}, err
	}

	name, err := s.directory.Snapshot(ctx, r.PatientID)
	if err != nil {
		return domain.MedicalRecord{}, err
	}
	r.PatientName = name

	added, err := s.records.Add(ctx, r)
	if err != nil {
		return domain.MedicalRecord{}, err
	}
	s.logger.Info("medical record added",
		slog.String("record_id", added.ID),
		slog.String("patient_id", added.PatientID),
		slog.String("type", string(added.Type)),
	)
	return added, nil
}

// Edit merges patch into the record
func (s *MedicalRecordService) Edit(ctx context.Context, id string, patch domain.Patch) (domain.MedicalRecord, error) {
	patch = clonePatch(patch)
	if err := requirePresent(patch, "patientId", "title", "date"); err != nil {
		return domain.MedicalRecord{}, err
	}
	if err := patchDates(patch, "date"); err != nil {
		return domain.MedicalRecord{}, err
	}
	if t, ok, err := patchString(patch, "type"); err != nil {
		return domain.MedicalRecord{}, err
	} else if ok && !domain.RecordType(t).Valid() {
		return domain.MedicalRecord{}, domain.Invalid("type", "is not a known record type")
	}
	delete(patch, "patientName")

	if patientID, ok, _ := patchString(patch, "patientId"); ok {
		name, err := s.directory.Snapshot(ctx, patientID)
		if err != nil {
			return domain.MedicalRecord{}, err
		}
		patch["patientName"] = name
	}

	return s.records.Update(ctx, id, patch)
}

// List returns matching records, latest date first
func (s *MedicalRecordService) List(ctx context.Context, f RecordFilter) ([]domain.MedicalRecord, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return []domain.MedicalRecord{}, err
	}

	out := make([]domain.MedicalRecord, 0, len(records))
	for _, r := range records {
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if f.PatientID != "" && r.PatientID != f.PatientID {
			continue
		}
		if !contains(f.Search, r.PatientName, r.Title, r.Description) {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CountByType returns how many records exist of each type
func (s *MedicalRecordService) CountByType(ctx context.Context) (map[domain.RecordType]int, error) {
	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.RecordType]int, len(domain.RecordTypes))
	for _, t := range domain.RecordTypes {
		counts[t] = 0
	}
	for _, r := range records {
		counts[r.Type]++
	}
	return counts, nil
}
