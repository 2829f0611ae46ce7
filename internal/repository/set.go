package repository

import (
	"log/slog"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

// Users is the repository of the users collection
type Users = Repository[domain.User, *domain.User]

// Patients is the repository of the patients collection
type Patients = Repository[domain.Patient, *domain.Patient]

// Appointments is the repository of the appointments collection
type Appointments = Repository[domain.Appointment, *domain.Appointment]

// Treatments is the repository of the treatments collection
type Treatments = Repository[domain.Treatment, *domain.Treatment]

// MedicalRecords is the repository of the medicalRecords collection
type MedicalRecords = Repository[domain.MedicalRecord, *domain.MedicalRecord]

func NewUsers(store *storage.Store, broker *events.Broker, logger *slog.Logger) *Users {
	return New[domain.User, *domain.User](store, domain.KeyUsers, broker, logger)
}

func NewPatients(store *storage.Store, broker *events.Broker, logger *slog.Logger) *Patients {
	return New[domain.Patient, *domain.Patient](store, domain.KeyPatients, broker, logger)
}

func NewAppointments(store *storage.Store, broker *events.Broker, logger *slog.Logger) *Appointments {
	return New[domain.Appointment, *domain.Appointment](store, domain.KeyAppointments, broker, logger)
}

func NewTreatments(store *storage.Store, broker *events.Broker, logger *slog.Logger) *Treatments {
	return New[domain.Treatment, *domain.Treatment](store, domain.KeyTreatments, broker, logger)
}

func NewMedicalRecords(store *storage.Store, broker *events.Broker, logger *slog.Logger) *MedicalRecords {
	return New[domain.MedicalRecord, *domain.MedicalRecord](store, domain.KeyMedicalRecords, broker, logger)
}

// Set bundles one repository per collection. It is the only persistence
// surface handed to services.
type Set struct {
	Users          *Users
	Patients       *Patients
	Appointments   *Appointments
	Treatments     *Treatments
	MedicalRecords *MedicalRecords
}

// NewSet creates every collection repository over store
func NewSet(store *storage.Store, broker *events.Broker, logger *slog.Logger) *Set {
	return &Set{
		Users:          NewUsers(store, broker, logger),
		Patients:       NewPatients(store, broker, logger),
		Appointments:   NewAppointments(store, broker, logger),
		Treatments:     NewTreatments(store, broker, logger),
		MedicalRecords: NewMedicalRecords(store, broker, logger),
	}
}

// SetClock replaces the time source of every repository
func (s *Set) SetClock(now func() time.Time) {
	s.Users.SetClock(now)
	s.Patients.SetClock(now)
	s.Appointments.SetClock(now)
	s.Treatments.SetClock(now)
	s.MedicalRecords.SetClock(now)
}

var (
	_ domain.UserRepository          = (*Users)(nil)
	_ domain.PatientRepository       = (*Patients)(nil)
	_ domain.AppointmentRepository   = (*Appointments)(nil)
	_ domain.TreatmentRepository     = (*Treatments)(nil)
	_ domain.MedicalRecordRepository = (*MedicalRecords)(nil)
)
