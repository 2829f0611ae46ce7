package seed

import (
	"fmt"
	"time"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
)

// Dataset is the content of the five collections written on first start
type Dataset struct {
	Users          []domain.User
	Patients       []domain.Patient
	Appointments   []domain.Appointment
	Treatments     []domain.Treatment
	MedicalRecords []domain.MedicalRecord
}

// Demo credentials of the seeded accounts
const (
	DoctorEmail     = "admin@esante.com"
	DoctorPassword  = "admin123"
	PatientEmail    = "user@esante.com"
	PatientPassword = "user123"
	SecondEmail     = "doctor@esante.com"
	SecondPassword  = "doctor123"
)

const doctorName = "Dr. Martin Dubois"

// DefaultDataset builds the demo dataset. Appointment dates are relative
// to now so the dashboard shows today's and upcoming entries.
func DefaultDataset(now time.Time, hasher auth.PasswordHasher) (*Dataset, error) {
	now = now.UTC()
	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format(domain.DateLayout)
	}
	base := func(id string, offset time.Duration) domain.Base {
		return domain.Base{ID: id, CreatedAt: now.Add(offset)}
	}

	creds := []struct{ email, password string }{
		{DoctorEmail, DoctorPassword},
		{PatientEmail, PatientPassword},
		{SecondEmail, SecondPassword},
	}
	hashes := make([]string, len(creds))
	for i, c := range creds {
		h, err := hasher.Hash(c.password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password of %s: %w", c.email, err)
		}
		hashes[i] = h
	}

	ds := &Dataset{
		Users: []domain.User{
			{
				Base:         base("1", 0),
				Name:         doctorName,
				Email:        DoctorEmail,
				PasswordHash: hashes[0],
				Phone:        "0123456789",
				Role:         domain.RoleDoctor,
				Speciality:   "Médecine générale",
			},
			{
				Base:         base("2", 0),
				Name:         "Jean Dupont",
				Email:        PatientEmail,
				PasswordHash: hashes[1],
				Phone:        "0987654321",
				Role:         domain.RolePatient,
				DateOfBirth:  "1980-05-12",
			},
			{
				Base:         base("3", 0),
				Name:         "Dr. Sophie Laurent",
				Email:        SecondEmail,
				PasswordHash: hashes[2],
				Phone:        "0145678923",
				Role:         domain.RoleDoctor,
				Speciality:   "Cardiologie",
			},
		},
		Patients: []domain.Patient{
			{
				Base:             base("1", 0),
				Name:             "Marie Durand",
				Email:            "marie.durand@email.com",
				Phone:            "0123456789",
				DateOfBirth:      "1985-03-15",
				Address:          "123 Rue de la Santé, Paris",
				BloodType:        "A+",
				Allergies:        []string{"Pénicilline"},
				EmergencyContact: domain.EmergencyContact{Name: "Pierre Durand", Phone: "0987654321", Relation: "Époux"},
				MedicalHistory:   []string{"Hypertension"},
				DoctorID:         "1",
			},
			{
				Base:             base("2", 0),
				Name:             "Paul Martin",
				Email:            "paul.martin@email.com",
				Phone:            "0234567890",
				DateOfBirth:      "1978-07-22",
				Address:          "456 Avenue de la Paix, Lyon",
				BloodType:        "O-",
				Allergies:        []string{},
				EmergencyContact: domain.EmergencyContact{Name: "Sophie Martin", Phone: "0876543210", Relation: "Épouse"},
				MedicalHistory:   []string{"Pontage coronarien"},
				DoctorID:         "3",
			},
			{
				Base:             base("3", 0),
				Name:             "Claire Rousseau",
				Email:            "claire.rousseau@email.com",
				Phone:            "0345678901",
				DateOfBirth:      "1992-11-08",
				Address:          "789 Boulevard du Bien-être, Marseille",
				BloodType:        "B+",
				Allergies:        []string{"Aspirine", "Pollen"},
				EmergencyContact: domain.EmergencyContact{Name: "Marc Rousseau", Phone: "0765432109", Relation: "Frère"},
				MedicalHistory:   []string{},
				DoctorID:         "1",
			},
		},
		Appointments: []domain.Appointment{
			{
				Base:        base("1", 0),
				PatientID:   "1",
				PatientName: "Marie Durand",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(-7),
				Time:        "09:00",
				Type:        "Consultation générale",
				Status:      domain.AppointmentCompleted,
				Notes:       "Contrôle de routine",
				Diagnosis:   "Tension stable",
			},
			{
				Base:        base("2", 0),
				PatientID:   "2",
				PatientName: "Paul Martin",
				DoctorID:    "3",
				DoctorName:  "Dr. Sophie Laurent",
				Date:        day(2),
				Time:        "14:30",
				Type:        "Suivi cardiologique",
				Status:      domain.AppointmentScheduled,
				Notes:       "Suivi post-opératoire",
			},
			{
				Base:        base("3", 0),
				PatientID:   "3",
				PatientName: "Claire Rousseau",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(0),
				Time:        "11:15",
				Type:        "Consultation dermatologique",
				Status:      domain.AppointmentScheduled,
				Notes:       "Examen de grain de beauté",
			},
			{
				Base:        base("4", 0),
				PatientID:   "1",
				PatientName: "Marie Durand",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(-3),
				Time:        "16:00",
				Type:        "Vaccination",
				Status:      domain.AppointmentCancelled,
			},
		},
		Treatments: []domain.Treatment{
			{
				Base:         base("1", 0),
				PatientID:    "1",
				PatientName:  "Marie Durand",
				DoctorID:     "1",
				DoctorName:   doctorName,
				Medication:   "Paracétamol 500mg",
				Dosage:       "1 comprimé",
				Frequency:    "3 fois par jour",
				Duration:     "7 jours",
				Instructions: "À prendre après les repas",
				Status:       domain.TreatmentActive,
				StartDate:    day(-2),
				EndDate:      day(5),
			},
			{
				Base:         base("2", 0),
				PatientID:    "2",
				PatientName:  "Paul Martin",
				DoctorID:     "3",
				DoctorName:   "Dr. Sophie Laurent",
				Medication:   "Lisinopril 10mg",
				Dosage:       "1 comprimé",
				Frequency:    "1 fois par jour",
				Duration:     "30 jours",
				Instructions: "À prendre le matin à jeun",
				Status:       domain.TreatmentActive,
				StartDate:    day(-10),
				EndDate:      day(20),
			},
			{
				Base:         base("3", -30*24*time.Hour),
				PatientID:    "1",
				PatientName:  "Marie Durand",
				DoctorID:     "1",
				DoctorName:   doctorName,
				Medication:   "Amoxicilline 1g",
				Dosage:       "1 comprimé",
				Frequency:    "2 fois par jour",
				Duration:     "10 jours",
				Instructions: "À prendre avec un grand verre d'eau",
				Status:       domain.TreatmentFinished,
				StartDate:    day(-30),
				EndDate:      day(-20),
			},
		},
		MedicalRecords: []domain.MedicalRecord{
			{
				Base:        base("1", 0),
				PatientID:   "1",
				PatientName: "Marie Durand",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(-7),
				Type:        domain.RecordConsultation,
				Title:       "Consultation de routine",
				Description: "Examen général, tension artérielle contrôlée",
				Diagnosis:   "Hypertension stable",
				Treatment:   "Poursuite du traitement actuel",
			},
			{
				Base:        base("2", 0),
				PatientID:   "2",
				PatientName: "Paul Martin",
				DoctorID:    "3",
				DoctorName:  "Dr. Sophie Laurent",
				Date:        day(-60),
				Type:        domain.RecordSurgery,
				Title:       "Pontage coronarien",
				Description: "Intervention réalisée sans complication",
			},
			{
				Base:        base("3", 0),
				PatientID:   "3",
				PatientName: "Claire Rousseau",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(-14),
				Type:        domain.RecordTest,
				Title:       "Bilan sanguin",
				Description: "Numération formule sanguine complète",
				Attachments: []string{"bilan-sanguin.pdf"},
			},
			{
				Base:        base("4", 0),
				PatientID:   "1",
				PatientName: "Marie Durand",
				DoctorID:    "1",
				DoctorName:  doctorName,
				Date:        day(-30),
				Type:        domain.RecordVaccination,
				Title:       "Rappel DTP",
				Description: "Rappel diphtérie, tétanos, poliomyélite",
			},
		},
	}
	return ds, nil
}
