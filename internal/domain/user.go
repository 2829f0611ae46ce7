package domain

import (
	"context"
	"strings"
)

// Role distinguishes practitioners from patients using the app
type Role string

const (
	RoleDoctor  Role = "doctor"
	RolePatient Role = "patient"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RolePatient
}

// User represents an account able to log in
type User struct {
	Base
	Name         string `json:"name"`
	Email        string `json:"email"`         // Unique across users, compared case-insensitively
	PasswordHash string `json:"passwordHash"` // Bcrypt hash, never returned by the API
	Phone        string `json:"phone"`
	Role         Role   `json:"role"`
	Speciality   string `json:"speciality,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"`
	Address      string `json:"address,omitempty"`
}

// Profile is the display-oriented view of a User. It never carries credentials.
type Profile struct {
	Base
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Role        Role   `json:"role"`
	Speciality  string `json:"speciality,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Address     string `json:"address,omitempty"`
}

// Profile strips the credential fields from u
func (u User) Profile() Profile {
	return Profile{
		Base:        u.Base,
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
		Speciality:  u.Speciality,
		DateOfBirth: u.DateOfBirth,
		Address:     u.Address,
	}
}

// SameEmail compares two addresses the way uniqueness is enforced
func SameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Patch is a partial set of JSON fields merged into a stored entity
type Patch map[string]any

// Repository is the typed persistence contract exposed for one collection
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id string) (T, error)
	Add(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id string, patch Patch) (T, error)
	// Modify derives a patch from the stored entity and applies it atomically
	Modify(ctx context.Context, id string, fn func(current T) (Patch, error)) (T, error)
	Replace(ctx context.Context, item T) error
}

// UserRepository defines data access for users
type UserRepository = Repository[User]

// PatientRepository defines data access for patients
type PatientRepository = Repository[Patient]

// AppointmentRepository defines data access for appointments
type AppointmentRepository = Repository[Appointment]

// TreatmentRepository defines data access for treatments
type TreatmentRepository = Repository[Treatment]

// MedicalRecordRepository defines data access for medical records
type MedicalRecordRepository = Repository[MedicalRecord]
