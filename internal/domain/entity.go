package domain

import "time"

// Collection keys in the key-value store
const (
	KeyUsers          = "users"
	KeyPatients       = "patients"
	KeyAppointments   = "appointments"
	KeyTreatments     = "treatments"
	KeyMedicalRecords = "medicalRecords"

	// KeyUserToken holds the signed session token of the logged-in user
	KeyUserToken = "userToken"
	// KeyCurrentUser holds the Profile of the logged-in user
	KeyCurrentUser = "currentUser"
)

// Entity is implemented by every record kept in a collection.
// Setters have pointer receivers so repositories can assign id and timestamp.
type Entity interface {
	GetID() string
	GetCreatedAt() time.Time
}

// EntityPtr constrains *T to carry the setters repositories need
type EntityPtr[T any] interface {
	*T
	Entity
	SetID(id string)
	SetCreatedAt(t time.Time)
}

// Base carries the fields shared by all entities
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

func (b Base) GetID() string { return b.ID }

func (b Base) GetCreatedAt() time.Time { return b.CreatedAt }

func (b *Base) SetID(id string) { b.ID = id }

func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }

// DateLayout is the calendar date format used by appointments, treatments and records
const DateLayout = "2006-01-02"

// TimeLayout is the local time-of-day format used by appointments
const TimeLayout = "15:04"
