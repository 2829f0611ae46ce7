package domain

// AppointmentStatus is the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no-show"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentScheduled: {AppointmentCompleted, AppointmentCancelled, AppointmentNoShow},
}

// Valid reports whether s is a known status
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s AppointmentStatus) Terminal() bool {
	return len(appointmentTransitions[s]) == 0
}

// CanTransition reports whether an appointment in state s may move to next.
// Only scheduled appointments move, and nothing returns to scheduled.
func (s AppointmentStatus) CanTransition(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment is a consultation slot booked for a patient
type Appointment struct {
	Base
	PatientID   string            `json:"patientId"`
	PatientName string            `json:"patientName"` // Snapshot of Patient.Name at creation or last edit
	DoctorID    string            `json:"doctorId"`
	DoctorName  string            `json:"doctorName"`
	Date        string            `json:"date"` // YYYY-MM-DD
	Time        string            `json:"time"` // HH:MM local
	Type        string            `json:"type"`
	Status      AppointmentStatus `json:"status"`
	Notes       string            `json:"notes,omitempty"`
	Symptoms    string            `json:"symptoms,omitempty"`
	Diagnosis   string            `json:"diagnosis,omitempty"`
}

// SortKey orders appointments by date then time
func (a Appointment) SortKey() string {
	return a.Date + " " + a.Time
}
