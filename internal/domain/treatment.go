package domain

// TreatmentStatus is the lifecycle state of a prescription
type TreatmentStatus string

const (
	TreatmentActive    TreatmentStatus = "actif"
	TreatmentFinished  TreatmentStatus = "terminé"
	TreatmentSuspended TreatmentStatus = "suspendu"
)

var treatmentTransitions = map[TreatmentStatus][]TreatmentStatus{
	TreatmentActive:    {TreatmentSuspended, TreatmentFinished},
	TreatmentSuspended: {TreatmentActive},
}

// Valid reports whether s is a known status
func (s TreatmentStatus) Valid() bool {
	switch s {
	case TreatmentActive, TreatmentFinished, TreatmentSuspended:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s
func (s TreatmentStatus) Terminal() bool {
	return len(treatmentTransitions[s]) == 0
}

// CanTransition reports whether a treatment in state s may move to next
func (s TreatmentStatus) CanTransition(next TreatmentStatus) bool {
	for _, allowed := range treatmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Treatment is a medication prescribed to a patient
type Treatment struct {
	Base
	PatientID    string          `json:"patientId"`
	PatientName  string          `json:"patientName"` // Snapshot of Patient.Name at creation or last edit
	DoctorID     string          `json:"doctorId"`
	DoctorName   string          `json:"doctorName"`
	Medication   string          `json:"medication"`
	Dosage       string          `json:"dosage"`
	Frequency    string          `json:"frequency"`
	Duration     string          `json:"duration"`
	Instructions string          `json:"instructions"`
	Status       TreatmentStatus `json:"status"`
	StartDate    string          `json:"startDate"`
	EndDate      string          `json:"endDate,omitempty"`
}
