package domain

// RecordType classifies a medical record entry
type RecordType string

const (
	RecordConsultation RecordType = "consultation"
	RecordExamination  RecordType = "examination"
	RecordSurgery      RecordType = "surgery"
	RecordTest         RecordType = "test"
	RecordVaccination  RecordType = "vaccination"
)

// RecordTypes lists every record type in display order
var RecordTypes = []RecordType{
	RecordConsultation,
	RecordExamination,
	RecordSurgery,
	RecordTest,
	RecordVaccination,
}

// Valid reports whether t is a known record type
func (t RecordType) Valid() bool {
	for _, known := range RecordTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MedicalRecord is one entry of a patient's history
type MedicalRecord struct {
	Base
	PatientID   string     `json:"patientId"`
	PatientName string     `json:"patientName"` // Snapshot of Patient.Name at creation or last edit
	DoctorID    string     `json:"doctorId"`
	DoctorName  string     `json:"doctorName"`
	Date        string     `json:"date"`
	Type        RecordType `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Diagnosis   string     `json:"diagnosis,omitempty"`
	Treatment   string     `json:"treatment,omitempty"`
	Attachments []string   `json:"attachments,omitempty"`
}
