package domain

import (
	"encoding/json"
	"strings"
)

// EmergencyContact is the person to call for a patient
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// Patient represents a person followed by the practice
type Patient struct {
	Base
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	DateOfBirth      string           `json:"dateOfBirth"`
	Address          string           `json:"address"`
	BloodType        string           `json:"bloodType"`
	Allergies        []string         `json:"allergies"`
	EmergencyContact EmergencyContact `json:"emergencyContact"`
	MedicalHistory   []string         `json:"medicalHistory"`
	DoctorID         string           `json:"doctorId,omitempty"` // Weak reference to a User
}

// UnmarshalJSON accepts both the list-shaped layout and the older layout
// where allergies and history were comma separated strings and the
// emergency contact a single "Name - Phone" string.
func (p *Patient) UnmarshalJSON(data []byte) error {
	type plain Patient
	var raw struct {
		plain
		Allergies        json.RawMessage `json:"allergies"`
		EmergencyContact json.RawMessage `json:"emergencyContact"`
		MedicalHistory   json.RawMessage `json:"medicalHistory"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Patient(raw.plain)
	var err error
	if out.Allergies, err = decodeStringList(raw.Allergies); err != nil {
		return err
	}
	if out.MedicalHistory, err = decodeStringList(raw.MedicalHistory); err != nil {
		return err
	}
	if out.EmergencyContact, err = decodeContact(raw.EmergencyContact); err != nil {
		return err
	}

	*p = out
	return nil
}

func decodeStringList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return SplitList(s), nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

func decodeContact(raw json.RawMessage) (EmergencyContact, error) {
	var c EmergencyContact
	if len(raw) == 0 || string(raw) == "null" {
		return c, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return c, err
		}
		name, phone, found := strings.Cut(s, " - ")
		c.Name = strings.TrimSpace(name)
		if found {
			c.Phone = strings.TrimSpace(phone)
		}
		return c, nil
	}
	err := json.Unmarshal(raw, &c)
	return c, err
}

// SplitList turns "a, b" into ["a", "b"], dropping blanks
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
