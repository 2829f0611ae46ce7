package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestPatient_UnmarshalListShape(t *testing.T) {
	data := `{"id":"2","name":"Paul Martin","allergies":["Aspirine"],` +
		`"emergencyContact":{"name":"Sophie Martin","phone":"0612345678","relation":"Épouse"},` +
		`"medicalHistory":["Diabète type 2","Cholestérol"],"createdAt":"2024-01-20T14:30:00Z"}`

	var p Patient
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "2" || p.Name != "Paul Martin" {
		t.Errorf("base fields not decoded: %+v", p)
	}
	if !reflect.DeepEqual(p.Allergies, []string{"Aspirine"}) {
		t.Errorf("allergies = %v", p.Allergies)
	}
	if !reflect.DeepEqual(p.MedicalHistory, []string{"Diabète type 2", "Cholestérol"}) {
		t.Errorf("medical history = %v", p.MedicalHistory)
	}
	want := EmergencyContact{Name: "Sophie Martin", Phone: "0612345678", Relation: "Épouse"}
	if p.EmergencyContact != want {
		t.Errorf("emergency contact = %+v", p.EmergencyContact)
	}
	if p.CreatedAt.IsZero() {
		t.Error("createdAt not decoded")
	}
}

func TestPatient_UnmarshalLegacyStrings(t *testing.T) {
	data := `{"id":"1","name":"Marie Durand","allergies":"Pénicilline, Pollen, ",` +
		`"emergencyContact":"Pierre Durand - 0987654321","medicalHistory":""}`

	var p Patient
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(p.Allergies, []string{"Pénicilline", "Pollen"}) {
		t.Errorf("allergies = %v", p.Allergies)
	}
	if len(p.MedicalHistory) != 0 || p.MedicalHistory == nil {
		t.Errorf("medical history = %#v", p.MedicalHistory)
	}
	if p.EmergencyContact.Name != "Pierre Durand" || p.EmergencyContact.Phone != "0987654321" {
		t.Errorf("emergency contact = %+v", p.EmergencyContact)
	}
}

func TestPatient_UnmarshalMissingLists(t *testing.T) {
	var p Patient
	if err := json.Unmarshal([]byte(`{"id":"3","name":"Claire"}`), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Allergies == nil || p.MedicalHistory == nil {
		t.Error("lists should decode as empty, not nil")
	}
}

func TestPatient_UnmarshalRejectsWrongTypes(t *testing.T) {
	var p Patient
	if err := json.Unmarshal([]byte(`{"allergies":42}`), &p); err == nil {
		t.Error("expected error for numeric allergies")
	}
}

func TestUser_ProfileDropsHash(t *testing.T) {
	u := User{Name: "Dr. Martin Dubois", Email: "admin@esante.com", PasswordHash: "$2a$10$x", Role: RoleDoctor}
	data, err := json.Marshal(u.Profile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fields["passwordHash"]; ok {
		t.Error("profile must not carry the password hash")
	}
	if fields["email"] != "admin@esante.com" {
		t.Errorf("email = %v", fields["email"])
	}
}

func TestSameEmail(t *testing.T) {
	if !SameEmail(" Admin@Esante.com", "admin@esante.com ") {
		t.Error("expected case-insensitive match")
	}
	if SameEmail("a@x.com", "b@x.com") {
		t.Error("different addresses matched")
	}
}
