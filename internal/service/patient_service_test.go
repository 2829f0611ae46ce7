package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
)

func TestPatientService_Add(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := NewPatientService(f.repos.Patients, f.logger)

	p, err := s.Add(ctx, domain.Patient{Name: "A", Email: "a@x.com", Phone: "1"})
	require.NoError(t, err)
	assert.NotNil(t, p.Allergies)
	assert.NotNil(t, p.MedicalHistory)

	list, err := s.List(ctx, PatientFilter{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "A", list[3].Name)

	_, err = s.Add(ctx, domain.Patient{Name: "B", Email: "b@x.com"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Add(ctx, domain.Patient{Name: "B", Email: "b@x.com", Phone: "2", DateOfBirth: "15/03/1985"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPatientService_UpdateAndSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := NewPatientService(f.repos.Patients, f.logger)

	p, err := s.Update(ctx, "2", domain.Patch{"allergies": []any{"Arachides"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Arachides"}, p.Allergies)
	assert.Equal(t, "Paul Martin", p.Name)

	_, err = s.Update(ctx, "2", domain.Patch{"email": ""})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Update(ctx, "2", domain.Patch{"email": "nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Update(ctx, "404", domain.Patch{"phone": "1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Update(ctx, "1", domain.Patch{"dateofbirth": "not-a-date"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	stored, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1985-03-15", stored.DateOfBirth)

	found, err := s.List(ctx, PatientFilter{Search: "ROUSSEAU"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "3", found[0].ID)

	byEmail, err := s.List(ctx, PatientFilter{Search: "paul.martin@"})
	require.NoError(t, err)
	assert.Len(t, byEmail, 1)
}

func TestPatientDirectory_Snapshot(t *testing.T) {
	ctx := context.Background()
	d := newFixture(t, true).directory()

	name, err := d.Snapshot(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Marie Durand", name)

	_, err = d.Snapshot(ctx, "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = d.Snapshot(ctx, "99")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
