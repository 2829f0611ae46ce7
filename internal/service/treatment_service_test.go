package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

func TestPrescribe_Defaults(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).treatmentService()

	tr, err := s.Prescribe(ctx, domain.Treatment{
		PatientID:  "2",
		Medication: "Ibuprofène 400mg",
		Dosage:     "1 comprimé",
		Frequency:  "2 fois par jour",
	})
	require.NoError(t, err)
	assert.Equal(t, "Paul Martin", tr.PatientName)
	assert.Equal(t, domain.TreatmentActive, tr.Status)
	assert.Equal(t, "2024-03-15", tr.StartDate)
}

func TestPrescribe_Validation(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).treatmentService()
	valid := domain.Treatment{PatientID: "1", Medication: "X", Dosage: "1", StartDate: "2024-03-10"}

	tests := []struct {
		name string
		edit func(*domain.Treatment)
		want error
	}{
		{"missing medication", func(tr *domain.Treatment) { tr.Medication = "" }, domain.ErrValidation},
		{"missing dosage", func(tr *domain.Treatment) { tr.Dosage = " " }, domain.ErrValidation},
		{"bad start", func(tr *domain.Treatment) { tr.StartDate = "demain" }, domain.ErrValidation},
		{"end before start", func(tr *domain.Treatment) { tr.EndDate = "2024-03-01" }, domain.ErrValidation},
		{"bad status", func(tr *domain.Treatment) { tr.Status = "paused" }, domain.ErrValidation},
		{"unknown patient", func(tr *domain.Treatment) { tr.PatientID = "9" }, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := valid
			tt.edit(&tr)
			_, err := s.Prescribe(ctx, tr)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTreatmentTransitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.treatmentService()

	suspended, err := s.Transition(ctx, "1", domain.TreatmentSuspended)
	require.NoError(t, err)
	assert.Equal(t, domain.TreatmentSuspended, suspended.Status)

	_, err = s.Transition(ctx, "1", domain.TreatmentFinished)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	active, err := s.Transition(ctx, "1", domain.TreatmentActive)
	require.NoError(t, err)
	assert.Equal(t, domain.TreatmentActive, active.Status)

	_, err = s.Transition(ctx, "3", domain.TreatmentActive)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	added, err := s.Prescribe(ctx, domain.Treatment{PatientID: "3", Medication: "Cétirizine", Dosage: "1"})
	require.NoError(t, err)
	finished, err := s.Transition(ctx, added.ID, domain.TreatmentFinished)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", finished.EndDate)
}

func TestEdit_Treatment(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).treatmentService()

	edited, err := s.Edit(ctx, "2", domain.Patch{"dosage": "2 comprimés", "status": "suspendu"})
	require.NoError(t, err)
	assert.Equal(t, "2 comprimés", edited.Dosage)
	assert.Equal(t, domain.TreatmentSuspended, edited.Status)
	assert.Equal(t, "Lisinopril 10mg", edited.Medication)

	_, err = s.Edit(ctx, "3", domain.Patch{"status": "actif"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.Edit(ctx, "2", domain.Patch{"endDate": "bientôt"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = s.Edit(ctx, "2", domain.Patch{"medication": 12})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestList_Treatments(t *testing.T) {
	ctx := context.Background()
	s := newFixture(t, true).treatmentService()

	active, err := s.List(ctx, TreatmentFilter{Status: domain.TreatmentActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	all, err := s.List(ctx, TreatmentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3", all[2].ID, "oldest createdAt last")

	search, err := s.List(ctx, TreatmentFilter{Search: "amoxi"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, domain.TreatmentFinished, search[0].Status)
}

func TestEdit_TreatmentKeysAndCallerPatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	s := f.treatmentService()

	_, err := s.Edit(ctx, "2", domain.Patch{"patientName": "x", "patientname": "Forged Name"})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = s.Edit(ctx, "2", domain.Patch{"startdate": "demain"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	patch := domain.Patch{"patientId": "3", "patientName": "forged"}
	edited, err := s.Edit(ctx, "2", patch)
	require.NoError(t, err)
	assert.Equal(t, "Claire Rousseau", edited.PatientName)
	assert.Equal(t, domain.Patch{"patientId": "3", "patientName": "forged"}, patch)
}

func TestTreatmentTransition_ConcurrentFinishAndSuspend(t *testing.T) {
	ctx := context.Background()
	f := newFixtureOn(t, true, func(m *storage.MemoryBackend) storage.Backend {
		return &slowBackend{MemoryBackend: m, delay: 2 * time.Millisecond}
	})
	s := f.treatmentService()

	// both are legal from actif but neither is legal after the other
	var wg sync.WaitGroup
	var finishErr, suspendErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, finishErr = s.Transition(ctx, "1", domain.TreatmentFinished)
	}()
	go func() {
		defer wg.Done()
		_, suspendErr = s.Transition(ctx, "1", domain.TreatmentSuspended)
	}()
	wg.Wait()

	stored, err := f.repos.Treatments.Get(ctx, "1")
	require.NoError(t, err)
	switch {
	case finishErr == nil && suspendErr == nil:
		t.Fatalf("both transitions succeeded, final status %s", stored.Status)
	case finishErr == nil:
		assert.ErrorIs(t, suspendErr, domain.ErrInvalidTransition)
		assert.Equal(t, domain.TreatmentFinished, stored.Status)
	default:
		require.NoError(t, suspendErr)
		assert.ErrorIs(t, finishErr, domain.ErrInvalidTransition)
		assert.Equal(t, domain.TreatmentSuspended, stored.Status)
	}
}
