package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/events"
	"github.com/ShadowCodeSoftware/E-sante/internal/reliability/retry"
	"github.com/ShadowCodeSoftware/E-sante/internal/repository"
	"github.com/ShadowCodeSoftware/E-sante/internal/security/auth"
	"github.com/ShadowCodeSoftware/E-sante/internal/seed"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
	"github.com/ShadowCodeSoftware/E-sante/internal/storage"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testAPI struct {
	backend *storage.MemoryBackend
	broker  *events.Broker
	handler http.Handler
}

func newTestAPI(t *testing.T, checks map[string]Pinger) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend := storage.NewMemoryBackend()
	store := storage.New(backend, logger, storage.WithRetry(&retry.Config{
		MaxAttempts:       1,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1,
	}))
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	_, err := seed.NewInitializer(store, hasher, logger).Run(context.Background())
	require.NoError(t, err)

	broker := events.NewBroker(16)
	repos := repository.NewSet(store, broker, logger)
	directory := service.NewPatientDirectory(repos.Patients)
	tokens := auth.NewTokenManager("test-secret", "")

	svc := Services{
		Auth:         service.NewAuthService(repos.Users, hasher, tokens, service.NewSessionStore(store), time.Hour, logger),
		Patients:     service.NewPatientService(repos.Patients, logger),
		Appointments: service.NewAppointmentService(repos.Appointments, directory, logger),
		Treatments:   service.NewTreatmentService(repos.Treatments, directory, logger),
		Records:      service.NewMedicalRecordService(repos.MedicalRecords, directory, logger),
		Dashboard:    service.NewDashboardService(repos.Patients, repos.Appointments, repos.Treatments, 0, logger),
	}
	if checks == nil {
		checks = map[string]Pinger{"store": store}
	}

	h := NewRouter(svc, RouterConfig{
		Tokens:     tokens,
		Broker:     broker,
		Checks:     checks,
		ChangeFeed: true,
	}, logger)

	return &testAPI{backend: backend, broker: broker, handler: h}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var session service.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session.Token
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = api.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	ready := decodeBody[ReadinessResponse](t, rec)
	assert.Equal(t, "ok", ready.Checks["store"])
}

func TestReadyReportsFailingDependency(t *testing.T) {
	api := newTestAPI(t, map[string]Pinger{
		"store": pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	rec := api.do(t, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	ready := decodeBody[ReadinessResponse](t, rec)
	assert.Equal(t, "not_ready", ready.Status)
	assert.Contains(t, ready.Checks["store"], "connection refused")
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t, nil)

	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)
	rec := api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeBody[map[string]any](t, rec)
	assert.Equal(t, seed.DoctorEmail, me["email"])
	assert.NotContains(t, me, "passwordHash")

	rec = api.do(t, http.MethodPost, "/api/auth/login", "", LoginRequest{Email: seed.DoctorEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeBody[ErrorResponse](t, rec).Error)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/api/auth/register", "", service.RegisterInput{
		Name:            "Autre",
		Email:           strings.ToUpper(seed.PatientEmail),
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Phone:           "0600000000",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, path := range []string{"/api/patients", "/api/appointments", "/api/dashboard", "/api/auth/me"} {
		rec := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestPatientsCRUD(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	rec := api.do(t, http.MethodGet, "/api/patients", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Patient](t, rec), 3)

	rec = api.do(t, http.MethodGet, "/api/patients?search=MARIE", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	found := decodeBody[[]domain.Patient](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Marie Durand", found[0].Name)

	rec = api.do(t, http.MethodPost, "/api/patients", token, map[string]any{
		"name":      "Lucie Bernard",
		"email":     "lucie@example.com",
		"phone":     "0611223344",
		"allergies": "Pollen, Arachides",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[domain.Patient](t, rec)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"Pollen", "Arachides"}, created.Allergies)

	rec = api.do(t, http.MethodPatch, "/api/patients/"+created.ID, token, map[string]any{"phone": "0699999999"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0699999999", decodeBody[domain.Patient](t, rec).Phone)

	rec = api.do(t, http.MethodGet, "/api/patients/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[domain.Patient](t, rec)
	assert.Equal(t, "Lucie Bernard", got.Name)
	assert.Equal(t, "0699999999", got.Phone)
}

func TestPatientValidationAndNotFound(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	rec := api.do(t, http.MethodPost, "/api/patients", token, map[string]any{"name": "Sans Tel", "email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "phone", decodeBody[ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodGet, "/api/patients/999", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPatch, "/api/patients/999", token, map[string]any{"phone": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPatientRoleCannotWrite(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.PatientEmail, seed.PatientPassword)

	rec := api.do(t, http.MethodGet, "/api/patients", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/patients", token, map[string]any{"name": "X", "email": "x@example.com", "phone": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAppointmentStatus(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	rec := api.do(t, http.MethodPost, "/api/appointments/2/status", token, StatusRequest{Status: "completed"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.AppointmentCompleted, decodeBody[domain.Appointment](t, rec).Status)

	rec = api.do(t, http.MethodPost, "/api/appointments/2/status", token, StatusRequest{Status: "scheduled"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(t, http.MethodPost, "/api/appointments/999/status", token, StatusRequest{Status: "completed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleAppointmentSnapshotsName(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	rec := api.do(t, http.MethodPost, "/api/appointments", token, map[string]any{
		"patientId": "3",
		"date":      "2030-01-10",
		"time":      "10:00",
		"type":      "Consultation",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	appt := decodeBody[domain.Appointment](t, rec)
	assert.Equal(t, "Claire Rousseau", appt.PatientName)
	assert.Equal(t, domain.AppointmentScheduled, appt.Status)

	rec = api.do(t, http.MethodPost, "/api/appointments", token, map[string]any{
		"patientId": "42",
		"date":      "2030-01-10",
		"time":      "10:00",
		"type":      "Consultation",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTreatmentsAndRecords(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	rec := api.do(t, http.MethodGet, "/api/treatments?status=actif", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.Treatment](t, rec), 2)

	rec = api.do(t, http.MethodPost, "/api/treatments/1/status", token, StatusRequest{Status: "terminé"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decodeBody[domain.Treatment](t, rec).EndDate)

	rec = api.do(t, http.MethodGet, "/api/records?type=vaccination", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	records := decodeBody[[]domain.MedicalRecord](t, rec)
	require.Len(t, records, 1)
	assert.Equal(t, "Rappel DTP", records[0].Title)

	rec = api.do(t, http.MethodGet, "/api/records/summary", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	counts := decodeBody[map[string]int](t, rec)
	assert.Equal(t, 1, counts["surgery"])

	rec = api.do(t, http.MethodPost, "/api/records", token, map[string]any{"patientId": "1", "title": "X", "type": "radio"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.PatientEmail, seed.PatientPassword)

	rec := api.do(t, http.MethodGet, "/api/dashboard", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[service.DashboardStats](t, rec)
	assert.Equal(t, 3, stats.Patients)
	assert.Equal(t, 4, stats.Appointments)
	assert.Equal(t, 2, stats.ActiveTreatments)
	assert.Equal(t, 1, stats.TodayAppointments)
}

func TestStorageFailuresAreGeneric(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	api.backend.SetFailures(false, true)
	rec := api.do(t, http.MethodPost, "/api/patients", token, map[string]any{"name": "A", "email": "a@example.com", "phone": "1"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "could not save data", decodeBody[ErrorResponse](t, rec).Error)

	api.backend.SetFailures(true, false)
	rec = api.do(t, http.MethodGet, "/api/patients", token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "could not load data", decodeBody[ErrorResponse](t, rec).Error)
}

func TestRejectsNonJSONBody(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader("name=x"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestChangeFeed(t *testing.T) {
	api := newTestAPI(t, nil)
	token := api.login(t, seed.DoctorEmail, seed.DoctorPassword)

	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/changes?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return api.broker.Subscribers() > 0 }, time.Second, 10*time.Millisecond)

	rec := api.do(t, http.MethodPatch, "/api/patients/1", token, map[string]any{"address": "1 rue Neuve"})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var change events.Change
	require.NoError(t, conn.ReadJSON(&change))
	assert.Equal(t, domain.KeyPatients, change.Collection)
	assert.Equal(t, events.OpUpdate, change.Op)
	assert.Equal(t, "1", change.ID)
}
