package handler

import (
	"log/slog"
	"net/http"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
)

// PatientHandler serves /api/patients
type PatientHandler struct {
	patients *service.PatientService
	logger   *slog.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patients *service.PatientService, logger *slog.Logger) *PatientHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PatientHandler{patients: patients, logger: logger}
}

// List handles GET /api/patients?search=
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patients.List(r.Context(), service.PatientFilter{
		Search: r.URL.Query().Get("search"),
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, patients)
}

// Get handles GET /api/patients/{id}
func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	patient, err := h.patients.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

// Create handles POST /api/patients
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Patient
	if !decode(w, r, &req, h.logger) {
		return
	}

	patient, err := h.patients.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, patient)
}

// Update handles PATCH /api/patients/{id}
func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !decode(w, r, &patch, h.logger) {
		return
	}

	patient, err := h.patients.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}
