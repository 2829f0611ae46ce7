package handler

import (
	"log/slog"
	"net/http"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
)

// RecordHandler serves /api/records
type RecordHandler struct {
	records *service.MedicalRecordService
	logger  *slog.Logger
}

// NewRecordHandler creates a new medical record handler
func NewRecordHandler(records *service.MedicalRecordService, logger *slog.Logger) *RecordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordHandler{records: records, logger: logger}
}

// List handles GET /api/records?search=&type=&patientId=
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.records.List(r.Context(), service.RecordFilter{
		Search:    q.Get("search"),
		Type:      domain.RecordType(q.Get("type")),
		PatientID: q.Get("patientId"),
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.MedicalRecord
	if !decode(w, r, &req, h.logger) {
		return
	}

	rec, err := h.records.Add(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// Update handles PATCH /api/records/{id}
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !decode(w, r, &patch, h.logger) {
		return
	}

	rec, err := h.records.Edit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Summary handles GET /api/records/summary
func (h *RecordHandler) Summary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.records.CountByType(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
