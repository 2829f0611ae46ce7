package handler

import (
	"log/slog"
	"net/http"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
)

// TreatmentHandler serves /api/treatments
type TreatmentHandler struct {
	treatments *service.TreatmentService
	logger     *slog.Logger
}

// NewTreatmentHandler creates a new treatment handler
func NewTreatmentHandler(treatments *service.TreatmentService, logger *slog.Logger) *TreatmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TreatmentHandler{treatments: treatments, logger: logger}
}

// List handles GET /api/treatments?search=&status=
func (h *TreatmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.treatments.List(r.Context(), service.TreatmentFilter{
		Search: q.Get("search"),
		Status: domain.TreatmentStatus(q.Get("status")),
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/treatments
func (h *TreatmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Treatment
	if !decode(w, r, &req, h.logger) {
		return
	}

	t, err := h.treatments.Prescribe(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Update handles PATCH /api/treatments/{id}
func (h *TreatmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !decode(w, r, &patch, h.logger) {
		return
	}

	t, err := h.treatments.Edit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Status handles POST /api/treatments/{id}/status
func (h *TreatmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	t, err := h.treatments.Transition(r.Context(), r.PathValue("id"), domain.TreatmentStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, t)
}
