package handler

import (
	"log/slog"
	"net/http"

	"github.com/ShadowCodeSoftware/E-sante/internal/domain"
	"github.com/ShadowCodeSoftware/E-sante/internal/service"
)

// StatusRequest moves an entity to a new lifecycle state
type StatusRequest struct {
	Status string `json:"status"`
}

// AppointmentHandler serves /api/appointments
type AppointmentHandler struct {
	appointments *service.AppointmentService
	logger       *slog.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(appointments *service.AppointmentService, logger *slog.Logger) *AppointmentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AppointmentHandler{appointments: appointments, logger: logger}
}

// List handles GET /api/appointments?search=&period=
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.appointments.List(r.Context(), service.AppointmentFilter{
		Search: q.Get("search"),
		Period: q.Get("period"),
	})
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/appointments
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.Appointment
	if !decode(w, r, &req, h.logger) {
		return
	}

	appt, err := h.appointments.Schedule(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// Update handles PATCH /api/appointments/{id}
func (h *AppointmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.Patch
	if !decode(w, r, &patch, h.logger) {
		return
	}

	appt, err := h.appointments.Edit(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// Status handles POST /api/appointments/{id}/status
func (h *AppointmentHandler) Status(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decode(w, r, &req, h.logger) {
		return
	}

	appt, err := h.appointments.Transition(r.Context(), r.PathValue("id"), domain.AppointmentStatus(req.Status))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}
