package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"medbook/internal/appointments/service"
	apperrors "medbook/pkg/errors"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/middleware"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AppointmentHandler struct {
	service service.AppointmentService
	log     *logger.Logger
}

func NewAppointmentHandler(service service.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
		log:     log,
	}
}

func (h *AppointmentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/appointments", h.Book)
	router.GET("/api/v1/appointments", h.GetAll)
	router.GET("/api/v1/appointments/id/:id", h.GetByID)
	router.DELETE("/api/v1/appointments/id/:id", h.Delete)
	router.PATCH("/api/v1/appointments/id/:id/approve", h.Approve)
	router.PATCH("/api/v1/appointments/id/:id/confirm", h.Confirm)
	router.PATCH("/api/v1/appointments/id/:id/complete", h.Complete)
	router.PATCH("/api/v1/appointments/id/:id/cancel", h.Cancel)
	router.PATCH("/api/v1/appointments/id/:id/reject", h.Reject)
	router.PATCH("/api/v1/appointments/id/:id/status", h.SetStatus)
	router.GET("/api/v1/appointments/doctor/:doctorId", h.GetByDoctor)
	router.GET("/api/v1/appointments/patient/:patientId", h.GetByPatient)
}

func (h *AppointmentHandler) Book(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "Book", apperrors.Unauthorized("Missing authentication"))
		return
	}

	var req model.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Book", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.Book(r.Context(), caller, &req)
	if err != nil {
		h.writeError(w, "Book", err)
		return
	}

	if err := httputil.WriteCreated(w, appt); err != nil {
		h.log.Error("failed to write created response", "handler", "Book", "operation", "WriteCreated", "error", err)
	}
}

func (h *AppointmentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Missing authentication"))
		return
	}

	appt, err := h.service.GetByID(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetAll", apperrors.Unauthorized("Missing authentication"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	appointments, total, err := h.service.GetAll(r.Context(), caller, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, appointments, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *AppointmentHandler) GetByDoctor(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByDoctor", apperrors.Unauthorized("Missing authentication"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetByDoctor", err)
		return
	}

	appointments, err := h.service.GetByDoctor(r.Context(), caller, ps.ByName("doctorId"), limit, offset)
	if err != nil {
		h.writeError(w, "GetByDoctor", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointments); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByDoctor", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) GetByPatient(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByPatient", apperrors.Unauthorized("Missing authentication"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetByPatient", err)
		return
	}

	appointments, err := h.service.GetByPatient(r.Context(), caller, ps.ByName("patientId"), limit, offset)
	if err != nil {
		h.writeError(w, "GetByPatient", err)
		return
	}

	if err := httputil.WriteSuccess(w, appointments); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByPatient", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps, "Approve", h.service.Approve)
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps, "Confirm", h.service.Confirm)
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps, "Complete", h.service.Complete)
}

func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.runTransition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *AppointmentHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "Reject", apperrors.Unauthorized("Missing authentication"))
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "Reject", apperrors.InvalidInput("Invalid request body"))
		return
	}

	msg, err := h.service.Reject(r.Context(), caller, ps.ByName("id"), body.Reason)
	if err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	if err := httputil.WriteMessage(w, msg); err != nil {
		h.log.Error("failed to write message response", "handler", "Reject", "operation", "WriteMessage", "error", err)
	}
}

func (h *AppointmentHandler) SetStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "SetStatus", apperrors.Unauthorized("Missing authentication"))
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.writeError(w, "SetStatus", apperrors.InvalidInput("Invalid request body"))
		return
	}

	appt, err := h.service.SetStatus(r.Context(), caller, ps.ByName("id"), body.Status)
	if err != nil {
		h.writeError(w, "SetStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, appt); err != nil {
		h.log.Error("failed to write success response", "handler", "SetStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AppointmentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "Delete", apperrors.Unauthorized("Missing authentication"))
		return
	}

	if err := h.service.Delete(r.Context(), caller, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteMessage(w, "Appointment deleted successfully"); err != nil {
		h.log.Error("failed to write message response", "handler", "Delete", "operation", "WriteMessage", "error", err)
	}
}

type transitionFunc func(ctx context.Context, caller model.Caller, id string) (string, error)

func (h *AppointmentHandler) runTransition(w http.ResponseWriter, r *http.Request, ps httprouter.Params, name string, fn transitionFunc) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, name, apperrors.Unauthorized("Missing authentication"))
		return
	}

	msg, err := fn(r.Context(), caller, ps.ByName("id"))
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteMessage(w, msg); err != nil {
		h.log.Error("failed to write message response", "handler", name, "operation", "WriteMessage", "error", err)
	}
}

func (h *AppointmentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
