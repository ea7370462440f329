package handler

import (
	"encoding/json"
	"net/http"

	"medbook/internal/availability/service"
	apperrors "medbook/pkg/errors"
	httputil "medbook/pkg/http"
	"medbook/pkg/logger"
	"medbook/pkg/middleware"
	"medbook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/doctors/:doctorId/availability", h.GetSchedule)
	router.POST("/api/v1/doctors/:doctorId/availability", h.SetSchedule)
	router.DELETE("/api/v1/doctors/:doctorId/availability", h.DeleteSchedule)
	router.GET("/api/v1/availability/search", h.Search)
}

// GetSchedule returns the doctor's active entries, or just one day's slots
// when ?day= is present. Both shapes are empty rather than 404 when the
// doctor has nothing published.
func (h *AvailabilityHandler) GetSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	doctorID := ps.ByName("doctorId")

	if day := r.URL.Query().Get("day"); day != "" {
		slots := h.service.GetSlots(r.Context(), doctorID, day)
		if err := httputil.WriteSuccess(w, slots); err != nil {
			h.log.Error("failed to write success response", "handler", "GetSchedule", "operation", "WriteSuccess", "error", err)
		}
		return
	}

	entries := h.service.GetFullSchedule(r.Context(), doctorID)
	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "GetSchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) SetSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "SetSchedule", apperrors.Unauthorized("Missing authentication"))
		return
	}

	doctorID := ps.ByName("doctorId")

	var inputs []model.AvailabilityEntryInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		h.writeError(w, "SetSchedule", apperrors.InvalidInput("Invalid request body"))
		return
	}

	entries, err := h.service.SetSchedule(r.Context(), caller, doctorID, inputs)
	if err != nil {
		h.writeError(w, "SetSchedule", err)
		return
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "SetSchedule", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) DeleteSchedule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.writeError(w, "DeleteSchedule", apperrors.Unauthorized("Missing authentication"))
		return
	}

	doctorID := ps.ByName("doctorId")

	if err := h.service.DeleteSchedule(r.Context(), caller, doctorID); err != nil {
		h.writeError(w, "DeleteSchedule", err)
		return
	}

	if err := httputil.WriteMessage(w, "Availability schedule deleted successfully"); err != nil {
		h.log.Error("failed to write message response", "handler", "DeleteSchedule", "operation", "WriteMessage", "error", err)
	}
}

func (h *AvailabilityHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	day := query.Get("day")
	slot := query.Get("slot")

	if day == "" || slot == "" {
		h.writeError(w, "Search", apperrors.InvalidInput("Both day and slot query parameters are required"))
		return
	}

	doctorIDs := h.service.FindDoctorsAvailable(r.Context(), day, slot)
	if err := httputil.WriteSuccess(w, doctorIDs); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
