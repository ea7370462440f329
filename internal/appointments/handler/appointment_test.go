package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/middleware"
	"medbook/pkg/model"
)

// Mock service for testing
type mockAppointmentService struct {
	bookFunc    func(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error)
	approveFunc func(ctx context.Context, caller model.Caller, id string) (string, error)
}

func (m *mockAppointmentService) Book(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error) {
	if m.bookFunc != nil {
		return m.bookFunc(ctx, caller, req)
	}
	return &model.Appointment{}, nil
}

func (m *mockAppointmentService) GetByID(ctx context.Context, caller model.Caller, id string) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (m *mockAppointmentService) GetAll(ctx context.Context, caller model.Caller, limit int, offset int64) ([]*model.Appointment, int64, error) {
	return []*model.Appointment{}, 0, nil
}

func (m *mockAppointmentService) GetByDoctor(ctx context.Context, caller model.Caller, doctorID string, limit int, offset int64) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentService) GetByPatient(ctx context.Context, caller model.Caller, patientID string, limit int, offset int64) ([]*model.Appointment, error) {
	return []*model.Appointment{}, nil
}

func (m *mockAppointmentService) Approve(ctx context.Context, caller model.Caller, id string) (string, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, caller, id)
	}
	return "Appointment approved successfully", nil
}

func (m *mockAppointmentService) Confirm(ctx context.Context, caller model.Caller, id string) (string, error) {
	return "Appointment confirmed successfully", nil
}

func (m *mockAppointmentService) Complete(ctx context.Context, caller model.Caller, id string) (string, error) {
	return "Appointment completed successfully", nil
}

func (m *mockAppointmentService) Cancel(ctx context.Context, caller model.Caller, id string) (string, error) {
	return "Appointment cancelled successfully", nil
}

func (m *mockAppointmentService) Reject(ctx context.Context, caller model.Caller, id string, reason string) (string, error) {
	return "Appointment rejected successfully", nil
}

func (m *mockAppointmentService) SetStatus(ctx context.Context, caller model.Caller, id string, rawStatus string) (*model.Appointment, error) {
	return &model.Appointment{ID: id}, nil
}

func (m *mockAppointmentService) Delete(ctx context.Context, caller model.Caller, id string) error {
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard, Service: "test"})
}

func withCaller(r *http.Request, caller model.Caller) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.CallerKey, caller)
	return r.WithContext(ctx)
}

func TestBook_StatusCodes(t *testing.T) {
	caller := model.Caller{SubjectID: "pat-1", Role: model.RolePatient}

	tests := []struct {
		name       string
		body       string
		bookFunc   func(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error)
		wantStatus int
	}{
		{
			name: "created",
			body: `{"doctor_id":"doc-1","appointment_date":"2030-06-15","appointment_time":"10:00","reason":"checkup"}`,
			bookFunc: func(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error) {
				return &model.Appointment{ID: "appt-1", Status: model.StatusScheduled}, nil
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       `{not json`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "conflict",
			body: `{"doctor_id":"doc-1","appointment_date":"2030-06-15","appointment_time":"10:00","reason":"checkup"}`,
			bookFunc: func(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error) {
				return nil, apperrors.Conflict("This time slot is already booked")
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "validation failure",
			body: `{"doctor_id":"doc-1"}`,
			bookFunc: func(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error) {
				return nil, apperrors.Validation("Booking validation failed", nil)
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAppointmentHandler(&mockAppointmentService{bookFunc: tt.bookFunc}, testLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(tt.body))
			req = withCaller(req, caller)
			rec := httptest.NewRecorder()

			handler.Book(rec, req, nil)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d (body %s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestBook_MissingCaller(t *testing.T) {
	handler := NewAppointmentHandler(&mockAppointmentService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Book(rec, req, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestApprove_ResultMessage(t *testing.T) {
	handler := NewAppointmentHandler(&mockAppointmentService{}, testLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/id/appt-1/approve", nil)
	req = withCaller(req, model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor})
	rec := httptest.NewRecorder()

	handler.Approve(rec, req, httprouter.Params{{Key: "id", Value: "appt-1"}})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Message != "Appointment approved successfully" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestApprove_TransitionErrorIsBadRequest(t *testing.T) {
	handler := NewAppointmentHandler(&mockAppointmentService{
		approveFunc: func(ctx context.Context, caller model.Caller, id string) (string, error) {
			return "", apperrors.InvalidTransition("only scheduled/pending appointments can be approved")
		},
	}, testLogger())

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/appointments/id/appt-1/approve", nil)
	req = withCaller(req, model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor})
	rec := httptest.NewRecorder()

	handler.Approve(rec, req, httprouter.Params{{Key: "id", Value: "appt-1"}})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "only scheduled/pending appointments can be approved" {
		t.Errorf("unexpected error message %q", body.Error)
	}
}

func TestRouteRegistration(t *testing.T) {
	router := httprouter.New()
	NewAppointmentHandler(&mockAppointmentService{}, testLogger()).RegisterRoutes(router)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/appointments/id/appt-1", nil)
	req = withCaller(req, model.Caller{Role: model.RoleAdmin})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusNotFound || rec.Code == http.StatusMethodNotAllowed {
		t.Errorf("delete route not registered, got %d", rec.Code)
	}
}
