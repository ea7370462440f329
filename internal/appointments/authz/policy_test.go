package authz

import (
	"testing"

	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

var testAppointment = &model.Appointment{
	ID:        "appt-1",
	PatientID: "pat-1",
	DoctorID:  "doc-1",
	Date:      "2030-06-01",
	Time:      "10:00",
	Status:    model.StatusScheduled,
}

var (
	admin         = model.Caller{SubjectID: "adm-1", Role: model.RoleAdmin}
	owningDoctor  = model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor}
	otherDoctor   = model.Caller{SubjectID: "doc-2", Role: model.RoleDoctor}
	owningPatient = model.Caller{SubjectID: "pat-1", Role: model.RolePatient}
	otherPatient  = model.Caller{SubjectID: "pat-2", Role: model.RolePatient}
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		caller  model.Caller
		allowed bool
	}{
		{"admin allowed", admin, true},
		{"owning doctor allowed", owningDoctor, true},
		{"other doctor denied", otherDoctor, false},
		{"owning patient denied", owningPatient, false},
		{"other patient denied", otherPatient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.caller, testAppointment, "approve")
			if tt.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("expected denial")
				}
				appErr := apperrors.AsAppError(err)
				if appErr.Code != apperrors.CodeForbidden {
					t.Errorf("expected forbidden code, got %s", appErr.Code)
				}
				if appErr.Message != "you can only approve your own appointments" {
					t.Errorf("unexpected denial message: %q", appErr.Message)
				}
			}
		})
	}
}

func TestCanTransition_MessageNamesAction(t *testing.T) {
	for _, action := range []string{"approve", "confirm", "reject", "complete"} {
		err := CanTransition(otherDoctor, testAppointment, action)
		if err == nil {
			t.Fatalf("expected denial for %s", action)
		}
		want := "you can only " + action + " your own appointments"
		if got := apperrors.AsAppError(err).Message; got != want {
			t.Errorf("action %s: expected %q, got %q", action, want, got)
		}
	}
}

func TestCanCancel(t *testing.T) {
	tests := []struct {
		name    string
		caller  model.Caller
		allowed bool
	}{
		{"admin allowed", admin, true},
		{"owning doctor allowed", owningDoctor, true},
		{"owning patient allowed", owningPatient, true},
		{"other doctor denied", otherDoctor, false},
		{"other patient denied", otherPatient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanCancel(tt.caller, testAppointment)
			if tt.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tt.allowed {
				if err == nil {
					t.Fatal("expected denial")
				}
				if got := apperrors.AsAppError(err).Message; got != "no permission to cancel" {
					t.Errorf("unexpected denial message: %q", got)
				}
			}
		})
	}
}

func TestCanView(t *testing.T) {
	tests := []struct {
		name    string
		caller  model.Caller
		allowed bool
	}{
		{"admin allowed", admin, true},
		{"owning doctor allowed", owningDoctor, true},
		{"owning patient allowed", owningPatient, true},
		{"other doctor denied", otherDoctor, false},
		{"other patient denied", otherPatient, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanView(tt.caller, testAppointment)
			if tt.allowed != (err == nil) {
				t.Errorf("expected allowed=%v, got err=%v", tt.allowed, err)
			}
		})
	}
}

func TestCanBook(t *testing.T) {
	patientID, err := CanBook(admin, "pat-9")
	if err != nil || patientID != "pat-9" {
		t.Errorf("admin should book for any patient, got (%q, %v)", patientID, err)
	}

	// a patient supplying a foreign id still books for themself
	patientID, err = CanBook(owningPatient, "pat-9")
	if err != nil || patientID != "pat-1" {
		t.Errorf("patient should book for self, got (%q, %v)", patientID, err)
	}

	if _, err := CanBook(owningDoctor, "pat-1"); err == nil {
		t.Error("doctors should not book appointments")
	}
}

func TestCanAdminister(t *testing.T) {
	if err := CanAdminister(admin); err != nil {
		t.Errorf("expected admin allowed, got %v", err)
	}
	if err := CanAdminister(owningDoctor); err == nil {
		t.Error("expected doctor denied")
	}
	if err := CanAdminister(owningPatient); err == nil {
		t.Error("expected patient denied")
	}
}

func TestCanListFor(t *testing.T) {
	if err := CanListFor(admin, model.RoleDoctor, "doc-1"); err != nil {
		t.Errorf("expected admin allowed, got %v", err)
	}
	if err := CanListFor(owningDoctor, model.RoleDoctor, "doc-1"); err != nil {
		t.Errorf("expected owning doctor allowed, got %v", err)
	}
	if err := CanListFor(otherDoctor, model.RoleDoctor, "doc-1"); err == nil {
		t.Error("expected other doctor denied")
	}
	if err := CanListFor(owningPatient, model.RoleDoctor, "doc-1"); err == nil {
		t.Error("expected patient denied for doctor listing")
	}
}
