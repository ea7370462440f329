package events

import (
	"time"

	"github.com/google/uuid"

	"medbook/pkg/model"
)

const (
	TypeBooked        = "appointment.booked"
	TypeStatusChanged = "appointment.status_changed"
	TypeDeleted       = "appointment.deleted"
)

// Event is one appointment lifecycle fact, keyed by appointment id so all
// events for an appointment land on the same partition in order.
type Event struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	DoctorID      string    `json:"doctor_id"`
	PatientID     string    `json:"patient_id"`
	Status        string    `json:"status,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func New(eventType string, appt *model.Appointment) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		PatientID:     appt.PatientID,
		Status:        string(appt.Status),
		OccurredAt:    time.Now().UTC(),
	}
}
