package model

import (
	"strings"
	"time"
)

// AppointmentStatus is the closed set of appointment states. SCHEDULED and
// PENDING both mean "awaiting doctor action"; COMPLETED and CANCELLED are
// terminal.
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusPending   AppointmentStatus = "PENDING"
	StatusConfirmed AppointmentStatus = "CONFIRMED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func ParseStatus(s string) (AppointmentStatus, bool) {
	switch AppointmentStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, true
	case StatusPending:
		return StatusPending, true
	case StatusConfirmed:
		return StatusConfirmed, true
	case StatusCompleted:
		return StatusCompleted, true
	case StatusCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// Terminal reports whether no further transition is permitted from s.
func (s AppointmentStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

type Appointment struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	PatientID string            `json:"patient_id" bson:"patient_id" validate:"required,mongodb"`
	DoctorID  string            `json:"doctor_id" bson:"doctor_id" validate:"required,mongodb"`
	Date      string            `json:"appointment_date" bson:"appointment_date" validate:"required,datetime=2006-01-02"`
	Time      string            `json:"appointment_time" bson:"appointment_time" validate:"required,datetime=15:04"`
	Reason    string            `json:"reason" bson:"reason" validate:"required,min=2,max=500"`
	Status    AppointmentStatus `json:"status" bson:"status" validate:"required,oneof=SCHEDULED PENDING CONFIRMED COMPLETED CANCELLED"`
	CreatedAt time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingRequest is the body of POST /appointments. PatientID is honored only
// for admin callers; patient callers always book for themselves.
type BookingRequest struct {
	PatientID string `json:"patient_id,omitempty"`
	DoctorID  string `json:"doctor_id"`
	Date      string `json:"appointment_date"`
	Time      string `json:"appointment_time"`
	Reason    string `json:"reason"`
}
