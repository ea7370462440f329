package validator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"medbook/pkg/logger"
	"medbook/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
	now      func() time.Time
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	return &AppointmentValidator{
		validate: validator.New(),
		logger:   log,
		now:      time.Now,
	}
}

// bookingFields carries the per-field rules for a booking request. PatientID
// is validated after the authorization layer has resolved it.
type bookingFields struct {
	PatientID string `validate:"required,mongodb"`
	DoctorID  string `validate:"required,mongodb"`
	Date      string `validate:"required,datetime=2006-01-02"`
	Time      string `validate:"required,datetime=15:04"`
	Reason    string `validate:"required,min=2,max=500"`
}

// ValidateBooking checks field presence and format, then the temporal rules:
// the date must not be in the past, and a same-day booking must not name a
// time already gone. Field failures come first; first failure wins.
func (v *AppointmentValidator) ValidateBooking(appt *model.Appointment) error {
	fields := bookingFields{
		PatientID: appt.PatientID,
		DoctorID:  appt.DoctorID,
		Date:      appt.Date,
		Time:      appt.Time,
		Reason:    appt.Reason,
	}

	if err := v.validate.Struct(fields); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	apptDate, err := time.Parse(model.DateLayout, appt.Date)
	if err != nil {
		return ValidationErrors{ValidationError{Field: "Date", Message: "appointment_date must be in YYYY-MM-DD format"}}
	}
	apptTime, err := time.Parse(model.TimeLayout, appt.Time)
	if err != nil {
		return ValidationErrors{ValidationError{Field: "Time", Message: "appointment_time must be in HH:MM format"}}
	}

	now := v.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	day := time.Date(apptDate.Year(), apptDate.Month(), apptDate.Day(), 0, 0, 0, 0, now.Location())

	if day.Before(today) {
		return ValidationErrors{ValidationError{Field: "Date", Message: "appointment date cannot be in the past"}}
	}

	if day.Equal(today) {
		nowClock := time.Date(0, 1, 1, now.Hour(), now.Minute(), 0, 0, time.UTC)
		slotClock := time.Date(0, 1, 1, apptTime.Hour(), apptTime.Minute(), 0, 0, time.UTC)
		if slotClock.Before(nowClock) {
			return ValidationErrors{ValidationError{Field: "Time", Message: "appointment time cannot be in the past for today's date"}}
		}
	}

	return nil
}

func (v *AppointmentValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s characters", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s characters", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must match the format %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
