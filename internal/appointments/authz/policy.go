// Package authz decides which caller may perform which appointment
// operation. Ownership is identity equality: a doctor owns appointments
// whose doctor id matches their subject, a patient likewise.
package authz

import (
	"fmt"

	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

func isOwningDoctor(caller model.Caller, appt *model.Appointment) bool {
	return caller.Role == model.RoleDoctor && caller.SubjectID == appt.DoctorID
}

func isOwningPatient(caller model.Caller, appt *model.Appointment) bool {
	return caller.Role == model.RolePatient && caller.SubjectID == appt.PatientID
}

// CanTransition gates approve, confirm, reject, and complete: admin or the
// owning doctor. The action name only shapes the denial message.
func CanTransition(caller model.Caller, appt *model.Appointment, action string) error {
	if caller.Role == model.RoleAdmin || isOwningDoctor(caller, appt) {
		return nil
	}
	return apperrors.Forbidden(fmt.Sprintf("you can only %s your own appointments", action))
}

// CanCancel additionally admits the owning patient.
func CanCancel(caller model.Caller, appt *model.Appointment) error {
	if caller.Role == model.RoleAdmin || isOwningDoctor(caller, appt) || isOwningPatient(caller, appt) {
		return nil
	}
	return apperrors.Forbidden("no permission to cancel")
}

// CanView allows admin and either owner to read a single appointment.
func CanView(caller model.Caller, appt *model.Appointment) error {
	if caller.Role == model.RoleAdmin || isOwningDoctor(caller, appt) || isOwningPatient(caller, appt) {
		return nil
	}
	return apperrors.Forbidden("you can only view your own appointments")
}

// CanOverride gates the administrative status override: admin or the owning
// doctor, bypassing the state machine.
func CanOverride(caller model.Caller, appt *model.Appointment) error {
	if caller.Role == model.RoleAdmin || isOwningDoctor(caller, appt) {
		return nil
	}
	return apperrors.Forbidden("you can only update the status of your own appointments")
}

// CanBook resolves the patient the booking is for. Admins may book for any
// patient; patients always book for themselves regardless of the supplied id.
func CanBook(caller model.Caller, requestedPatientID string) (string, error) {
	switch caller.Role {
	case model.RoleAdmin:
		return requestedPatientID, nil
	case model.RolePatient:
		return caller.SubjectID, nil
	}
	return "", apperrors.Forbidden("only patients and admins can book appointments")
}

// CanAdminister gates delete and list-all.
func CanAdminister(caller model.Caller) error {
	if caller.Role == model.RoleAdmin {
		return nil
	}
	return apperrors.Forbidden("administrator access required")
}

// CanListFor gates the per-doctor and per-patient listing endpoints: admin,
// or the subject listing their own appointments.
func CanListFor(caller model.Caller, role model.Role, subjectID string) error {
	if caller.Role == model.RoleAdmin {
		return nil
	}
	if caller.Role == role && caller.SubjectID == subjectID {
		return nil
	}
	return apperrors.Forbidden("you can only view your own appointments")
}
