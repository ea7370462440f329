package repository

import "errors"

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidID       = errors.New("invalid directory ID format")
)
