package errors

import "errors"

var (
	ErrNotFound = errors.New("availability entry not found")

	ErrInvalidID = errors.New("invalid availability ID format")
)
