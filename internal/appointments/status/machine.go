// Package status implements the appointment state machine. Apply is pure:
// it inspects the current status and an action, and either yields the next
// status or an InvalidTransition error with the reason the caller can show
// to the user. Administrative overrides bypass this package entirely.
package status

import (
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

type Action string

const (
	ActionApprove  Action = "approve"
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Apply validates action against current and returns the resulting status.
// SCHEDULED and PENDING are interchangeable preconditions everywhere.
func Apply(current model.AppointmentStatus, action Action) (model.AppointmentStatus, error) {
	switch action {
	case ActionApprove:
		if current != model.StatusScheduled && current != model.StatusPending {
			return "", apperrors.InvalidTransition("only scheduled/pending appointments can be approved")
		}
		return model.StatusConfirmed, nil

	case ActionConfirm:
		if current != model.StatusScheduled && current != model.StatusPending {
			return "", apperrors.InvalidTransition("only scheduled/pending appointments can be confirmed")
		}
		return model.StatusConfirmed, nil

	case ActionReject:
		if current == model.StatusCompleted {
			return "", apperrors.InvalidTransition("cannot reject a completed appointment")
		}
		return model.StatusCancelled, nil

	case ActionComplete:
		if current != model.StatusConfirmed {
			return "", apperrors.InvalidTransition("only confirmed appointments can be completed")
		}
		return model.StatusCompleted, nil

	case ActionCancel:
		if current == model.StatusCompleted {
			return "", apperrors.InvalidTransition("cannot cancel a completed appointment")
		}
		return model.StatusCancelled, nil
	}

	return "", apperrors.InvalidTransition("unknown appointment action: " + string(action))
}
