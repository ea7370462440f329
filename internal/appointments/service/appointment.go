package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"medbook/internal/appointments/authz"
	appointmentserrors "medbook/internal/appointments/errors"
	"medbook/internal/appointments/repository"
	"medbook/internal/appointments/status"
	"medbook/internal/appointments/validator"
	availsvc "medbook/internal/availability/service"
	directoryrepo "medbook/internal/directory/repository"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/events"
	"medbook/pkg/model"
	"medbook/pkg/sanitizer"
)

type AppointmentService interface {
	Book(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error)
	GetByID(ctx context.Context, caller model.Caller, id string) (*model.Appointment, error)
	GetAll(ctx context.Context, caller model.Caller, limit int, offset int64) ([]*model.Appointment, int64, error)
	GetByDoctor(ctx context.Context, caller model.Caller, doctorID string, limit int, offset int64) ([]*model.Appointment, error)
	GetByPatient(ctx context.Context, caller model.Caller, patientID string, limit int, offset int64) ([]*model.Appointment, error)
	Approve(ctx context.Context, caller model.Caller, id string) (string, error)
	Confirm(ctx context.Context, caller model.Caller, id string) (string, error)
	Complete(ctx context.Context, caller model.Caller, id string) (string, error)
	Cancel(ctx context.Context, caller model.Caller, id string) (string, error)
	Reject(ctx context.Context, caller model.Caller, id string, reason string) (string, error)
	SetStatus(ctx context.Context, caller model.Caller, id string, rawStatus string) (*model.Appointment, error)
	Delete(ctx context.Context, caller model.Caller, id string) error
}

type appointmentService struct {
	repo         repository.AppointmentRepository
	lockRepo     repository.SlotLockRepository
	availability availsvc.AvailabilityService
	doctors      directoryrepo.DoctorRepository
	patients     directoryrepo.PatientRepository
	validator    *validator.AppointmentValidator
	publisher    events.Publisher
	cfg          *config.Config
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.SlotLockRepository,
	availability availsvc.AvailabilityService,
	doctors directoryrepo.DoctorRepository,
	patients directoryrepo.PatientRepository,
	validator *validator.AppointmentValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:         repo,
		lockRepo:     lockRepo,
		availability: availability,
		doctors:      doctors,
		patients:     patients,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
	}
}

// Book runs the full validation sequence, then creates the appointment under
// an advisory slot lock and a transactional conflict re-check. The partial
// unique index on (doctor, date, time) is the final backstop; its violation
// also surfaces as a conflict.
func (s *appointmentService) Book(ctx context.Context, caller model.Caller, req *model.BookingRequest) (*model.Appointment, error) {
	patientID, err := authz.CanBook(caller, req.PatientID)
	if err != nil {
		return nil, err
	}

	appt := &model.Appointment{
		PatientID: patientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      availsvc.NormalizeSlot(req.Time),
		Reason:    sanitizer.TrimAndNormalize(req.Reason),
		Status:    model.StatusScheduled,
	}

	if err := s.validator.ValidateBooking(appt); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return nil, apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.checkPatientExists(ctx, appt.PatientID); err != nil {
		return nil, err
	}
	if err := s.checkDoctorExists(ctx, appt.DoctorID); err != nil {
		return nil, err
	}

	apptDate, _ := time.Parse(model.DateLayout, appt.Date)
	if !s.availability.IsAvailable(ctx, appt.DoctorID, model.WeekdayOf(apptDate), appt.Time) {
		return nil, apperrors.Validation("Requested slot is not in the doctor's availability", map[string]any{
			"doctor_id":        appt.DoctorID,
			"appointment_date": appt.Date,
			"appointment_time": appt.Time,
		})
	}

	lockID, err := s.acquireSlotLock(ctx, appt.DoctorID, appt.Date, appt.Time)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		occupied, err := s.repo.ExistsActiveAt(sessCtx, appt.DoctorID, appt.Date, appt.Time)
		if err != nil {
			return apperrors.Internal("Failed to check slot occupancy", err)
		}
		if occupied {
			return apperrors.Conflict("This time slot is already booked")
		}

		if err := s.repo.Create(sessCtx, appt); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return apperrors.Conflict("This time slot is already booked")
			}
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to book appointment", "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Appointment booked successfully",
		"id", appt.ID,
		"patient_id", appt.PatientID,
		"doctor_id", appt.DoctorID,
		"appointment_date", appt.Date,
		"appointment_time", appt.Time,
	)
	s.publish(ctx, events.TypeBooked, appt)
	return appt, nil
}

func (s *appointmentService) GetByID(ctx context.Context, caller model.Caller, id string) (*model.Appointment, error) {
	appt, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanView(caller, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) GetAll(ctx context.Context, caller model.Caller, limit int, offset int64) ([]*model.Appointment, int64, error) {
	if err := authz.CanAdminister(caller); err != nil {
		return nil, 0, err
	}

	var count int64
	var appointments []*model.Appointment
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count appointments", "error", errCount)
			errCount = apperrors.Internal("Failed to count appointments", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		appointments, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list appointments", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve appointments", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return appointments, count, nil
}

func (s *appointmentService) GetByDoctor(ctx context.Context, caller model.Caller, doctorID string, limit int, offset int64) ([]*model.Appointment, error) {
	if err := authz.CanListFor(caller, model.RoleDoctor, doctorID); err != nil {
		return nil, err
	}

	appointments, err := s.repo.FindByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments by doctor", "doctor_id", doctorID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

func (s *appointmentService) GetByPatient(ctx context.Context, caller model.Caller, patientID string, limit int, offset int64) ([]*model.Appointment, error) {
	if err := authz.CanListFor(caller, model.RolePatient, patientID); err != nil {
		return nil, err
	}

	appointments, err := s.repo.FindByPatient(ctx, patientID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list appointments by patient", "patient_id", patientID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

func (s *appointmentService) Approve(ctx context.Context, caller model.Caller, id string) (string, error) {
	return s.transition(ctx, caller, id, status.ActionApprove, "Appointment approved successfully")
}

func (s *appointmentService) Confirm(ctx context.Context, caller model.Caller, id string) (string, error) {
	return s.transition(ctx, caller, id, status.ActionConfirm, "Appointment confirmed successfully")
}

func (s *appointmentService) Complete(ctx context.Context, caller model.Caller, id string) (string, error) {
	return s.transition(ctx, caller, id, status.ActionComplete, "Appointment completed successfully")
}

func (s *appointmentService) Cancel(ctx context.Context, caller model.Caller, id string) (string, error) {
	appt, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := authz.CanCancel(caller, appt); err != nil {
		return "", err
	}

	next, err := status.Apply(appt.Status, status.ActionCancel)
	if err != nil {
		return "", err
	}

	if err := s.persistStatus(ctx, appt, next); err != nil {
		return "", err
	}
	return "Appointment cancelled successfully", nil
}

// Reject moves the appointment to CANCELLED and records why, overwriting the
// original booking reason.
func (s *appointmentService) Reject(ctx context.Context, caller model.Caller, id string, reason string) (string, error) {
	reason = sanitizer.TrimAndNormalize(reason)
	if reason == "" {
		return "", apperrors.InvalidInput("Rejection reason is required")
	}

	appt, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := authz.CanTransition(caller, appt, "reject"); err != nil {
		return "", err
	}

	next, err := status.Apply(appt.Status, status.ActionReject)
	if err != nil {
		return "", err
	}

	if err := s.repo.UpdateStatusAndReason(ctx, id, next, reason); err != nil {
		return "", s.mapUpdateError(id, err)
	}

	appt.Status = next
	appt.Reason = reason
	s.cfg.Log.Info("Appointment status changed", "id", id, "status", next)
	s.publish(ctx, events.TypeStatusChanged, appt)
	return "Appointment rejected successfully", nil
}

// SetStatus is the administrative override: it bypasses the state machine
// entirely and accepts any enumerated status value.
func (s *appointmentService) SetStatus(ctx context.Context, caller model.Caller, id string, rawStatus string) (*model.Appointment, error) {
	appt, err := s.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CanOverride(caller, appt); err != nil {
		return nil, err
	}

	newStatus, ok := model.ParseStatus(rawStatus)
	if !ok {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid status value: %s", rawStatus))
	}

	if err := s.persistStatus(ctx, appt, newStatus); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) Delete(ctx context.Context, caller model.Caller, id string) error {
	if err := authz.CanAdminister(caller); err != nil {
		return err
	}

	appt, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted", "id", id)
	s.publish(ctx, events.TypeDeleted, appt)
	return nil
}

// --- Helpers ---

func (s *appointmentService) transition(ctx context.Context, caller model.Caller, id string, action status.Action, resultMessage string) (string, error) {
	appt, err := s.fetch(ctx, id)
	if err != nil {
		return "", err
	}
	if err := authz.CanTransition(caller, appt, string(action)); err != nil {
		return "", err
	}

	next, err := status.Apply(appt.Status, action)
	if err != nil {
		return "", err
	}

	if err := s.persistStatus(ctx, appt, next); err != nil {
		return "", err
	}
	return resultMessage, nil
}

func (s *appointmentService) persistStatus(ctx context.Context, appt *model.Appointment, next model.AppointmentStatus) error {
	if err := s.repo.UpdateStatus(ctx, appt.ID, next); err != nil {
		return s.mapUpdateError(appt.ID, err)
	}

	appt.Status = next
	s.cfg.Log.Info("Appointment status changed", "id", appt.ID, "status", next)
	s.publish(ctx, events.TypeStatusChanged, appt)
	return nil
}

func (s *appointmentService) mapUpdateError(id string, err error) error {
	if errors.Is(err, appointmentserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Appointment", id)
	}
	if errors.Is(err, appointmentserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid appointment ID format")
	}
	return apperrors.Internal("Failed to update appointment", err)
}

func (s *appointmentService) fetch(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appt, nil
}

func (s *appointmentService) checkPatientExists(ctx context.Context, patientID string) error {
	exists, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		if errors.Is(err, directoryrepo.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid patient ID format")
		}
		return apperrors.Internal("Failed to check patient existence", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("Patient", patientID)
	}
	return nil
}

func (s *appointmentService) checkDoctorExists(ctx context.Context, doctorID string) error {
	exists, err := s.doctors.Exists(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directoryrepo.ErrInvalidID) {
			return apperrors.InvalidInput("Invalid doctor ID format")
		}
		return apperrors.Internal("Failed to check doctor existence", err)
	}
	if !exists {
		return apperrors.NotFoundWithID("Doctor", doctorID)
	}
	return nil
}

// acquireSlotLock creates an advisory lock for the slot coordinates.
// Returns a conflict when another request holds the lock.
func (s *appointmentService) acquireSlotLock(ctx context.Context, doctorID, date, timeSlot string) (string, error) {
	lockID := fmt.Sprintf("appointment_lock_%s_%s_%s", doctorID, date, timeSlot)

	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *appointmentService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// publish is best effort: event delivery never fails the request.
func (s *appointmentService) publish(ctx context.Context, eventType string, appt *model.Appointment) {
	if err := s.publisher.Publish(ctx, events.New(eventType, appt)); err != nil {
		s.cfg.Log.Warn("Failed to publish lifecycle event",
			"event_type", eventType,
			"appointment_id", appt.ID,
			"error", err,
		)
	}
}
