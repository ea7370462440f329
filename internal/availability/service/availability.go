package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	availabilityerrors "medbook/internal/availability/errors"
	"medbook/internal/availability/repository"
	directoryrepo "medbook/internal/directory/repository"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/model"
)

type AvailabilityService interface {
	SetSchedule(ctx context.Context, caller model.Caller, doctorID string, inputs []model.AvailabilityEntryInput) ([]*model.AvailabilityEntry, error)
	GetSlots(ctx context.Context, doctorID string, day string) []string
	GetFullSchedule(ctx context.Context, doctorID string) []*model.AvailabilityEntry
	FindDoctorsAvailable(ctx context.Context, day string, slot string) []string
	IsAvailable(ctx context.Context, doctorID string, day model.Weekday, slot string) bool
	DeleteSchedule(ctx context.Context, caller model.Caller, doctorID string) error
}

type availabilityService struct {
	repo    repository.AvailabilityRepository
	doctors directoryrepo.DoctorRepository
	cfg     *config.Config
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	doctors directoryrepo.DoctorRepository,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:    repo,
		doctors: doctors,
		cfg:     cfg,
	}
}

// NormalizeSlot rewrites H:M, HH:MM, or HH:MM:SS inputs to zero-padded
// HH:MM. Non-conforming strings pass through unchanged; callers relying on
// membership checks will simply not match them.
func NormalizeSlot(slot string) string {
	parts := strings.Split(strings.TrimSpace(slot), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return slot
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return slot
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return slot
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return slot
	}

	return fmt.Sprintf("%02d:%02d", hour, minute)
}

func (s *availabilityService) SetSchedule(ctx context.Context, caller model.Caller, doctorID string, inputs []model.AvailabilityEntryInput) ([]*model.AvailabilityEntry, error) {
	if err := s.authorizeScheduleWrite(caller, doctorID); err != nil {
		return nil, err
	}

	exists, err := s.doctors.Exists(ctx, doctorID)
	if err != nil {
		if errors.Is(err, directoryrepo.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid doctor ID format")
		}
		return nil, apperrors.Internal("Failed to check doctor existence", err)
	}
	if !exists {
		return nil, apperrors.NotFoundWithID("Doctor", doctorID)
	}

	entries, err := buildEntries(doctorID, inputs)
	if err != nil {
		return nil, err
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return s.repo.ReplaceForDoctor(sessCtx, doctorID, entries)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to replace availability schedule",
			"doctor_id", doctorID,
			"error", err,
		)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Internal("Failed to update availability", err)
	}

	s.cfg.Log.Info("Availability schedule replaced",
		"doctor_id", doctorID,
		"entries", len(entries),
	)
	return entries, nil
}

// buildEntries normalizes slots, drops empty entries, and rejects duplicate
// weekdays. Entries with an empty slot list are never stored.
func buildEntries(doctorID string, inputs []model.AvailabilityEntryInput) ([]*model.AvailabilityEntry, error) {
	entries := make([]*model.AvailabilityEntry, 0, len(inputs))
	seenDays := make(map[model.Weekday]bool, len(inputs))

	for _, input := range inputs {
		day, ok := model.ParseWeekday(input.DayOfWeek)
		if !ok {
			return nil, apperrors.Validation("Invalid day of week", map[string]any{
				"day_of_week": input.DayOfWeek,
			})
		}
		if seenDays[day] {
			return nil, apperrors.Validation("Duplicate availability entry for weekday", map[string]any{
				"day_of_week": string(day),
			})
		}
		seenDays[day] = true

		slots := normalizeSlots(input.TimeSlots)
		if len(slots) == 0 {
			continue
		}

		entries = append(entries, &model.AvailabilityEntry{
			DoctorID:  doctorID,
			DayOfWeek: day,
			TimeSlots: slots,
			IsActive:  input.IsActive,
		})
	}

	return entries, nil
}

func normalizeSlots(slots []string) []string {
	out := make([]string, 0, len(slots))
	seen := make(map[string]bool, len(slots))

	for _, slot := range slots {
		normalized := NormalizeSlot(slot)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}

	return out
}

// GetSlots returns the active entry's slots for the given day, or an empty
// list on any failure. "No availability" is never an error here.
func (s *availabilityService) GetSlots(ctx context.Context, doctorID string, day string) []string {
	weekday, ok := model.ParseWeekday(day)
	if !ok {
		return []string{}
	}

	entry, err := s.repo.FindByDoctorAndDay(ctx, doctorID, weekday)
	if err != nil {
		if !errors.Is(err, availabilityerrors.ErrNotFound) {
			s.cfg.Log.Error("Failed to look up availability",
				"doctor_id", doctorID,
				"day_of_week", weekday,
				"error", err,
			)
		}
		return []string{}
	}

	if !entry.IsActive {
		return []string{}
	}

	return entry.TimeSlots
}

func (s *availabilityService) GetFullSchedule(ctx context.Context, doctorID string) []*model.AvailabilityEntry {
	entries, err := s.repo.FindActiveByDoctor(ctx, doctorID)
	if err != nil {
		s.cfg.Log.Error("Failed to load availability schedule",
			"doctor_id", doctorID,
			"error", err,
		)
		return []*model.AvailabilityEntry{}
	}
	if entries == nil {
		return []*model.AvailabilityEntry{}
	}
	return entries
}

func (s *availabilityService) FindDoctorsAvailable(ctx context.Context, day string, slot string) []string {
	weekday, ok := model.ParseWeekday(day)
	if !ok {
		return []string{}
	}

	entries, err := s.repo.FindActiveByDay(ctx, weekday)
	if err != nil {
		s.cfg.Log.Error("Failed to search availability by day",
			"day_of_week", weekday,
			"error", err,
		)
		return []string{}
	}

	normalized := NormalizeSlot(slot)
	doctorIDs := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for _, entry := range entries {
		if seen[entry.DoctorID] {
			continue
		}
		for _, s := range entry.TimeSlots {
			if s == normalized {
				seen[entry.DoctorID] = true
				doctorIDs = append(doctorIDs, entry.DoctorID)
				break
			}
		}
	}

	return doctorIDs
}

func (s *availabilityService) IsAvailable(ctx context.Context, doctorID string, day model.Weekday, slot string) bool {
	slots := s.GetSlots(ctx, doctorID, string(day))
	normalized := NormalizeSlot(slot)

	for _, candidate := range slots {
		if candidate == normalized {
			return true
		}
	}
	return false
}

func (s *availabilityService) DeleteSchedule(ctx context.Context, caller model.Caller, doctorID string) error {
	if err := s.authorizeScheduleWrite(caller, doctorID); err != nil {
		return err
	}

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

	if err := s.repo.DeleteForDoctor(ctx, doctorID); err != nil {
		s.cfg.Log.Error("Failed to delete availability schedule",
			"doctor_id", doctorID,
			"error", err,
		)
		return apperrors.Internal("Failed to delete availability", err)
	}

	s.cfg.Log.Info("Availability schedule deleted", "doctor_id", doctorID)
	return nil
}

func (s *availabilityService) authorizeScheduleWrite(caller model.Caller, doctorID string) error {
	if caller.Role == model.RoleAdmin {
		return nil
	}
	if caller.Role == model.RoleDoctor && caller.SubjectID == doctorID {
		return nil
	}
	return apperrors.Forbidden("you can only manage your own availability")
}
