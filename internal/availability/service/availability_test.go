package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	availabilityerrors "medbook/internal/availability/errors"
	"medbook/pkg/config"
	apperrors "medbook/pkg/errors"
	"medbook/pkg/logger"
	"medbook/pkg/model"

	mongotx "medbook/pkg/db/mongo"
)

type mockAvailabilityRepository struct {
	findByDoctorAndDayFn func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error)
	findActiveByDoctorFn func(ctx context.Context, doctorID string) ([]*model.AvailabilityEntry, error)
	findActiveByDayFn    func(ctx context.Context, day model.Weekday) ([]*model.AvailabilityEntry, error)
	replaceForDoctorFn   func(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error
	deleteForDoctorFn    func(ctx context.Context, doctorID string) error
}

func (m *mockAvailabilityRepository) FindByDoctorAndDay(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
	return m.findByDoctorAndDayFn(ctx, doctorID, day)
}

func (m *mockAvailabilityRepository) FindActiveByDoctor(ctx context.Context, doctorID string) ([]*model.AvailabilityEntry, error) {
	return m.findActiveByDoctorFn(ctx, doctorID)
}

func (m *mockAvailabilityRepository) FindActiveByDay(ctx context.Context, day model.Weekday) ([]*model.AvailabilityEntry, error) {
	return m.findActiveByDayFn(ctx, day)
}

func (m *mockAvailabilityRepository) ReplaceForDoctor(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
	return m.replaceForDoctorFn(ctx, doctorID, entries)
}

func (m *mockAvailabilityRepository) DeleteForDoctor(ctx context.Context, doctorID string) error {
	return m.deleteForDoctorFn(ctx, doctorID)
}

func (m *mockAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	var sessCtx mongo.SessionContext
	return fn(sessCtx)
}

type mockDoctorRepository struct {
	findByIDFn    func(ctx context.Context, id string) (*model.Doctor, error)
	findByEmailFn func(ctx context.Context, email string) (*model.Doctor, error)
	existsFn      func(ctx context.Context, id string) (bool, error)
}

func (m *mockDoctorRepository) FindByID(ctx context.Context, id string) (*model.Doctor, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockDoctorRepository) FindByEmail(ctx context.Context, email string) (*model.Doctor, error) {
	return m.findByEmailFn(ctx, email)
}

func (m *mockDoctorRepository) Exists(ctx context.Context, id string) (bool, error) {
	return m.existsFn(ctx, id)
}

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{Output: io.Discard, Service: "test"}),
	}
}

func doctorExists(exists bool) *mockDoctorRepository {
	return &mockDoctorRepository{
		existsFn: func(ctx context.Context, id string) (bool, error) {
			return exists, nil
		},
	}
}

func TestNormalizeSlot(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9:5", "09:05"},
		{"9:30", "09:30"},
		{"09:00", "09:00"},
		{"14:30:00", "14:30"},
		{" 10:15 ", "10:15"},
		{"0:0", "00:00"},
		{"23:59", "23:59"},
		{"24:00", "24:00"},
		{"10:60", "10:60"},
		{"morning", "morning"},
		{"10", "10"},
		{"ab:cd", "ab:cd"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeSlot(tt.input); got != tt.want {
				t.Errorf("NormalizeSlot(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSetSchedule_Authorization(t *testing.T) {
	tests := []struct {
		name      string
		caller    model.Caller
		wantError bool
	}{
		{
			name:   "admin can set any schedule",
			caller: model.Caller{SubjectID: "admin-1", Role: model.RoleAdmin},
		},
		{
			name:   "doctor can set own schedule",
			caller: model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor},
		},
		{
			name:      "doctor cannot set another doctor's schedule",
			caller:    model.Caller{SubjectID: "doc-2", Role: model.RoleDoctor},
			wantError: true,
		},
		{
			name:      "patient cannot set schedules",
			caller:    model.Caller{SubjectID: "pat-1", Role: model.RolePatient},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockAvailabilityRepository{
				replaceForDoctorFn: func(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
					return nil
				},
			}
			svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

			inputs := []model.AvailabilityEntryInput{
				{DayOfWeek: "MONDAY", TimeSlots: []string{"09:00"}, IsActive: true},
			}
			_, err := svc.SetSchedule(context.Background(), tt.caller, "doc-1", inputs)

			if tt.wantError {
				if err == nil || apperrors.AsAppError(err).StatusCode() != http.StatusForbidden {
					t.Fatalf("expected forbidden error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSetSchedule_DoctorNotFound(t *testing.T) {
	repo := &mockAvailabilityRepository{}
	svc := NewAvailabilityService(repo, doctorExists(false), testConfig())

	caller := model.Caller{SubjectID: "admin-1", Role: model.RoleAdmin}
	_, err := svc.SetSchedule(context.Background(), caller, "missing", nil)

	if err == nil || apperrors.AsAppError(err).StatusCode() != http.StatusNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestSetSchedule_NormalizesAndDeduplicatesSlots(t *testing.T) {
	var stored []*model.AvailabilityEntry
	repo := &mockAvailabilityRepository{
		replaceForDoctorFn: func(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
			stored = entries
			return nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	caller := model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor}
	inputs := []model.AvailabilityEntryInput{
		{DayOfWeek: "MONDAY", TimeSlots: []string{"9:0", "09:00", "14:30:00", "10:15"}, IsActive: true},
	}
	entries, err := svc.SetSchedule(context.Background(), caller, "doc-1", inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 1 || len(stored) != 1 {
		t.Fatalf("expected one stored entry, got %d returned / %d stored", len(entries), len(stored))
	}

	want := []string{"09:00", "14:30", "10:15"}
	got := stored[0].TimeSlots
	if len(got) != len(want) {
		t.Fatalf("expected slots %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestSetSchedule_DropsEntriesWithNoSlots(t *testing.T) {
	var stored []*model.AvailabilityEntry
	repo := &mockAvailabilityRepository{
		replaceForDoctorFn: func(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
			stored = entries
			return nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	caller := model.Caller{SubjectID: "admin-1", Role: model.RoleAdmin}
	inputs := []model.AvailabilityEntryInput{
		{DayOfWeek: "MONDAY", TimeSlots: []string{}, IsActive: true},
		{DayOfWeek: "TUESDAY", TimeSlots: []string{"09:00"}, IsActive: true},
	}
	_, err := svc.SetSchedule(context.Background(), caller, "doc-1", inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(stored) != 1 {
		t.Fatalf("expected empty-slot entry to be dropped, got %d entries", len(stored))
	}
	if stored[0].DayOfWeek != model.Tuesday {
		t.Errorf("expected TUESDAY entry to survive, got %s", stored[0].DayOfWeek)
	}
}

func TestSetSchedule_RejectsInvalidAndDuplicateWeekdays(t *testing.T) {
	repo := &mockAvailabilityRepository{
		replaceForDoctorFn: func(ctx context.Context, doctorID string, entries []*model.AvailabilityEntry) error {
			return nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())
	caller := model.Caller{SubjectID: "admin-1", Role: model.RoleAdmin}

	tests := []struct {
		name   string
		inputs []model.AvailabilityEntryInput
	}{
		{
			name: "unknown weekday",
			inputs: []model.AvailabilityEntryInput{
				{DayOfWeek: "FUNDAY", TimeSlots: []string{"09:00"}, IsActive: true},
			},
		},
		{
			name: "duplicate weekday",
			inputs: []model.AvailabilityEntryInput{
				{DayOfWeek: "MONDAY", TimeSlots: []string{"09:00"}, IsActive: true},
				{DayOfWeek: "MONDAY", TimeSlots: []string{"10:00"}, IsActive: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetSchedule(context.Background(), caller, "doc-1", tt.inputs)
			if err == nil || apperrors.AsAppError(err).StatusCode() != http.StatusBadRequest {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestGetSlots_DefensiveEmpty(t *testing.T) {
	tests := []struct {
		name string
		day  string
		repo *mockAvailabilityRepository
	}{
		{
			name: "invalid weekday",
			day:  "SOMEDAY",
			repo: &mockAvailabilityRepository{},
		},
		{
			name: "no entry for day",
			day:  "MONDAY",
			repo: &mockAvailabilityRepository{
				findByDoctorAndDayFn: func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
					return nil, availabilityerrors.ErrNotFound
				},
			},
		},
		{
			name: "repository failure",
			day:  "MONDAY",
			repo: &mockAvailabilityRepository{
				findByDoctorAndDayFn: func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
					return nil, errors.New("connection reset")
				},
			},
		},
		{
			name: "inactive entry",
			day:  "MONDAY",
			repo: &mockAvailabilityRepository{
				findByDoctorAndDayFn: func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
					return &model.AvailabilityEntry{
						DoctorID:  doctorID,
						DayOfWeek: day,
						TimeSlots: []string{"09:00"},
						IsActive:  false,
					}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewAvailabilityService(tt.repo, doctorExists(true), testConfig())
			slots := svc.GetSlots(context.Background(), "doc-1", tt.day)
			if slots == nil {
				t.Fatal("expected empty slice, got nil")
			}
			if len(slots) != 0 {
				t.Errorf("expected no slots, got %v", slots)
			}
		})
	}
}

func TestGetSlots_ReturnsActiveEntrySlots(t *testing.T) {
	repo := &mockAvailabilityRepository{
		findByDoctorAndDayFn: func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
			return &model.AvailabilityEntry{
				DoctorID:  doctorID,
				DayOfWeek: day,
				TimeSlots: []string{"09:00", "09:30"},
				IsActive:  true,
			}, nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	slots := svc.GetSlots(context.Background(), "doc-1", "monday")
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %v", slots)
	}
}

func TestIsAvailable(t *testing.T) {
	repo := &mockAvailabilityRepository{
		findByDoctorAndDayFn: func(ctx context.Context, doctorID string, day model.Weekday) (*model.AvailabilityEntry, error) {
			return &model.AvailabilityEntry{
				DoctorID:  doctorID,
				DayOfWeek: day,
				TimeSlots: []string{"09:00", "14:30"},
				IsActive:  true,
			}, nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	if !svc.IsAvailable(context.Background(), "doc-1", model.Monday, "9:0") {
		t.Error("expected 9:0 to match stored 09:00 after normalization")
	}
	if svc.IsAvailable(context.Background(), "doc-1", model.Monday, "11:00") {
		t.Error("expected 11:00 to be unavailable")
	}
}

func TestFindDoctorsAvailable(t *testing.T) {
	repo := &mockAvailabilityRepository{
		findActiveByDayFn: func(ctx context.Context, day model.Weekday) ([]*model.AvailabilityEntry, error) {
			return []*model.AvailabilityEntry{
				{DoctorID: "doc-1", DayOfWeek: day, TimeSlots: []string{"09:00"}, IsActive: true},
				{DoctorID: "doc-2", DayOfWeek: day, TimeSlots: []string{"10:00"}, IsActive: true},
				{DoctorID: "doc-3", DayOfWeek: day, TimeSlots: []string{"09:00", "10:00"}, IsActive: true},
			}, nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	got := svc.FindDoctorsAvailable(context.Background(), "MONDAY", "9:0")
	if len(got) != 2 {
		t.Fatalf("expected 2 doctors, got %v", got)
	}
	if got[0] != "doc-1" || got[1] != "doc-3" {
		t.Errorf("expected [doc-1 doc-3], got %v", got)
	}

	if ids := svc.FindDoctorsAvailable(context.Background(), "NOPE", "09:00"); len(ids) != 0 {
		t.Errorf("expected empty result for invalid day, got %v", ids)
	}
}

func TestDeleteSchedule(t *testing.T) {
	deleted := false
	repo := &mockAvailabilityRepository{
		deleteForDoctorFn: func(ctx context.Context, doctorID string) error {
			deleted = true
			return nil
		},
	}
	svc := NewAvailabilityService(repo, doctorExists(true), testConfig())

	caller := model.Caller{SubjectID: "doc-1", Role: model.RoleDoctor}
	if err := svc.DeleteSchedule(context.Background(), caller, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected repository delete to be called")
	}

	other := model.Caller{SubjectID: "doc-2", Role: model.RoleDoctor}
	err := svc.DeleteSchedule(context.Background(), other, "doc-1")
	if err == nil || apperrors.AsAppError(err).StatusCode() != http.StatusForbidden {
		t.Fatalf("expected forbidden error, got %v", err)
	}
}
