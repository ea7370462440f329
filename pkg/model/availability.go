package model

import (
	"strings"
	"time"
)

// Weekday is the uppercase day name an availability entry is keyed by.
type Weekday string

const (
	Monday    Weekday = "MONDAY"
	Tuesday   Weekday = "TUESDAY"
	Wednesday Weekday = "WEDNESDAY"
	Thursday  Weekday = "THURSDAY"
	Friday    Weekday = "FRIDAY"
	Saturday  Weekday = "SATURDAY"
	Sunday    Weekday = "SUNDAY"
)

func ParseWeekday(s string) (Weekday, bool) {
	switch Weekday(strings.ToUpper(strings.TrimSpace(s))) {
	case Monday:
		return Monday, true
	case Tuesday:
		return Tuesday, true
	case Wednesday:
		return Wednesday, true
	case Thursday:
		return Thursday, true
	case Friday:
		return Friday, true
	case Saturday:
		return Saturday, true
	case Sunday:
		return Sunday, true
	}
	return "", false
}

// WeekdayOf maps a calendar date to its availability key.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToUpper(t.Weekday().String()))
}

// AvailabilityEntry is one doctor's declaration for one day of the week.
// Entries are unique per (doctor, weekday) and always replaced as a full set.
// An inactive entry is treated as "no slots" by every availability query.
type AvailabilityEntry struct {
	ID        string   `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	DoctorID  string   `json:"doctor_id" bson:"doctor_id" validate:"required,mongodb"`
	DayOfWeek Weekday  `json:"day_of_week" bson:"day_of_week" validate:"required,oneof=MONDAY TUESDAY WEDNESDAY THURSDAY FRIDAY SATURDAY SUNDAY"`
	TimeSlots []string `json:"time_slots" bson:"time_slots" validate:"required,min=1,dive,datetime=15:04"`
	IsActive  bool     `json:"is_active" bson:"is_active"`
}

// AvailabilityEntryInput is one element of the schedule-replace request body.
type AvailabilityEntryInput struct {
	DayOfWeek string   `json:"day_of_week"`
	TimeSlots []string `json:"time_slots"`
	IsActive  bool     `json:"is_active"`
}
