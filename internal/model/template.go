package model

import (
	"fmt"
	"time"
)

// Template describes a recurring piece of work that the generation job
// materializes into dated instances.
type Template struct {
	ID               uint `gorm:"primaryKey"`
	UserID           uint `gorm:"index"`
	Title            string
	Description      string
	EstimatedMinutes int
	Priority         int            // 1 (highest) .. 5
	RecurrenceType   RecurrenceType `gorm:"index"`
	DayOfWeek        int            // WEEKLY only, ISO 1..7
	SpecificDate     *time.Time     // SPECIFIC_DATE only
	IntervalDays     int            // INTERVAL_DAYS only
	DefaultStartTime string         // optional HH:MM, empty = all-day
	ActiveFrom       *time.Time
	ActiveTo         *time.Time
	Enabled          bool `gorm:"default:true"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Rule converts the flat row into its recurrence variant. It fails when a
// conditionally required column is missing or out of range, so callers never
// see a half-formed rule.
func (t *Template) Rule() (Recurrence, error) {
	switch t.RecurrenceType {
	case RecurDaily:
		return EveryDay{}, nil
	case RecurWorkday:
		return EveryWorkday{}, nil
	case RecurHoliday:
		return EveryHoliday{}, nil
	case RecurWeekly:
		if t.DayOfWeek < 1 || t.DayOfWeek > 7 {
			return nil, fmt.Errorf("dayOfWeek is required for WEEKLY templates")
		}
		return Weekly{Weekday: t.DayOfWeek}, nil
	case RecurSpecificDate:
		if t.SpecificDate == nil {
			return nil, fmt.Errorf("specificDate is required for SPECIFIC_DATE templates")
		}
		return OnDate{Date: DateOf(*t.SpecificDate)}, nil
	case RecurIntervalDays:
		if t.IntervalDays <= 0 {
			return nil, fmt.Errorf("intervalDays must be positive for INTERVAL_DAYS templates")
		}
		if t.ActiveFrom == nil {
			return nil, fmt.Errorf("activeFrom is required for INTERVAL_DAYS templates")
		}
		return EveryNDays{N: t.IntervalDays, Anchor: DateOf(*t.ActiveFrom)}, nil
	default:
		return nil, fmt.Errorf("unknown recurrence type %q", t.RecurrenceType)
	}
}

// ActiveOn reports whether the template's active window contains the day.
// A nil bound is unbounded.
func (t *Template) ActiveOn(date time.Time) bool {
	day := DateOf(date)
	if t.ActiveFrom != nil && day.Before(DateOf(*t.ActiveFrom)) {
		return false
	}
	if t.ActiveTo != nil && day.After(DateOf(*t.ActiveTo)) {
		return false
	}
	return true
}
