package model

import "time"

// RecurrenceType names the stored rule kind of a template row.
type RecurrenceType string

const (
	RecurDaily        RecurrenceType = "DAILY"
	RecurWorkday      RecurrenceType = "WORKDAY"
	RecurHoliday      RecurrenceType = "HOLIDAY"
	RecurWeekly       RecurrenceType = "WEEKLY"
	RecurSpecificDate RecurrenceType = "SPECIFIC_DATE"
	RecurIntervalDays RecurrenceType = "INTERVAL_DAYS"
)

// Recurrence is the closed set of schedule rules. Each variant carries only
// the data its rule needs, so the engine never checks optional columns.
type Recurrence interface {
	recurrence()
	Type() RecurrenceType
}

// EveryDay fires on every calendar day.
type EveryDay struct{}

// EveryWorkday fires on days the holiday calendar marks as working days.
type EveryWorkday struct{}

// EveryHoliday fires on days the holiday calendar marks as holidays.
type EveryHoliday struct{}

// Weekly fires on one ISO weekday (Monday=1 .. Sunday=7).
type Weekly struct {
	Weekday int
}

// OnDate fires exactly once, on the given day.
type OnDate struct {
	Date time.Time
}

// EveryNDays fires every N days counted from the anchor day.
type EveryNDays struct {
	N      int
	Anchor time.Time
}

func (EveryDay) recurrence()     {}
func (EveryWorkday) recurrence() {}
func (EveryHoliday) recurrence() {}
func (Weekly) recurrence()       {}
func (OnDate) recurrence()       {}
func (EveryNDays) recurrence()   {}

func (EveryDay) Type() RecurrenceType     { return RecurDaily }
func (EveryWorkday) Type() RecurrenceType { return RecurWorkday }
func (EveryHoliday) Type() RecurrenceType { return RecurHoliday }
func (Weekly) Type() RecurrenceType       { return RecurWeekly }
func (OnDate) Type() RecurrenceType       { return RecurSpecificDate }
func (EveryNDays) Type() RecurrenceType   { return RecurIntervalDays }
