package service

import (
	"context"
	"log"
	"time"

	"everydo/internal/model"
)

// RecurrenceService decides which templates fire on a given date and
// materializes their instances. The daily job re-runs are harmless: creation
// is at-most-once per (user, template, date).
type RecurrenceService struct {
	templates *TemplateService
	instances *InstanceService
	holidays  *HolidayService
}

func NewRecurrenceService(templates *TemplateService, instances *InstanceService, holidays *HolidayService) *RecurrenceService {
	return &RecurrenceService{templates: templates, instances: instances, holidays: holidays}
}

// GenerateForDate materializes an instance for every active template that
// matches the date. Returns the number of instances actually created, which
// is zero on a clean re-run.
func (s *RecurrenceService) GenerateForDate(ctx context.Context, date time.Time) (int, error) {
	date = model.DateOf(date)
	active, err := s.templates.FindActiveForDate(ctx, date)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range active {
		template := &active[i]
		rule, err := template.Rule()
		if err != nil {
			// A malformed stored rule should not block the rest of the run.
			log.Printf("template %d: %v", template.ID, err)
			continue
		}
		match, err := s.Matches(ctx, rule, date)
		if err != nil {
			return created, err
		}
		if !match {
			continue
		}
		wasCreated, err := s.instances.CreateFromTemplateIfAbsent(ctx, template, date)
		if err != nil {
			return created, err
		}
		if wasCreated {
			created++
		}
	}
	return created, nil
}

// Matches evaluates a recurrence rule against a calendar day.
func (s *RecurrenceService) Matches(ctx context.Context, rule model.Recurrence, date time.Time) (bool, error) {
	date = model.DateOf(date)
	switch r := rule.(type) {
	case model.EveryDay:
		return true, nil
	case model.EveryWorkday:
		return s.holidays.IsWorkday(ctx, date)
	case model.EveryHoliday:
		return s.holidays.IsHoliday(ctx, date)
	case model.Weekly:
		return model.ISOWeekday(date) == r.Weekday, nil
	case model.OnDate:
		return date.Equal(model.DateOf(r.Date)), nil
	case model.EveryNDays:
		anchor := model.DateOf(r.Anchor)
		if date.Before(anchor) {
			return false, nil
		}
		days := daysBetween(anchor, date)
		return days%r.N == 0, nil
	default:
		return false, nil
	}
}

// daysBetween counts calendar days from a to b, robust to DST by rounding
// the hour difference.
func daysBetween(a, b time.Time) int {
	hours := b.Sub(a).Hours()
	return int((hours + 12) / 24)
}
