package service

import (
	"context"
	"math"
	"strings"
	"time"

	"everydo/internal/model"
	"everydo/internal/repository"
)

// Period names a calendar aggregation span.
type Period string

const (
	PeriodWeek  Period = "WEEK"
	PeriodMonth Period = "MONTH"
	PeriodYear  Period = "YEAR"
)

// ParsePeriod reads a period name, case-insensitively.
func ParsePeriod(value string) (Period, error) {
	switch Period(strings.ToUpper(strings.TrimSpace(value))) {
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	default:
		return "", validationf("unknown period %q", value)
	}
}

// CompletionSummary aggregates a user's instances over one period.
type CompletionSummary struct {
	Period               Period
	StartDate            time.Time
	EndDate              time.Time // inclusive
	TotalTasks           int
	CompletedTasks       int
	AdHocTasks           int
	PlannedMinutes       int
	CompletedMinutes     int
	TaskCompletionRate   float64
	MinuteCompletionRate float64
}

// CheckinPage is one page of check-in history.
type CheckinPage struct {
	Items      []CheckinResult
	Page       int
	Size       int
	Total      int64
	TotalPages int
}

// StatsService reduces instances and check-ins into reporting summaries.
type StatsService struct {
	instances *repository.InstanceRepository
	checkins  *repository.CheckinRepository
}

func NewStatsService(instances *repository.InstanceRepository, checkins *repository.CheckinRepository) *StatsService {
	return &StatsService{instances: instances, checkins: checkins}
}

// Summary computes completion statistics for the period containing
// referenceDate.
func (s *StatsService) Summary(ctx context.Context, userID uint, period Period, referenceDate time.Time) (*CompletionSummary, error) {
	start, endExclusive, err := periodRange(period, referenceDate)
	if err != nil {
		return nil, err
	}

	instances, err := s.instances.ListByPlanDateRange(ctx, userID, start, endExclusive)
	if err != nil {
		return nil, err
	}

	summary := &CompletionSummary{
		Period:    period,
		StartDate: start,
		EndDate:   endExclusive.AddDate(0, 0, -1),
	}
	for _, instance := range instances {
		summary.TotalTasks++
		if instance.Status == model.StatusCompleted {
			summary.CompletedTasks++
		}
		if instance.AdHoc {
			summary.AdHocTasks++
		}
		summary.PlannedMinutes += instance.PlannedMinutes
		summary.CompletedMinutes += instance.CompletedMinutes
	}

	if summary.TotalTasks > 0 {
		summary.TaskCompletionRate = round2(float64(summary.CompletedTasks) / float64(summary.TotalTasks))
	}
	if summary.PlannedMinutes > 0 {
		summary.MinuteCompletionRate = round2(float64(summary.CompletedMinutes) / float64(summary.PlannedMinutes))
	}
	return summary, nil
}

// ReviewPage returns one page of check-in history, newest window first.
// Size is clamped to [1, 50] with a default of 10.
func (s *StatsService) ReviewPage(ctx context.Context, userID uint, page, size int, date *time.Time) (*CheckinPage, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}
	if size > 50 {
		size = 50
	}

	checkins, total, err := s.checkins.Page(ctx, userID, (page-1)*size, size, date)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(checkins))
	for _, checkin := range checkins {
		ids = append(ids, checkin.ID)
	}
	logs, err := s.checkins.ListLogsByCheckins(ctx, ids)
	if err != nil {
		return nil, err
	}
	logsByCheckin := make(map[uint][]model.CompletionLog)
	for _, entry := range logs {
		logsByCheckin[entry.CheckinID] = append(logsByCheckin[entry.CheckinID], entry)
	}

	result := &CheckinPage{
		Items: make([]CheckinResult, 0, len(checkins)),
		Page:  page,
		Size:  size,
		Total: total,
	}
	for _, checkin := range checkins {
		result.Items = append(result.Items, toCheckinResult(checkin, logsByCheckin[checkin.ID]))
	}
	if total > 0 {
		result.TotalPages = int((total + int64(size) - 1) / int64(size))
	}
	return result, nil
}

func periodRange(period Period, referenceDate time.Time) (start, endExclusive time.Time, err error) {
	day := model.DateOf(referenceDate)
	switch period {
	case PeriodWeek:
		start = day.AddDate(0, 0, -(model.ISOWeekday(day) - 1))
		return start, start.AddDate(0, 0, 7), nil
	case PeriodMonth:
		start = time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, 0), nil
	case PeriodYear:
		start = time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(1, 0, 0), nil
	default:
		return time.Time{}, time.Time{}, validationf("unknown period %q", period)
	}
}

// round2 rounds half-up to two decimal places (rates are non-negative, so
// half away from zero is half-up).
func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
