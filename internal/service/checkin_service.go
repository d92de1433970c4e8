package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"everydo/internal/model"
	"everydo/internal/repository"
)

// maxWindowMinutes caps a check-in window at half a day.
const maxWindowMinutes = 720

// FloorWindow computes the trailing window ending at reference, floored to
// windowMinutes: minute-aligned windows tile the day from local midnight, and
// the window returned is the one whose end is the floor of reference. Pure;
// identical input yields identical output.
func FloorWindow(reference time.Time, windowMinutes int) (start, end time.Time, err error) {
	if windowMinutes <= 0 || windowMinutes > maxWindowMinutes {
		return time.Time{}, time.Time{}, validationf("windowMinutes must be between 1 and %d", maxWindowMinutes)
	}

	truncated := reference.Truncate(time.Minute)
	minuteOfDay := truncated.Hour()*60 + truncated.Minute()
	currentStartMinute := (minuteOfDay / windowMinutes) * windowMinutes

	end = model.DateOf(truncated).Add(time.Duration(currentStartMinute) * time.Minute)
	start = end.Add(-time.Duration(windowMinutes) * time.Minute)
	return start, end, nil
}

// CheckinRecordInput is one line of a submission: either a reference to an
// existing task instance or a title for work that had no planned task.
type CheckinRecordInput struct {
	TaskInstanceID   *uint
	Title            string
	CompletedMinutes int
	Comment          string
	ReferenceLink    string
}

// CheckinRecordResult reports the applied record and whether it spawned an
// ad-hoc instance.
type CheckinRecordResult struct {
	TaskInstanceID uint
	AddedMinutes   int
	Comment        string
	ReferenceLink  string
	CreatedAsAdHoc bool
}

// CheckinResult is a submitted check-in with its applied records.
type CheckinResult struct {
	ID             uint
	WindowStart    time.Time
	WindowEnd      time.Time
	OverallComment string
	Records        []CheckinRecordResult
}

// PendingWindow describes the previous completed window for the
// "please check in" prompt.
type PendingWindow struct {
	WindowStart   time.Time
	WindowEnd     time.Time
	WindowMinutes int
	Submitted     bool
	PlannedTasks  []model.Instance
}

// CheckinService coordinates window check-ins: dedup per window, record
// resolution and effort crediting.
type CheckinService struct {
	checkins  *repository.CheckinRepository
	instances *InstanceService
}

func NewCheckinService(checkins *repository.CheckinRepository, instances *InstanceService) *CheckinService {
	return &CheckinService{checkins: checkins, instances: instances}
}

// TasksPlannedInWindow returns non-cancelled instances whose effective
// planned instant falls in [windowStart, windowEnd). An all-day instance
// counts only for the window starting on its plan date.
func (s *CheckinService) TasksPlannedInWindow(ctx context.Context, userID uint, windowStart, windowEnd time.Time) ([]model.Instance, error) {
	if !windowStart.Before(windowEnd) {
		return nil, validationf("windowStart must be before windowEnd")
	}

	candidates, err := s.instances.repo.ListByPlanDateRange(ctx, userID, windowStart, windowEnd.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	startDate := model.DateOf(windowStart)
	var planned []model.Instance
	for _, instance := range candidates {
		if instance.Status == model.StatusCancelled {
			continue
		}
		at, ok := instance.PlannedAt()
		if !ok {
			if model.DateOf(instance.PlanDate).Equal(startDate) {
				planned = append(planned, instance)
			}
			continue
		}
		if !at.Before(windowStart) && at.Before(windowEnd) {
			planned = append(planned, instance)
		}
	}
	return planned, nil
}

// Submit applies one check-in for the window. The check-in row is inserted
// first; a unique-index violation there is the duplicate-submission conflict.
// Records are then applied one by one without rollback: a failing record
// aborts the rest but keeps what was already credited.
func (s *CheckinService) Submit(ctx context.Context, userID uint, windowStart, windowEnd time.Time, overallComment string, records []CheckinRecordInput) (*CheckinResult, error) {
	if !windowStart.Before(windowEnd) {
		return nil, validationf("windowStart must be before windowEnd")
	}

	checkin := model.Checkin{
		UserID:         userID,
		WindowStart:    windowStart,
		WindowEnd:      windowEnd,
		OverallComment: strings.TrimSpace(overallComment),
	}
	err := s.checkins.Create(ctx, &checkin)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, conflictf("this time window is already submitted")
	}
	if err != nil {
		return nil, err
	}

	result := &CheckinResult{
		ID:             checkin.ID,
		WindowStart:    checkin.WindowStart,
		WindowEnd:      checkin.WindowEnd,
		OverallComment: checkin.OverallComment,
	}

	for _, record := range records {
		if record.CompletedMinutes <= 0 || record.CompletedMinutes > maxWindowMinutes {
			return result, validationf("completedMinutes must be between 1 and %d", maxWindowMinutes)
		}

		var instanceID uint
		createdAsAdHoc := false
		if record.TaskInstanceID != nil {
			instance, err := s.instances.AddCompletionMinutes(ctx, userID, *record.TaskInstanceID, record.CompletedMinutes)
			if err != nil {
				return result, err
			}
			instanceID = instance.ID
		} else {
			if strings.TrimSpace(record.Title) == "" {
				return result, validationf("title is required when taskInstanceId is missing")
			}
			instance, err := s.instances.CreateAdHocFromCheckin(ctx, userID, record.Title, model.DateOf(windowStart), record.CompletedMinutes)
			if err != nil {
				return result, err
			}
			instanceID = instance.ID
			createdAsAdHoc = true
		}

		entry := model.CompletionLog{
			CheckinID:      checkin.ID,
			UserID:         userID,
			TaskInstanceID: instanceID,
			AddedMinutes:   record.CompletedMinutes,
			Comment:        strings.TrimSpace(record.Comment),
			ReferenceLink:  strings.TrimSpace(record.ReferenceLink),
		}
		if err := s.checkins.CreateLog(ctx, &entry); err != nil {
			return result, err
		}

		result.Records = append(result.Records, CheckinRecordResult{
			TaskInstanceID: instanceID,
			AddedMinutes:   record.CompletedMinutes,
			Comment:        entry.Comment,
			ReferenceLink:  entry.ReferenceLink,
			CreatedAsAdHoc: createdAsAdHoc,
		})
	}

	return result, nil
}

// PendingWindowPrompt resolves the previous completed window relative to
// referenceTime and reports whether it was submitted and what was planned in
// it. Read-only; it never creates a check-in.
func (s *CheckinService) PendingWindowPrompt(ctx context.Context, userID uint, referenceTime time.Time, windowMinutes int) (*PendingWindow, error) {
	start, end, err := FloorWindow(referenceTime, windowMinutes)
	if err != nil {
		return nil, err
	}

	count, err := s.checkins.CountByWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	planned, err := s.TasksPlannedInWindow(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	return &PendingWindow{
		WindowStart:   start,
		WindowEnd:     end,
		WindowMinutes: windowMinutes,
		Submitted:     count > 0,
		PlannedTasks:  planned,
	}, nil
}

// ListByDate returns the check-ins whose window starts on the given day,
// newest window first, each with its records.
func (s *CheckinService) ListByDate(ctx context.Context, userID uint, date time.Time) ([]CheckinResult, error) {
	day := model.DateOf(date)
	checkins, err := s.checkins.ListByWindowStartRange(ctx, userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	results := make([]CheckinResult, 0, len(checkins))
	for _, checkin := range checkins {
		logs, err := s.checkins.ListLogsByCheckin(ctx, checkin.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, toCheckinResult(checkin, logs))
	}
	return results, nil
}

func toCheckinResult(checkin model.Checkin, logs []model.CompletionLog) CheckinResult {
	result := CheckinResult{
		ID:             checkin.ID,
		WindowStart:    checkin.WindowStart,
		WindowEnd:      checkin.WindowEnd,
		OverallComment: checkin.OverallComment,
	}
	for _, entry := range logs {
		result.Records = append(result.Records, CheckinRecordResult{
			TaskInstanceID: entry.TaskInstanceID,
			AddedMinutes:   entry.AddedMinutes,
			Comment:        entry.Comment,
			ReferenceLink:  entry.ReferenceLink,
		})
	}
	return result
}
