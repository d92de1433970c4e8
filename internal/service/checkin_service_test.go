package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"everydo/internal/model"
)

func TestFloorWindow(t *testing.T) {
	cases := []struct {
		name          string
		reference     time.Time
		windowMinutes int
		wantStart     time.Time
		wantEnd       time.Time
	}{
		{
			"hour window mid-hour",
			at(2024, time.January, 1, 14, 37),
			60,
			at(2024, time.January, 1, 13, 0),
			at(2024, time.January, 1, 14, 0),
		},
		{
			"exactly on boundary",
			at(2024, time.January, 1, 14, 0),
			60,
			at(2024, time.January, 1, 13, 0),
			at(2024, time.January, 1, 14, 0),
		},
		{
			"first window of the day reaches into yesterday",
			at(2024, time.January, 1, 0, 10),
			30,
			time.Date(2023, time.December, 31, 23, 30, 0, 0, time.UTC),
			at(2024, time.January, 1, 0, 0),
		},
		{
			"quarter-hour window",
			at(2024, time.January, 1, 9, 50),
			15,
			at(2024, time.January, 1, 9, 30),
			at(2024, time.January, 1, 9, 45),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := FloorWindow(tc.reference, tc.windowMinutes)
			if err != nil {
				t.Fatalf("floor window: %v", err)
			}
			if !start.Equal(tc.wantStart) || !end.Equal(tc.wantEnd) {
				t.Fatalf("got [%s, %s), want [%s, %s)", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}
}

func TestFloorWindow_Validation(t *testing.T) {
	for _, minutes := range []int{0, -5, 721} {
		if _, _, err := FloorWindow(at(2024, time.January, 1, 12, 0), minutes); !IsValidation(err) {
			t.Fatalf("windowMinutes=%d: expected validation error, got %v", minutes, err)
		}
	}
}

func TestTasksPlannedInWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	day := date(2024, time.January, 1)
	mk := func(title, startTime string, planDate time.Time) *model.Instance {
		t.Helper()
		instance, err := env.instances.CreateManual(ctx, 1, ManualTaskInput{
			Title:            title,
			PlanDate:         planDate,
			PlannedStartTime: startTime,
			PlannedMinutes:   30,
		})
		if err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
		return instance
	}

	mk("inside", "13:15", day)
	mk("at start", "13:00", day)
	outside := mk("at end", "14:00", day)
	allDay := mk("all-day", "", day)
	mk("all-day tomorrow", "", day.AddDate(0, 0, 1))
	cancelled := mk("cancelled", "13:30", day)
	if _, err := env.instances.SetStatus(ctx, 1, cancelled.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	windowStart := at(2024, time.January, 1, 13, 0)
	windowEnd := at(2024, time.January, 1, 14, 0)
	planned, err := env.checkins.TasksPlannedInWindow(ctx, 1, windowStart, windowEnd)
	if err != nil {
		t.Fatalf("tasks planned in window: %v", err)
	}

	titles := make([]string, 0, len(planned))
	for _, instance := range planned {
		titles = append(titles, instance.Title)
	}
	want := []string{"all-day", "at start", "inside"}
	if len(titles) != len(want) {
		t.Fatalf("got %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("got %v, want %v", titles, want)
		}
	}

	// An all-day task counts only for the window starting on its plan date.
	eveningStart := at(2024, time.January, 1, 23, 0)
	eveningEnd := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)
	planned, err = env.checkins.TasksPlannedInWindow(ctx, 1, eveningStart, eveningEnd)
	if err != nil {
		t.Fatalf("evening window: %v", err)
	}
	for _, instance := range planned {
		if instance.ID == allDay.ID {
			// still the same start date, so it is expected here
			continue
		}
		if instance.ID == outside.ID {
			t.Fatalf("14:00 task must not appear in the 23:00 window")
		}
	}
}

func TestSubmit_CreditsExistingAndCreatesAdHoc(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	existing, err := env.instances.CreateManual(ctx, 1, ManualTaskInput{
		Title:            "planned work",
		PlanDate:         date(2024, time.January, 1),
		PlannedStartTime: "13:00",
		PlannedMinutes:   60,
	})
	if err != nil {
		t.Fatalf("create instance: %v", err)
	}

	windowStart := at(2024, time.January, 1, 13, 0)
	windowEnd := at(2024, time.January, 1, 14, 0)
	result, err := env.checkins.Submit(ctx, 1, windowStart, windowEnd, "solid hour", []CheckinRecordInput{
		{TaskInstanceID: &existing.ID, CompletedMinutes: 40, Comment: "good pace"},
		{Title: "unexpected call", CompletedMinutes: 20},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if result.Records[0].CreatedAsAdHoc {
		t.Fatalf("existing-task record marked ad-hoc")
	}
	if !result.Records[1].CreatedAsAdHoc {
		t.Fatalf("titled record should create an ad-hoc instance")
	}

	credited, err := env.instances.Get(ctx, 1, existing.ID)
	if err != nil {
		t.Fatalf("get credited: %v", err)
	}
	if credited.CompletedMinutes != 40 || credited.Status != model.StatusInProgress {
		t.Fatalf("credited instance: %d min / %s, want 40 / IN_PROGRESS", credited.CompletedMinutes, credited.Status)
	}

	adHoc, err := env.instances.Get(ctx, 1, result.Records[1].TaskInstanceID)
	if err != nil {
		t.Fatalf("get ad-hoc: %v", err)
	}
	if adHoc.Status != model.StatusCompleted || !adHoc.AdHoc {
		t.Fatalf("ad-hoc instance: %s/%v, want COMPLETED/true", adHoc.Status, adHoc.AdHoc)
	}
	if adHoc.PlannedMinutes != 20 || adHoc.CompletedMinutes != 20 {
		t.Fatalf("ad-hoc minutes: %d/%d, want 20/20", adHoc.PlannedMinutes, adHoc.CompletedMinutes)
	}
	if !adHoc.PlanDate.Equal(date(2024, time.January, 1)) {
		t.Fatalf("ad-hoc plan date = %s, want window start date", adHoc.PlanDate)
	}
}

func TestSubmit_DuplicateWindowIsConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	windowStart := at(2024, time.January, 1, 13, 0)
	windowEnd := at(2024, time.January, 1, 14, 0)
	if _, err := env.checkins.Submit(ctx, 1, windowStart, windowEnd, "", nil); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err := env.checkins.Submit(ctx, 1, windowStart, windowEnd, "", nil)
	if !IsStateConflict(err) {
		t.Fatalf("expected state conflict, got %v", err)
	}

	// A different user may submit the same window.
	if _, err := env.checkins.Submit(ctx, 2, windowStart, windowEnd, "", nil); err != nil {
		t.Fatalf("other user submit: %v", err)
	}
}

func TestSubmit_ConcurrentDuplicateRace(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	windowStart := at(2024, time.January, 1, 13, 0)
	windowEnd := at(2024, time.January, 1, 14, 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.checkins.Submit(ctx, 1, windowStart, windowEnd, "", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case IsStateConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("got %d successes and %d conflicts, want exactly 1 and 1", successes, conflicts)
	}
}

func TestSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	windowStart := at(2024, time.January, 1, 13, 0)
	windowEnd := at(2024, time.January, 1, 14, 0)

	if _, err := env.checkins.Submit(ctx, 1, windowEnd, windowStart, "", nil); !IsValidation(err) {
		t.Fatalf("inverted window: expected validation error, got %v", err)
	}

	if _, err := env.checkins.Submit(ctx, 1, windowStart, windowEnd, "", []CheckinRecordInput{
		{Title: "zero", CompletedMinutes: 0},
	}); !IsValidation(err) {
		t.Fatalf("zero minutes: expected validation error, got %v", err)
	}

	if _, err := env.checkins.Submit(ctx, 1, windowStart.Add(time.Hour), windowEnd.Add(time.Hour), "", []CheckinRecordInput{
		{Title: "marathon", CompletedMinutes: 721},
	}); !IsValidation(err) {
		t.Fatalf("over 720 minutes: expected validation error, got %v", err)
	}

	if _, err := env.checkins.Submit(ctx, 1, windowStart.Add(2*time.Hour), windowEnd.Add(2*time.Hour), "", []CheckinRecordInput{
		{CompletedMinutes: 30},
	}); !IsValidation(err) {
		t.Fatalf("missing title: expected validation error, got %v", err)
	}
}

func TestPendingWindowPrompt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.instances.CreateManual(ctx, 1, ManualTaskInput{
		Title:            "window task",
		PlanDate:         date(2024, time.January, 1),
		PlannedStartTime: "13:30",
		PlannedMinutes:   30,
	}); err != nil {
		t.Fatalf("create instance: %v", err)
	}

	reference := at(2024, time.January, 1, 14, 37)
	window, err := env.checkins.PendingWindowPrompt(ctx, 1, reference, 60)
	if err != nil {
		t.Fatalf("pending window: %v", err)
	}

	if !window.WindowStart.Equal(at(2024, time.January, 1, 13, 0)) ||
		!window.WindowEnd.Equal(at(2024, time.January, 1, 14, 0)) {
		t.Fatalf("window [%s, %s), want [13:00, 14:00)", window.WindowStart, window.WindowEnd)
	}
	if window.Submitted {
		t.Fatalf("window should not be submitted yet")
	}
	if len(window.PlannedTasks) != 1 || window.PlannedTasks[0].Title != "window task" {
		t.Fatalf("planned tasks = %+v, want the 13:30 task", window.PlannedTasks)
	}

	if _, err := env.checkins.Submit(ctx, 1, window.WindowStart, window.WindowEnd, "", nil); err != nil {
		t.Fatalf("submit: %v", err)
	}
	window, err = env.checkins.PendingWindowPrompt(ctx, 1, reference, 60)
	if err != nil {
		t.Fatalf("pending window after submit: %v", err)
	}
	if !window.Submitted {
		t.Fatalf("window should report submitted")
	}
}

func TestListByDate_NewestWindowFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for hour := 9; hour <= 11; hour++ {
		start := at(2024, time.January, 1, hour, 0)
		if _, err := env.checkins.Submit(ctx, 1, start, start.Add(time.Hour), "", nil); err != nil {
			t.Fatalf("submit %02d:00: %v", hour, err)
		}
	}

	checkins, err := env.checkins.ListByDate(ctx, 1, date(2024, time.January, 1))
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(checkins) != 3 {
		t.Fatalf("got %d checkins, want 3", len(checkins))
	}
	if !checkins[0].WindowStart.After(checkins[1].WindowStart) ||
		!checkins[1].WindowStart.After(checkins[2].WindowStart) {
		t.Fatalf("checkins not sorted newest first: %+v", checkins)
	}
}
