package service

import (
	"context"
	"testing"
	"time"

	"everydo/internal/model"
)

func TestMatches_RuleTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 2024-01-01 is a Monday, 2024-01-06 a Saturday.
	monday := date(2024, time.January, 1)
	saturday := date(2024, time.January, 6)

	cases := []struct {
		name string
		rule model.Recurrence
		day  time.Time
		want bool
	}{
		{"daily always", model.EveryDay{}, monday, true},
		{"workday on monday", model.EveryWorkday{}, monday, true},
		{"workday on saturday", model.EveryWorkday{}, saturday, false},
		{"holiday on saturday", model.EveryHoliday{}, saturday, true},
		{"holiday on monday", model.EveryHoliday{}, monday, false},
		{"weekly hit", model.Weekly{Weekday: 1}, monday, true},
		{"weekly miss", model.Weekly{Weekday: 6}, monday, false},
		{"weekly sunday is 7", model.Weekly{Weekday: 7}, date(2024, time.January, 7), true},
		{"specific date hit", model.OnDate{Date: monday}, monday, true},
		{"specific date miss", model.OnDate{Date: monday}, saturday, false},
		{"interval before anchor", model.EveryNDays{N: 3, Anchor: monday}, date(2023, time.December, 31), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := env.recurrence.Matches(ctx, tc.rule, tc.day)
			if err != nil {
				t.Fatalf("matches: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Matches(%T, %s) = %v, want %v", tc.rule, tc.day.Format("2006-01-02"), got, tc.want)
			}
		})
	}
}

func TestMatches_IntervalFiresOnExactMultiples(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	anchor := date(2024, time.January, 1)
	rule := model.EveryNDays{N: 4, Anchor: anchor}

	for offset := 0; offset <= 40; offset++ {
		day := anchor.AddDate(0, 0, offset)
		got, err := env.recurrence.Matches(ctx, rule, day)
		if err != nil {
			t.Fatalf("matches: %v", err)
		}
		want := offset%4 == 0
		if got != want {
			t.Fatalf("day +%d: Matches = %v, want %v", offset, got, want)
		}
	}
}

func TestMatches_HolidayOverridePrecedence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// A Monday declared a holiday flips both calendar-driven rules.
	monday := date(2024, time.May, 6)
	if _, err := env.holidays.Upsert(ctx, monday, true, "bank holiday"); err != nil {
		t.Fatalf("upsert override: %v", err)
	}

	workday, err := env.recurrence.Matches(ctx, model.EveryWorkday{}, monday)
	if err != nil {
		t.Fatalf("matches workday: %v", err)
	}
	if workday {
		t.Fatalf("overridden monday should not match WORKDAY")
	}

	holiday, err := env.recurrence.Matches(ctx, model.EveryHoliday{}, monday)
	if err != nil {
		t.Fatalf("matches holiday: %v", err)
	}
	if !holiday {
		t.Fatalf("overridden monday should match HOLIDAY")
	}
}

func TestGenerateForDate_IsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.templates.Create(ctx, 1, TemplateInput{
		Title:            "morning run",
		EstimatedMinutes: 30,
		Priority:         2,
		RecurrenceType:   model.RecurDaily,
		DefaultStartTime: "07:00",
	}); err != nil {
		t.Fatalf("create template: %v", err)
	}

	day := date(2024, time.June, 10)
	created, err := env.recurrence.GenerateForDate(ctx, day)
	if err != nil {
		t.Fatalf("first generate: %v", err)
	}
	if created != 1 {
		t.Fatalf("first run created %d, want 1", created)
	}

	created, err = env.recurrence.GenerateForDate(ctx, day)
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if created != 0 {
		t.Fatalf("re-run created %d, want 0", created)
	}

	instances, err := env.instances.ListByDate(ctx, 1, day)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(instances) != 1 {
		t.Fatalf("got %d instances, want exactly 1", len(instances))
	}

	instance := instances[0]
	if instance.Status != model.StatusPending || instance.AdHoc {
		t.Fatalf("materialized instance should be PENDING and not ad-hoc, got %s/%v", instance.Status, instance.AdHoc)
	}
	if instance.Title != "morning run" || instance.PlannedMinutes != 30 || instance.PlannedStartTime != "07:00" {
		t.Fatalf("snapshot mismatch: %+v", instance)
	}
}

func TestGenerateForDate_RespectsActiveWindowAndEnabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	from := date(2024, time.June, 1)
	to := date(2024, time.June, 30)
	template, err := env.templates.Create(ctx, 1, TemplateInput{
		Title:            "june only",
		EstimatedMinutes: 20,
		Priority:         3,
		RecurrenceType:   model.RecurDaily,
		ActiveFrom:       &from,
		ActiveTo:         &to,
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}

	created, err := env.recurrence.GenerateForDate(ctx, date(2024, time.July, 1))
	if err != nil {
		t.Fatalf("generate outside window: %v", err)
	}
	if created != 0 {
		t.Fatalf("created %d outside the active window, want 0", created)
	}

	if _, err := env.templates.SetEnabled(ctx, 1, template.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	created, err = env.recurrence.GenerateForDate(ctx, date(2024, time.June, 15))
	if err != nil {
		t.Fatalf("generate disabled: %v", err)
	}
	if created != 0 {
		t.Fatalf("created %d from a disabled template, want 0", created)
	}
}
