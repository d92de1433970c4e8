package model

import (
	"testing"
	"time"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestTemplateRule(t *testing.T) {
	specific := day(2024, time.March, 8)
	anchor := day(2024, time.January, 1)

	cases := []struct {
		name     string
		template Template
		want     RecurrenceType
		wantErr  bool
	}{
		{"daily", Template{RecurrenceType: RecurDaily}, RecurDaily, false},
		{"workday", Template{RecurrenceType: RecurWorkday}, RecurWorkday, false},
		{"holiday", Template{RecurrenceType: RecurHoliday}, RecurHoliday, false},
		{"weekly", Template{RecurrenceType: RecurWeekly, DayOfWeek: 3}, RecurWeekly, false},
		{"weekly without day", Template{RecurrenceType: RecurWeekly}, "", true},
		{"weekly day out of range", Template{RecurrenceType: RecurWeekly, DayOfWeek: 8}, "", true},
		{"specific date", Template{RecurrenceType: RecurSpecificDate, SpecificDate: &specific}, RecurSpecificDate, false},
		{"specific date missing", Template{RecurrenceType: RecurSpecificDate}, "", true},
		{"interval", Template{RecurrenceType: RecurIntervalDays, IntervalDays: 3, ActiveFrom: &anchor}, RecurIntervalDays, false},
		{"interval without length", Template{RecurrenceType: RecurIntervalDays, ActiveFrom: &anchor}, "", true},
		{"interval without anchor", Template{RecurrenceType: RecurIntervalDays, IntervalDays: 3}, "", true},
		{"unknown type", Template{RecurrenceType: "FORTNIGHTLY"}, "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule, err := tc.template.Rule()
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", rule)
				}
				return
			}
			if err != nil {
				t.Fatalf("rule: %v", err)
			}
			if rule.Type() != tc.want {
				t.Fatalf("rule type = %q, want %q", rule.Type(), tc.want)
			}
		})
	}
}

func TestTemplateRule_VariantFields(t *testing.T) {
	specific := time.Date(2024, time.March, 8, 15, 4, 5, 0, time.UTC)
	template := Template{RecurrenceType: RecurSpecificDate, SpecificDate: &specific}
	rule, err := template.Rule()
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	onDate, ok := rule.(OnDate)
	if !ok {
		t.Fatalf("rule = %#v, want OnDate", rule)
	}
	if !onDate.Date.Equal(day(2024, time.March, 8)) {
		t.Fatalf("OnDate keeps time of day: %s", onDate.Date)
	}

	anchor := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)
	template = Template{RecurrenceType: RecurIntervalDays, IntervalDays: 5, ActiveFrom: &anchor}
	rule, err = template.Rule()
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	interval := rule.(EveryNDays)
	if interval.N != 5 || !interval.Anchor.Equal(day(2024, time.January, 1)) {
		t.Fatalf("interval = %#v", interval)
	}
}

func TestTemplateActiveOn(t *testing.T) {
	from := day(2024, time.January, 10)
	to := day(2024, time.January, 20)

	unbounded := Template{}
	if !unbounded.ActiveOn(day(1999, time.July, 1)) {
		t.Fatalf("template without bounds must always be active")
	}

	bounded := Template{ActiveFrom: &from, ActiveTo: &to}
	for _, tc := range []struct {
		date time.Time
		want bool
	}{
		{day(2024, time.January, 9), false},
		{day(2024, time.January, 10), true},
		{day(2024, time.January, 20), true},
		{day(2024, time.January, 21), false},
	} {
		if got := bounded.ActiveOn(tc.date); got != tc.want {
			t.Fatalf("ActiveOn(%s) = %v, want %v", tc.date.Format("2006-01-02"), got, tc.want)
		}
	}

	openEnded := Template{ActiveFrom: &from}
	if openEnded.ActiveOn(day(2024, time.January, 9)) || !openEnded.ActiveOn(day(2030, time.June, 1)) {
		t.Fatalf("open-ended window handled wrong")
	}
}
