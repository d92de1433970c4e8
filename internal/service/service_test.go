package service

import (
	"testing"
	"time"

	"everydo/internal/repository"
)

// testEnv wires every service against a fresh in-memory database.
type testEnv struct {
	holidays   *HolidayService
	templates  *TemplateService
	instances  *InstanceService
	recurrence *RecurrenceService
	checkins   *CheckinService
	stats      *StatsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repository.NewDB(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	holidays := NewHolidayService(repository.NewHolidayRepository(db))
	templates := NewTemplateService(repository.NewTemplateRepository(db))
	instances := NewInstanceService(repository.NewInstanceRepository(db))

	return &testEnv{
		holidays:   holidays,
		templates:  templates,
		instances:  instances,
		recurrence: NewRecurrenceService(templates, instances, holidays),
		checkins:   NewCheckinService(repository.NewCheckinRepository(db), instances),
		stats:      NewStatsService(repository.NewInstanceRepository(db), repository.NewCheckinRepository(db)),
	}
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func at(year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
}
