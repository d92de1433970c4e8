package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"everydo/internal/model"
	"everydo/internal/repository"
)

// HolidayService answers whether a date counts as a holiday. Weekends are
// holidays unless an explicit override says otherwise.
type HolidayService struct {
	repo *repository.HolidayRepository
}

func NewHolidayService(repo *repository.HolidayRepository) *HolidayService {
	return &HolidayService{repo: repo}
}

func (s *HolidayService) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	override, err := s.repo.FindByDate(ctx, date)
	switch {
	case err == nil:
		return override.IsHoliday, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return isWeekend(date), nil
	default:
		return false, err
	}
}

func (s *HolidayService) IsWorkday(ctx context.Context, date time.Time) (bool, error) {
	holiday, err := s.IsHoliday(ctx, date)
	if err != nil {
		return false, err
	}
	return !holiday, nil
}

// HolidayDay is one calendar day with its effective holiday flag.
type HolidayDay struct {
	Date       time.Time
	IsHoliday  bool
	Name       string
	Overridden bool
}

// ListRange walks [from, to] day by day, applying overrides on top of the
// weekend default.
func (s *HolidayService) ListRange(ctx context.Context, from, to time.Time) ([]HolidayDay, error) {
	from, to = model.DateOf(from), model.DateOf(to)
	if from.After(to) {
		return nil, validationf("from cannot be later than to")
	}

	overrides, err := s.repo.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDate := make(map[time.Time]model.HolidayOverride, len(overrides))
	for _, override := range overrides {
		byDate[model.DateOf(override.Date)] = override
	}

	var days []HolidayDay
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		if override, ok := byDate[day]; ok {
			days = append(days, HolidayDay{Date: day, IsHoliday: override.IsHoliday, Name: override.Name, Overridden: true})
			continue
		}
		days = append(days, HolidayDay{Date: day, IsHoliday: isWeekend(day)})
	}
	return days, nil
}

func (s *HolidayService) Upsert(ctx context.Context, date time.Time, isHoliday bool, name string) (HolidayDay, error) {
	override, err := s.repo.Upsert(ctx, date, isHoliday, name)
	if err != nil {
		return HolidayDay{}, err
	}
	return HolidayDay{Date: model.DateOf(override.Date), IsHoliday: override.IsHoliday, Name: override.Name, Overridden: true}, nil
}

func (s *HolidayService) Delete(ctx context.Context, date time.Time) error {
	return s.repo.DeleteByDate(ctx, date)
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
