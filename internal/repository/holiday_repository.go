package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"everydo/internal/model"
)

// HolidayRepository manages per-date holiday overrides.
type HolidayRepository struct {
	db *gorm.DB
}

func NewHolidayRepository(db *gorm.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

func (r *HolidayRepository) FindByDate(ctx context.Context, date time.Time) (*model.HolidayOverride, error) {
	var override model.HolidayOverride
	err := r.db.WithContext(ctx).Where("date = ?", model.DateOf(date)).First(&override).Error
	if err != nil {
		return nil, err
	}
	return &override, nil
}

func (r *HolidayRepository) ListRange(ctx context.Context, from, to time.Time) ([]model.HolidayOverride, error) {
	var overrides []model.HolidayOverride
	if err := r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", model.DateOf(from), model.DateOf(to)).
		Order("date ASC").
		Find(&overrides).Error; err != nil {
		return nil, err
	}
	return overrides, nil
}

// Upsert creates or updates the override for a date.
func (r *HolidayRepository) Upsert(ctx context.Context, date time.Time, isHoliday bool, name string) (*model.HolidayOverride, error) {
	day := model.DateOf(date)
	db := r.db.WithContext(ctx)

	var override model.HolidayOverride
	err := db.Where("date = ?", day).First(&override).Error
	switch {
	case err == nil:
		override.IsHoliday = isHoliday
		override.Name = name
		if err := db.Save(&override).Error; err != nil {
			return nil, fmt.Errorf("update holiday override: %w", err)
		}
		return &override, nil
	case err == gorm.ErrRecordNotFound:
		override = model.HolidayOverride{Date: day, IsHoliday: isHoliday, Name: name}
		if err := db.Create(&override).Error; err != nil {
			return nil, fmt.Errorf("create holiday override: %w", err)
		}
		return &override, nil
	default:
		return nil, fmt.Errorf("find holiday override: %w", err)
	}
}

func (r *HolidayRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	if err := r.db.WithContext(ctx).Where("date = ?", model.DateOf(date)).
		Delete(&model.HolidayOverride{}).Error; err != nil {
		return fmt.Errorf("delete holiday override: %w", err)
	}
	return nil
}
