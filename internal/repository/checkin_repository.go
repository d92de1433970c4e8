package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"everydo/internal/model"
)

// CheckinRepository handles time-window check-ins and their completion logs.
type CheckinRepository struct {
	db *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// Create inserts a check-in. gorm.ErrDuplicatedKey is returned untranslated:
// it is the duplicate-window signal the coordinator turns into a conflict.
func (r *CheckinRepository) Create(ctx context.Context, checkin *model.Checkin) error {
	return r.db.WithContext(ctx).Create(checkin).Error
}

func (r *CheckinRepository) ListByWindowStartRange(ctx context.Context, userID uint, start, end time.Time) ([]model.Checkin, error) {
	var checkins []model.Checkin
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND window_start >= ? AND window_start < ?", userID, start, end).
		Order("window_start DESC").
		Find(&checkins).Error; err != nil {
		return nil, err
	}
	return checkins, nil
}

// Page returns one page of a user's check-ins, newest window first, plus the
// total row count. A non-nil date restricts to windows starting on that day.
func (r *CheckinRepository) Page(ctx context.Context, userID uint, offset, limit int, date *time.Time) ([]model.Checkin, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Checkin{}).Where("user_id = ?", userID)
	if date != nil {
		day := model.DateOf(*date)
		query = query.Where("window_start >= ? AND window_start < ?", day, day.AddDate(0, 0, 1))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count checkins: %w", err)
	}

	var checkins []model.Checkin
	if err := query.Order("window_start DESC, id DESC").Offset(offset).Limit(limit).Find(&checkins).Error; err != nil {
		return nil, 0, err
	}
	return checkins, total, nil
}

func (r *CheckinRepository) CountByWindow(ctx context.Context, userID uint, windowStart, windowEnd time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Checkin{}).
		Where("user_id = ? AND window_start = ? AND window_end = ?", userID, windowStart, windowEnd).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count checkins: %w", err)
	}
	return count, nil
}

func (r *CheckinRepository) CreateLog(ctx context.Context, entry *model.CompletionLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create completion log: %w", err)
	}
	return nil
}

func (r *CheckinRepository) ListLogsByCheckin(ctx context.Context, checkinID uint) ([]model.CompletionLog, error) {
	var logs []model.CompletionLog
	if err := r.db.WithContext(ctx).Where("checkin_id = ?", checkinID).
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *CheckinRepository) ListLogsByCheckins(ctx context.Context, checkinIDs []uint) ([]model.CompletionLog, error) {
	if len(checkinIDs) == 0 {
		return nil, nil
	}
	var logs []model.CompletionLog
	if err := r.db.WithContext(ctx).Where("checkin_id IN ?", checkinIDs).
		Order("id ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
