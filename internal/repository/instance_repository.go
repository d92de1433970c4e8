package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"everydo/internal/model"
)

// InstanceRepository handles CRUD for task instances.
type InstanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) *InstanceRepository {
	return &InstanceRepository{db: db}
}

// Create inserts an instance. A gorm.ErrDuplicatedKey result means another
// writer already materialized the same (user, template, plan date) row;
// callers treat that as their idempotency signal, so it is returned untranslated.
func (r *InstanceRepository) Create(ctx context.Context, instance *model.Instance) error {
	return r.db.WithContext(ctx).Create(instance).Error
}

func (r *InstanceRepository) Save(ctx context.Context, instance *model.Instance) error {
	if err := r.db.WithContext(ctx).Save(instance).Error; err != nil {
		return fmt.Errorf("save instance: %w", err)
	}
	return nil
}

func (r *InstanceRepository) FindByID(ctx context.Context, userID, instanceID uint) (*model.Instance, error) {
	var instance model.Instance
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, instanceID).First(&instance).Error; err != nil {
		return nil, err
	}
	return &instance, nil
}

func (r *InstanceRepository) ListByPlanDate(ctx context.Context, userID uint, date time.Time) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).Where("user_id = ? AND plan_date = ?", userID, model.DateOf(date)).
		Order("planned_start_time ASC, id DESC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// ListByPlanDateRange returns instances with plan date in [start, endExclusive).
func (r *InstanceRepository) ListByPlanDateRange(ctx context.Context, userID uint, start, endExclusive time.Time) ([]model.Instance, error) {
	var instances []model.Instance
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND plan_date >= ? AND plan_date < ?", userID, model.DateOf(start), model.DateOf(endExclusive)).
		Order("plan_date ASC, planned_start_time ASC, id DESC").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// Mutate runs fn against the owned instance inside a transaction and persists
// the result. SQLite holds the write lock for the whole transaction, so
// concurrent read-modify-writes of the same row cannot interleave.
func (r *InstanceRepository) Mutate(ctx context.Context, userID, instanceID uint, fn func(*model.Instance) error) (*model.Instance, error) {
	var mutated *model.Instance
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var instance model.Instance
		if err := tx.Where("user_id = ? AND id = ?", userID, instanceID).First(&instance).Error; err != nil {
			return err
		}
		if err := fn(&instance); err != nil {
			return err
		}
		if err := tx.Save(&instance).Error; err != nil {
			return fmt.Errorf("save instance: %w", err)
		}
		mutated = &instance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return mutated, nil
}

func (r *InstanceRepository) Delete(ctx context.Context, userID, instanceID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, instanceID).
		Delete(&model.Instance{}).Error; err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}
