package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"everydo/internal/model"
)

// TemplateRepository handles CRUD for task templates.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *model.Template) error {
	if err := r.db.WithContext(ctx).Create(template).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) Save(ctx context.Context, template *model.Template) error {
	if err := r.db.WithContext(ctx).Save(template).Error; err != nil {
		return fmt.Errorf("save template: %w", err)
	}
	return nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, userID, templateID uint) (*model.Template, error) {
	var template model.Template
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, templateID).First(&template).Error; err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("id DESC").
		Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

// ListEnabled returns every enabled template across all users; the active
// date-window and rule checks stay in the recurrence engine.
func (r *TemplateRepository) ListEnabled(ctx context.Context) ([]model.Template, error) {
	var templates []model.Template
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepository) Delete(ctx context.Context, userID, templateID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, templateID).
		Delete(&model.Template{}).Error; err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
