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

// TemplateInput carries the user-editable fields of a task template.
type TemplateInput struct {
	Title            string
	Description      string
	EstimatedMinutes int
	Priority         int
	RecurrenceType   model.RecurrenceType
	DayOfWeek        int
	SpecificDate     *time.Time
	IntervalDays     int
	DefaultStartTime string
	ActiveFrom       *time.Time
	ActiveTo         *time.Time
}

// TemplateService owns the lifecycle of recurring task templates.
type TemplateService struct {
	repo *repository.TemplateRepository
}

func NewTemplateService(repo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

func (s *TemplateService) Create(ctx context.Context, userID uint, input TemplateInput) (*model.Template, error) {
	template := model.Template{
		UserID:  userID,
		Enabled: true,
	}
	applyInput(&template, input)
	if err := validateTemplate(&template); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &template); err != nil {
		return nil, err
	}
	return &template, nil
}

func (s *TemplateService) Update(ctx context.Context, userID, templateID uint, input TemplateInput, enabled bool) (*model.Template, error) {
	template, err := s.requireOwned(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	applyInput(template, input)
	template.Enabled = enabled
	if err := validateTemplate(template); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) SetEnabled(ctx context.Context, userID, templateID uint, enabled bool) (*model.Template, error) {
	template, err := s.requireOwned(ctx, userID, templateID)
	if err != nil {
		return nil, err
	}
	template.Enabled = enabled
	if err := s.repo.Save(ctx, template); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *TemplateService) Delete(ctx context.Context, userID, templateID uint) error {
	if _, err := s.requireOwned(ctx, userID, templateID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, templateID)
}

func (s *TemplateService) Get(ctx context.Context, userID, templateID uint) (*model.Template, error) {
	return s.requireOwned(ctx, userID, templateID)
}

func (s *TemplateService) ListByUser(ctx context.Context, userID uint) ([]model.Template, error) {
	return s.repo.ListByUser(ctx, userID)
}

// FindActiveForDate returns every enabled template whose active window
// contains the date, across all users. Rule matching is the engine's job.
func (s *TemplateService) FindActiveForDate(ctx context.Context, date time.Time) ([]model.Template, error) {
	enabled, err := s.repo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	var active []model.Template
	for _, template := range enabled {
		if template.ActiveOn(date) {
			active = append(active, template)
		}
	}
	return active, nil
}

func (s *TemplateService) requireOwned(ctx context.Context, userID, templateID uint) (*model.Template, error) {
	template, err := s.repo.FindByID(ctx, userID, templateID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("template")
	}
	if err != nil {
		return nil, err
	}
	return template, nil
}

func applyInput(template *model.Template, input TemplateInput) {
	template.Title = strings.TrimSpace(input.Title)
	template.Description = strings.TrimSpace(input.Description)
	template.EstimatedMinutes = input.EstimatedMinutes
	template.Priority = input.Priority
	template.RecurrenceType = input.RecurrenceType
	template.DayOfWeek = input.DayOfWeek
	template.SpecificDate = input.SpecificDate
	template.IntervalDays = input.IntervalDays
	template.DefaultStartTime = strings.TrimSpace(input.DefaultStartTime)
	template.ActiveFrom = input.ActiveFrom
	template.ActiveTo = input.ActiveTo
}

func validateTemplate(template *model.Template) error {
	if template.Title == "" {
		return validationf("title is required")
	}
	if template.EstimatedMinutes <= 0 {
		return validationf("estimatedMinutes must be positive")
	}
	if template.Priority < 1 || template.Priority > 5 {
		return validationf("priority must be between 1 and 5")
	}
	if template.DefaultStartTime != "" {
		if _, err := model.ParseClock(template.DefaultStartTime); err != nil {
			return validationf("%v", err)
		}
	}
	if template.ActiveFrom != nil && template.ActiveTo != nil && template.ActiveFrom.After(*template.ActiveTo) {
		return validationf("activeFrom cannot be later than activeTo")
	}
	if _, err := template.Rule(); err != nil {
		return validationf("%v", err)
	}
	return nil
}
