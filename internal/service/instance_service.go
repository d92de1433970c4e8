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

// ManualTaskInput carries the fields of a hand-entered task instance.
type ManualTaskInput struct {
	Title            string
	Description      string
	PlanDate         time.Time
	PlannedStartTime string
	PlannedMinutes   int
}

// UpdateTaskInput carries an instance edit, including the requested status.
type UpdateTaskInput struct {
	Title            string
	Description      string
	PlanDate         time.Time
	PlannedStartTime string
	PlannedMinutes   int
	Status           model.Status
}

// InstanceService owns dated task instances: direct edits, effort
// accumulation and idempotent materialization from templates.
type InstanceService struct {
	repo *repository.InstanceRepository
}

func NewInstanceService(repo *repository.InstanceRepository) *InstanceService {
	return &InstanceService{repo: repo}
}

func (s *InstanceService) CreateManual(ctx context.Context, userID uint, input ManualTaskInput) (*model.Instance, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if input.PlannedMinutes < 0 {
		return nil, validationf("plannedMinutes cannot be negative")
	}
	if input.PlannedStartTime != "" {
		if _, err := model.ParseClock(input.PlannedStartTime); err != nil {
			return nil, validationf("%v", err)
		}
	}

	instance := model.Instance{
		UserID:           userID,
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		PlanDate:         model.DateOf(input.PlanDate),
		PlannedStartTime: input.PlannedStartTime,
		PlannedMinutes:   input.PlannedMinutes,
		Status:           model.StatusPending,
		AdHoc:            true,
	}
	if err := s.repo.Create(ctx, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

func (s *InstanceService) Get(ctx context.Context, userID, instanceID uint) (*model.Instance, error) {
	return s.requireOwned(ctx, userID, instanceID)
}

func (s *InstanceService) ListByDate(ctx context.Context, userID uint, date time.Time) ([]model.Instance, error) {
	return s.repo.ListByPlanDate(ctx, userID, date)
}

// Update rewrites the editable fields and reconciles the status: CANCELLED is
// always honored, PENDING only while no effort is recorded, anything else is
// re-derived from the minute totals.
func (s *InstanceService) Update(ctx context.Context, userID, instanceID uint, input UpdateTaskInput) (*model.Instance, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if input.PlannedStartTime != "" {
		if _, err := model.ParseClock(input.PlannedStartTime); err != nil {
			return nil, validationf("%v", err)
		}
	}

	instance, err := s.mutateOwned(ctx, userID, instanceID, func(instance *model.Instance) error {
		instance.Title = title
		instance.Description = strings.TrimSpace(input.Description)
		instance.PlanDate = model.DateOf(input.PlanDate)
		instance.PlannedStartTime = input.PlannedStartTime
		instance.PlannedMinutes = input.PlannedMinutes

		switch input.Status {
		case model.StatusCancelled:
			instance.Status = model.StatusCancelled
		case model.StatusPending:
			if err := checkExplicitStatus(instance, model.StatusPending); err != nil {
				return err
			}
			instance.Status = model.StatusPending
		default:
			instance.Status = ResolveStatus(instance.CompletedMinutes, instance.PlannedMinutes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return instance, nil
}

// SetStatus applies an explicit status transition.
func (s *InstanceService) SetStatus(ctx context.Context, userID, instanceID uint, status model.Status) (*model.Instance, error) {
	switch status {
	case model.StatusPending, model.StatusInProgress, model.StatusCompleted, model.StatusCancelled:
	default:
		return nil, validationf("unknown status %q", status)
	}
	return s.mutateOwned(ctx, userID, instanceID, func(instance *model.Instance) error {
		if err := checkExplicitStatus(instance, status); err != nil {
			return err
		}
		instance.Status = status
		return nil
	})
}

// AddCompletionMinutes folds delta minutes into the instance's total inside a
// transaction, so concurrent accumulation on the same row cannot lose updates.
func (s *InstanceService) AddCompletionMinutes(ctx context.Context, userID, instanceID uint, delta int) (*model.Instance, error) {
	return s.mutateOwned(ctx, userID, instanceID, func(instance *model.Instance) error {
		applyMinutesDelta(instance, delta)
		return nil
	})
}

func (s *InstanceService) Delete(ctx context.Context, userID, instanceID uint) error {
	if _, err := s.requireOwned(ctx, userID, instanceID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, instanceID)
}

// CreateAdHocFromCheckin records work that had no planned task: the instance
// is born COMPLETED with planned minutes equal to the logged effort.
func (s *InstanceService) CreateAdHocFromCheckin(ctx context.Context, userID uint, title string, planDate time.Time, completedMinutes int) (*model.Instance, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, validationf("title cannot be blank")
	}

	instance := model.Instance{
		UserID:           userID,
		Title:            title,
		PlanDate:         model.DateOf(planDate),
		PlannedMinutes:   completedMinutes,
		CompletedMinutes: completedMinutes,
		Status:           model.StatusCompleted,
		AdHoc:            true,
	}
	if err := s.repo.Create(ctx, &instance); err != nil {
		return nil, err
	}
	return &instance, nil
}

// CreateFromTemplateIfAbsent materializes the template for a date at most
// once. The insert races onto the (user, template, plan date) unique index;
// losing that race means the instance already exists and is a no-op.
func (s *InstanceService) CreateFromTemplateIfAbsent(ctx context.Context, template *model.Template, date time.Time) (bool, error) {
	templateID := template.ID
	instance := model.Instance{
		UserID:           template.UserID,
		TemplateID:       &templateID,
		Title:            template.Title,
		Description:      template.Description,
		PlanDate:         model.DateOf(date),
		PlannedStartTime: template.DefaultStartTime,
		PlannedMinutes:   template.EstimatedMinutes,
		Status:           model.StatusPending,
		AdHoc:            false,
	}
	err := s.repo.Create(ctx, &instance)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *InstanceService) requireOwned(ctx context.Context, userID, instanceID uint) (*model.Instance, error) {
	instance, err := s.repo.FindByID(ctx, userID, instanceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("task instance")
	}
	if err != nil {
		return nil, err
	}
	return instance, nil
}

func (s *InstanceService) mutateOwned(ctx context.Context, userID, instanceID uint, fn func(*model.Instance) error) (*model.Instance, error) {
	instance, err := s.repo.Mutate(ctx, userID, instanceID, fn)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("task instance")
	}
	if err != nil {
		return nil, err
	}
	return instance, nil
}
