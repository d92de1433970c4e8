package service

import "everydo/internal/model"

// ResolveStatus derives an instance status from accumulated effort.
// Planned minutes of zero mean any positive effort completes the task.
func ResolveStatus(completedMinutes, plannedMinutes int) model.Status {
	switch {
	case completedMinutes >= plannedMinutes:
		return model.StatusCompleted
	case completedMinutes > 0:
		return model.StatusInProgress
	default:
		return model.StatusPending
	}
}

// applyMinutesDelta folds delta into the instance's completed minutes,
// clamping the total at zero, and re-derives the status. CANCELLED is sticky:
// accumulation never resurrects a cancelled task.
func applyMinutesDelta(instance *model.Instance, delta int) {
	total := instance.CompletedMinutes + delta
	if total < 0 {
		total = 0
	}
	instance.CompletedMinutes = total
	if instance.Status != model.StatusCancelled {
		instance.Status = ResolveStatus(total, instance.PlannedMinutes)
	}
}

// checkExplicitStatus vets a requested explicit transition. PENDING with
// recorded effort would contradict the derived rule, so it is a conflict.
func checkExplicitStatus(instance *model.Instance, requested model.Status) error {
	if requested == model.StatusPending && instance.CompletedMinutes > 0 {
		return conflictf("cannot set task to PENDING when completed minutes is greater than 0")
	}
	return nil
}
