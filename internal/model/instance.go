package model

import "time"

// Status is the lifecycle state of a task instance.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Instance is a dated task: materialized from a template, entered by hand,
// or created retroactively by a check-in. The unique index over
// (user, template, plan date) is what makes template materialization
// at-most-once; rows without a template carry NULL there and never collide.
type Instance struct {
	ID               uint  `gorm:"primaryKey"`
	UserID           uint  `gorm:"index;index:idx_instance_materialization,unique"`
	TemplateID       *uint `gorm:"index:idx_instance_materialization,unique"`
	Title            string
	Description      string
	PlanDate         time.Time `gorm:"index;index:idx_instance_materialization,unique"`
	PlannedStartTime string    // optional HH:MM, empty = all-day
	PlannedMinutes   int
	CompletedMinutes int
	Status           Status `gorm:"default:PENDING"`
	AdHoc            bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PlannedAt resolves the effective planned instant: plan date at the planned
// start time. ok is false for all-day instances.
func (i *Instance) PlannedAt() (at time.Time, ok bool) {
	if i.PlannedStartTime == "" {
		return time.Time{}, false
	}
	minutes, err := ParseClock(i.PlannedStartTime)
	if err != nil {
		return time.Time{}, false
	}
	return DateOf(i.PlanDate).Add(time.Duration(minutes) * time.Minute), true
}
