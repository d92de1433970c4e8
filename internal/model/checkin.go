package model

import "time"

// Checkin records one submitted review of a trailing time window.
// The unique index closes the duplicate-submission race: two concurrent
// submissions for the same window leave exactly one row.
type Checkin struct {
	ID             uint      `gorm:"primaryKey"`
	UserID         uint      `gorm:"index;index:idx_checkin_window,unique"`
	WindowStart    time.Time `gorm:"index:idx_checkin_window,unique"`
	WindowEnd      time.Time `gorm:"index:idx_checkin_window,unique"`
	OverallComment string
	CreatedAt      time.Time
}

// CompletionLog is an append-only record of minutes credited to a task
// instance by a check-in.
type CompletionLog struct {
	ID             uint `gorm:"primaryKey"`
	CheckinID      uint `gorm:"index"`
	UserID         uint `gorm:"index"`
	TaskInstanceID uint `gorm:"index"`
	AddedMinutes   int
	Comment        string
	ReferenceLink  string
	CreatedAt      time.Time
}
