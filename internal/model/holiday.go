package model

import "time"

// HolidayOverride pins a single date as holiday or working day, overriding
// the weekend default.
type HolidayOverride struct {
	ID        uint      `gorm:"primaryKey"`
	Date      time.Time `gorm:"uniqueIndex"`
	IsHoliday bool
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
