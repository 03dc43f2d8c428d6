package models

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a capacity bucket for one site/date/time combination, used by
// the partner reservation channel. CurrentBookings only moves through
// the guarded increment/decrement in internal/slots.
type Slot struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID        uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	SiteID          uuid.UUID `gorm:"column:site_id;type:uuid;not null;uniqueIndex:ux_slots_site_date_start,priority:1"`
	Date            time.Time `gorm:"column:date;type:date;not null;uniqueIndex:ux_slots_site_date_start,priority:2"`
	StartTime       time.Time `gorm:"column:start_time;not null;uniqueIndex:ux_slots_site_date_start,priority:3"`
	EndTime         time.Time `gorm:"column:end_time;not null"`
	MaxBookings     int       `gorm:"column:max_bookings;not null;default:1"`
	CurrentBookings int       `gorm:"column:current_bookings;not null;default:0"`
	IsAvailable     bool      `gorm:"column:is_available;not null;default:true"`
	IsBlocked       bool      `gorm:"column:is_blocked;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Available returns the remaining capacity, never negative.
func (s Slot) Available() int {
	if !s.IsAvailable || s.IsBlocked {
		return 0
	}
	if remaining := s.MaxBookings - s.CurrentBookings; remaining > 0 {
		return remaining
	}
	return 0
}
