package models

import (
	"time"

	"github.com/google/uuid"
)

// PartnerSettings is per-tenant configuration for the external booking
// bridge. MerchantID is what the partner sends to identify the tenant.
type PartnerSettings struct {
	ID                  uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID            uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex"`
	MerchantID          string    `gorm:"column:merchant_id;not null;uniqueIndex"`
	WebhookSecret       string    `gorm:"column:webhook_secret;not null"`
	IsEnabled           bool      `gorm:"column:is_enabled;not null;default:true"`
	AutoConfirm         bool      `gorm:"column:auto_confirm;not null;default:false"`
	SlotDurationMinutes int       `gorm:"column:slot_duration_minutes;not null;default:60"`
	MinAdvanceHours     int       `gorm:"column:min_advance_hours;not null;default:1"`
	OpeningTime         string    `gorm:"column:opening_time;not null;default:'09:00'"`
	ClosingTime         string    `gorm:"column:closing_time;not null;default:'18:00'"`
	AvailableDays       string    `gorm:"column:available_days;not null;default:'1,2,3,4,5,6'"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// DayEnabled reports whether the given weekday (time.Weekday numbering,
// Sunday=0) is open for slot generation.
func (s *PartnerSettings) DayEnabled(weekday time.Weekday) bool {
	want := byte('0' + int(weekday))
	for i := 0; i < len(s.AvailableDays); i++ {
		if s.AvailableDays[i] == want {
			return true
		}
	}
	return false
}
