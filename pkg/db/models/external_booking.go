package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExternalBooking binds a partner idempotency token to exactly one
// internal booking. The unique index on token makes replayed partner
// requests resolve to the original row instead of creating a second one.
type ExternalBooking struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	SiteID        uuid.UUID       `gorm:"column:site_id;type:uuid;not null"`
	Token         string          `gorm:"column:token;not null;uniqueIndex:ux_external_bookings_token"`
	MerchantID    string          `gorm:"column:merchant_id;not null;index"`
	BookingID     uuid.UUID       `gorm:"column:booking_id;type:uuid;not null;index"`
	SlotID        *uuid.UUID      `gorm:"column:slot_id;type:uuid"`
	ServiceID     string          `gorm:"column:service_id;not null;default:'visit'"`
	StartTime     time.Time       `gorm:"column:start_time;not null"`
	EndTime       time.Time       `gorm:"column:end_time;not null"`
	RawPayload    json.RawMessage `gorm:"column:raw_payload;type:jsonb"`
	LastSyncedAt  time.Time       `gorm:"column:last_synced_at;autoCreateTime"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
