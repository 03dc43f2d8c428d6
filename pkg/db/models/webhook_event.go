package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the durable record of one inbound provider event.
// The (provider, external id) unique index is what makes ingestion
// at-most-once: a redelivery hits the existing row and is skipped.
type WebhookEvent struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID       `gorm:"column:tenant_id;type:uuid;not null;index"`
	Provider    string          `gorm:"column:provider;not null;uniqueIndex:ux_webhook_events_provider_external,priority:1"`
	ExternalID  string          `gorm:"column:external_id;not null;uniqueIndex:ux_webhook_events_provider_external,priority:2"`
	EventType   string          `gorm:"column:event_type;not null"`
	Payload     json.RawMessage `gorm:"column:payload;type:jsonb;not null"`
	Processed   bool            `gorm:"column:processed;not null;default:false;index"`
	ProcessedAt *time.Time      `gorm:"column:processed_at"`
	LastError   *string         `gorm:"column:last_error"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// ProviderConfig holds one tenant's inbound webhook configuration for a
// provider: the routing token in the URL and the shared HMAC secret.
type ProviderConfig struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	Provider  string    `gorm:"column:provider;not null"`
	Token     string    `gorm:"column:token;not null;uniqueIndex"`
	Secret    string    `gorm:"column:secret;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
