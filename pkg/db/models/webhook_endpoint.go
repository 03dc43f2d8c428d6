package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// WebhookEndpoint is an outbound subscription registered by a tenant.
// Events is a comma separated list of event types, empty meaning all.
type WebhookEndpoint struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null;index"`
	URL       string    `gorm:"column:url;not null"`
	Secret    string    `gorm:"column:secret;not null"`
	Events    string    `gorm:"column:events"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// WantsEvent reports whether the endpoint subscribes to the given
// event type.
func (e *WebhookEndpoint) WantsEvent(eventType string) bool {
	if e.Events == "" {
		return true
	}
	for _, part := range strings.Split(e.Events, ",") {
		if strings.TrimSpace(part) == eventType {
			return true
		}
	}
	return false
}
