package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// OutboxEvent is written inside the same transaction as the domain
// change it describes. The dispatcher drains unpublished rows and
// delivers them to tenant webhook endpoints.
type OutboxEvent struct {
	ID            uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID      uuid.UUID                `gorm:"column:tenant_id;type:uuid;not null;index"`
	AggregateType enums.OutboxAggregateType `gorm:"column:aggregate_type;not null"`
	AggregateID   uuid.UUID                `gorm:"column:aggregate_id;type:uuid;not null"`
	EventType     enums.OutboxEventType    `gorm:"column:event_type;not null"`
	Payload       json.RawMessage          `gorm:"column:payload;type:jsonb;not null"`
	Attempts      int                      `gorm:"column:attempts;not null;default:0"`
	LastError     *string                  `gorm:"column:last_error"`
	PublishedAt   *time.Time               `gorm:"column:published_at;index"`
	CreatedAt     time.Time                `gorm:"column:created_at;autoCreateTime"`
}
