package models

import (
	"time"

	"github.com/google/uuid"
)

// Site is one physical facility operated by a tenant.
type Site struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null;index"`
	Name       string     `gorm:"column:name;not null"`
	City       *string    `gorm:"column:city"`
	PostalCode *string    `gorm:"column:postal_code"`
	Country    string     `gorm:"column:country;not null;default:'FR'"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt  *time.Time `gorm:"column:deleted_at;index"`
}
