package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// Unit is one rentable storage unit. Its status column is the single
// source of truth for claimability and is only ever mutated through
// conditional updates (see internal/units).
type Unit struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID     uuid.UUID        `gorm:"column:tenant_id;type:uuid;not null;index"`
	SiteID       uuid.UUID        `gorm:"column:site_id;type:uuid;not null;index"`
	Number       string           `gorm:"column:number;not null"`
	Name         *string          `gorm:"column:name"`
	VolumeM3     *decimal.Decimal `gorm:"column:volume_m3;type:numeric(8,2)"`
	CurrentPrice decimal.Decimal  `gorm:"column:current_price;type:numeric(12,2);not null"`
	Status       enums.UnitStatus `gorm:"column:status;type:text;not null;default:'available';index"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
