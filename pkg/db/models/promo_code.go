package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// PromoCode is a tenant-scoped discount code. A nil SiteID means the
// code is valid at every site of the tenant. Redemption counting goes
// through a conditional UPDATE, never through saving this struct.
type PromoCode struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID        uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null;uniqueIndex:ux_promo_codes_tenant_code,priority:1"`
	SiteID          *uuid.UUID         `gorm:"column:site_id;type:uuid"`
	Code            string             `gorm:"column:code;not null;uniqueIndex:ux_promo_codes_tenant_code,priority:2"`
	Description     string             `gorm:"column:description"`
	DiscountType    enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue   decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinRentalAmount *decimal.Decimal   `gorm:"column:min_rental_amount;type:numeric(12,2)"`
	MaxUses         *int               `gorm:"column:max_uses"`
	UsesCount       int                `gorm:"column:uses_count;not null;default:0"`
	ValidFrom       *time.Time         `gorm:"column:valid_from"`
	ValidUntil      *time.Time         `gorm:"column:valid_until"`
	IsActive        bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt       gorm.DeletedAt     `gorm:"column:deleted_at;index"`
}
