package promo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Repository defines persistence operations for promo codes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*models.PromoCode, error)
	Create(ctx context.Context, promo *models.PromoCode) (*models.PromoCode, error)
}

// ValidateInput carries everything needed to decide whether a code applies.
type ValidateInput struct {
	TenantID     uuid.UUID
	SiteID       uuid.UUID
	Code         string
	RentalAmount decimal.Decimal
	Now          time.Time
}

// Service validates and redeems promo codes.
type Service interface {
	FindValid(ctx context.Context, input ValidateInput) (*models.PromoCode, error)
	Discount(promo *models.PromoCode, price decimal.Decimal) decimal.Decimal
	Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error
}
