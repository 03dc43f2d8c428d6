package promo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
)

var oneHundred = decimal.NewFromInt(100)

type service struct {
	repo Repository
}

// NewService builds a promo service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo repository required")
	}
	return &service{repo: repo}, nil
}

// FindValid resolves a code and checks every eligibility rule. Validity
// here does not consume a use, Redeem does that at booking time.
func (s *service) FindValid(ctx context.Context, input ValidateInput) (*models.PromoCode, error) {
	promo, err := s.repo.FindByCode(ctx, input.TenantID, input.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup promo code")
	}

	if !promo.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code is inactive")
	}
	if promo.SiteID != nil && *promo.SiteID != input.SiteID {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code not valid at this site")
	}
	if promo.ValidFrom != nil && input.Now.Before(*promo.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code not yet active")
	}
	if promo.ValidUntil != nil && input.Now.After(*promo.ValidUntil) {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code expired")
	}
	if promo.MaxUses != nil && promo.UsesCount >= *promo.MaxUses {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code usage limit reached")
	}
	if promo.MinRentalAmount != nil && input.RentalAmount.LessThan(*promo.MinRentalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodePromoInvalid, "rental amount below promo minimum").
			WithDetails(map[string]any{"min_rental_amount": promo.MinRentalAmount.String()})
	}

	return promo, nil
}

// Discount computes the amount taken off the monthly price. The result
// is never negative and never exceeds the price.
func (s *service) Discount(promo *models.PromoCode, price decimal.Decimal) decimal.Decimal {
	if promo == nil || price.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch promo.DiscountType {
	case enums.DiscountTypePercentage:
		discount = price.Mul(promo.DiscountValue).Div(oneHundred).Round(2)
	case enums.DiscountTypeFixed:
		discount = promo.DiscountValue
	default:
		return decimal.Zero
	}

	if discount.GreaterThan(price) {
		return price
	}
	if discount.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return discount
}

// Redeem consumes one use with a guarded increment so the usage cap
// holds under concurrent bookings.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for promo redemption")
	}

	res := tx.WithContext(ctx).Exec(`
		UPDATE promo_codes
		SET uses_count = uses_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
			AND is_active = ?
			AND (max_uses IS NULL OR uses_count < max_uses)
	`, promoID, true)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "redeem promo code")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code can no longer be redeemed").
			WithDetails(map[string]any{"promo_id": promoID.String()})
	}
	return nil
}
