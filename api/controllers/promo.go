package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/api/validators"
	"github.com/jvidal-dev/stokage-backend/internal/promo"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type validatePromoRequest struct {
	SiteID       string `json:"site_id" validate:"required,uuid"`
	Code         string `json:"code" validate:"required"`
	RentalAmount string `json:"rental_amount" validate:"required"`
}

type validatePromoResponse struct {
	Code           string `json:"code"`
	Description    string `json:"description,omitempty"`
	DiscountType   string `json:"discount_type"`
	DiscountAmount string `json:"discount_amount"`
	FinalAmount    string `json:"final_amount"`
}

type createPromoRequest struct {
	SiteID          *string `json:"site_id,omitempty" validate:"omitempty,uuid"`
	Code            string  `json:"code" validate:"required,min=2,max=40"`
	Description     string  `json:"description,omitempty"`
	DiscountType    string  `json:"discount_type" validate:"required"`
	DiscountValue   string  `json:"discount_value" validate:"required"`
	MinRentalAmount *string `json:"min_rental_amount,omitempty"`
	MaxUses         *int    `json:"max_uses,omitempty" validate:"omitempty,min=1"`
	ValidFrom       *string `json:"valid_from,omitempty"`
	ValidUntil      *string `json:"valid_until,omitempty"`
}

type promoResponse struct {
	ID            uuid.UUID `json:"id"`
	Code          string    `json:"code"`
	DiscountType  string    `json:"discount_type"`
	DiscountValue string    `json:"discount_value"`
	MaxUses       *int      `json:"max_uses,omitempty"`
	UsesCount     int       `json:"uses_count"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// ValidatePromoCode checks a code against its validity window, usage cap
// and rental floor, and quotes the discount without redeeming anything.
func ValidatePromoCode(svc promo.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req validatePromoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		siteID, err := uuid.Parse(req.SiteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid"))
			return
		}
		amount, err := decimal.NewFromString(req.RentalAmount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "rental_amount must be a decimal amount"))
			return
		}

		code, err := svc.FindValid(r.Context(), promo.ValidateInput{
			TenantID:     tenantID,
			SiteID:       siteID,
			Code:         req.Code,
			RentalAmount: amount,
			Now:          time.Now().UTC(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discount := svc.Discount(code, amount)
		responses.WriteSuccess(w, validatePromoResponse{
			Code:           code.Code,
			Description:    code.Description,
			DiscountType:   code.DiscountType.String(),
			DiscountAmount: discount.StringFixed(2),
			FinalAmount:    amount.Sub(discount).StringFixed(2),
		})
	}
}

// CreatePromoCode registers a new code for the authenticated tenant.
func CreatePromoCode(repo promo.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createPromoRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := buildPromoCode(tenantID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := repo.Create(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, promoResponse{
			ID:            created.ID,
			Code:          created.Code,
			DiscountType:  created.DiscountType.String(),
			DiscountValue: created.DiscountValue.StringFixed(2),
			MaxUses:       created.MaxUses,
			UsesCount:     created.UsesCount,
			IsActive:      created.IsActive,
			CreatedAt:     created.CreatedAt,
		})
	}
}

func buildPromoCode(tenantID uuid.UUID, req createPromoRequest) (*models.PromoCode, error) {
	discountType, err := enums.ParseDiscountType(strings.ToLower(strings.TrimSpace(req.DiscountType)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_type must be percentage or fixed")
	}
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil || value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_value must be a non-negative decimal")
	}
	if discountType == enums.DiscountTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}

	code := &models.PromoCode{
		TenantID:      tenantID,
		Code:          strings.ToUpper(strings.TrimSpace(req.Code)),
		Description:   req.Description,
		DiscountType:  discountType,
		DiscountValue: value,
		MaxUses:       req.MaxUses,
		IsActive:      true,
	}

	if req.SiteID != nil {
		siteID, err := uuid.Parse(*req.SiteID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid")
		}
		code.SiteID = &siteID
	}
	if req.MinRentalAmount != nil {
		min, err := decimal.NewFromString(*req.MinRentalAmount)
		if err != nil || min.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "min_rental_amount must be a non-negative decimal")
		}
		code.MinRentalAmount = &min
	}
	if req.ValidFrom != nil {
		from, err := time.Parse(time.RFC3339, *req.ValidFrom)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_from must be RFC3339")
		}
		code.ValidFrom = &from
	}
	if req.ValidUntil != nil {
		until, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be RFC3339")
		}
		code.ValidUntil = &until
	}
	if code.ValidFrom != nil && code.ValidUntil != nil && !code.ValidUntil.After(*code.ValidFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}
	return code, nil
}
