package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/api/validators"
	"github.com/jvidal-dev/stokage-backend/internal/units"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type createUnitRequest struct {
	SiteID       string  `json:"site_id" validate:"required,uuid"`
	Number       string  `json:"number" validate:"required"`
	Name         *string `json:"name,omitempty"`
	VolumeM3     *string `json:"volume_m3,omitempty"`
	CurrentPrice string  `json:"current_price" validate:"required"`
}

type unitResponse struct {
	ID           uuid.UUID `json:"id"`
	SiteID       uuid.UUID `json:"site_id"`
	Number       string    `json:"number"`
	Name         *string   `json:"name,omitempty"`
	VolumeM3     *string   `json:"volume_m3,omitempty"`
	CurrentPrice string    `json:"current_price"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toUnitResponse(unit *models.Unit) unitResponse {
	resp := unitResponse{
		ID:           unit.ID,
		SiteID:       unit.SiteID,
		Number:       unit.Number,
		Name:         unit.Name,
		CurrentPrice: unit.CurrentPrice.StringFixed(2),
		Status:       unit.Status.String(),
		CreatedAt:    unit.CreatedAt,
	}
	if unit.VolumeM3 != nil {
		volume := unit.VolumeM3.StringFixed(2)
		resp.VolumeM3 = &volume
	}
	return resp
}

// ListAvailableUnits returns the units at a site still open for booking.
func ListAvailableUnits(repo units.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := validators.ParseUUIDParam(r, "siteID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := repo.ListAvailableBySite(r.Context(), siteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]unitResponse, 0, len(list))
		for i := range list {
			out = append(out, toUnitResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

// CreateUnit registers a new unit for the authenticated tenant.
func CreateUnit(repo units.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createUnitRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unit, err := buildUnit(tenantID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := repo.Create(r.Context(), unit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toUnitResponse(created))
	}
}

func buildUnit(tenantID uuid.UUID, req createUnitRequest) (*models.Unit, error) {
	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid")
	}
	price, err := decimal.NewFromString(req.CurrentPrice)
	if err != nil || price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current_price must be a non-negative decimal")
	}

	unit := &models.Unit{
		TenantID:     tenantID,
		SiteID:       siteID,
		Number:       strings.TrimSpace(req.Number),
		Name:         req.Name,
		CurrentPrice: price,
		Status:       enums.UnitStatusAvailable,
	}
	if req.VolumeM3 != nil {
		volume, err := decimal.NewFromString(*req.VolumeM3)
		if err != nil || volume.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "volume_m3 must be a non-negative decimal")
		}
		unit.VolumeM3 = &volume
	}
	return unit, nil
}
