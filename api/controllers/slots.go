package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/api/validators"
	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const defaultAvailabilityWindowDays = 14

type slotResponse struct {
	ID        uuid.UUID `json:"id"`
	Date      string    `json:"date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Available int       `json:"available"`
}

type generateSlotsRequest struct {
	SiteID string  `json:"site_id" validate:"required,uuid"`
	From   *string `json:"from,omitempty"`
	Days   int     `json:"days" validate:"required,min=1,max=365"`
}

type generateSlotsResponse struct {
	Created int `json:"created"`
}

// SettingsSource resolves the tenant's scheduling settings.
type SettingsSource interface {
	FindSettingsByTenant(ctx context.Context, tenantID uuid.UUID) (*models.PartnerSettings, error)
}

// SlotAvailability lists open move-in slots for a site over a date range.
func SlotAvailability(svc slots.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		siteID, err := validators.ParseUUIDParam(r, "siteID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start := time.Now().UTC().Truncate(24 * time.Hour)
		if from != nil {
			start = *from
		}
		end := start.AddDate(0, 0, defaultAvailabilityWindowDays)
		if to != nil {
			end = *to
		}
		if !end.After(start) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "to must be after from"))
			return
		}

		list, err := svc.Availability(r.Context(), siteID, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]slotResponse, 0, len(list))
		for _, slot := range list {
			if slot.Available() == 0 {
				continue
			}
			out = append(out, slotResponse{
				ID:        slot.ID,
				Date:      slot.Date.Format("2006-01-02"),
				StartTime: slot.StartTime.Format("15:04"),
				EndTime:   slot.EndTime.Format("15:04"),
				Available: slot.Available(),
			})
		}
		responses.WriteSuccess(w, out)
	}
}

// GenerateSlots extends the slot horizon for one site on demand.
func GenerateSlots(svc slots.Service, settings SettingsSource, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req generateSlotsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		siteID, err := uuid.Parse(req.SiteID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid"))
			return
		}

		from := time.Now().UTC()
		if req.From != nil {
			parsed, err := time.Parse("2006-01-02", *req.From)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "from must be YYYY-MM-DD"))
				return
			}
			from = parsed
		}

		cfg, err := settings.FindSettingsByTenant(r.Context(), tenantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeNotFound, "no scheduling settings for tenant")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Generate(r.Context(), slots.GenerateInput{
			TenantID: tenantID,
			SiteID:   siteID,
			Settings: cfg,
			From:     from,
			Days:     req.Days,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, generateSlotsResponse{Created: created})
	}
}
