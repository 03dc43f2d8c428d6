package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/api/middleware"
	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/api/validators"
	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type createBookingRequest struct {
	SiteID            string  `json:"site_id" validate:"required,uuid"`
	UnitID            *string `json:"unit_id,omitempty" validate:"omitempty,uuid"`
	CustomerFirstName string  `json:"customer_first_name" validate:"required"`
	CustomerLastName  string  `json:"customer_last_name" validate:"required"`
	CustomerEmail     string  `json:"customer_email" validate:"required,email"`
	CustomerPhone     string  `json:"customer_phone,omitempty"`
	StartDate         string  `json:"start_date" validate:"required"`
	EndDate           *string `json:"end_date,omitempty"`
	MonthlyPrice      string  `json:"monthly_price" validate:"required"`
	PromoCode         string  `json:"promo_code,omitempty"`
	Notes             string  `json:"notes,omitempty"`
}

type transitionBookingRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

type bookingResponse struct {
	ID             uuid.UUID  `json:"id"`
	Number         string     `json:"number"`
	SiteID         uuid.UUID  `json:"site_id"`
	UnitID         *uuid.UUID `json:"unit_id,omitempty"`
	Status         string     `json:"status"`
	Source         string     `json:"source"`
	StartDate      string     `json:"start_date"`
	EndDate        *string    `json:"end_date,omitempty"`
	MonthlyPrice   string     `json:"monthly_price"`
	DiscountAmount string     `json:"discount_amount"`
	DepositAmount  string     `json:"deposit_amount"`
	PromoCode      *string    `json:"promo_code,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toBookingResponse(booking *models.Booking) bookingResponse {
	resp := bookingResponse{
		ID:             booking.ID,
		Number:         booking.Number,
		SiteID:         booking.SiteID,
		UnitID:         booking.UnitID,
		Status:         booking.Status.String(),
		Source:         string(booking.Source),
		StartDate:      booking.StartDate.Format("2006-01-02"),
		MonthlyPrice:   booking.MonthlyPrice.StringFixed(2),
		DiscountAmount: booking.DiscountAmount.StringFixed(2),
		DepositAmount:  booking.DepositAmount.StringFixed(2),
		PromoCode:      booking.PromoCode,
		CreatedAt:      booking.CreatedAt,
	}
	if booking.EndDate != nil {
		end := booking.EndDate.Format("2006-01-02")
		resp.EndDate = &end
	}
	return resp
}

func tenantFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := middleware.TenantIDFromContext(r.Context())
	tenantID, err := uuid.Parse(raw)
	if err != nil || tenantID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	return tenantID, nil
}

// CreateBooking opens a booking for the authenticated tenant.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateInput(tenantID, req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toBookingResponse(booking))
	}
}

func buildCreateInput(tenantID uuid.UUID, req createBookingRequest) (bookings.CreateInput, error) {
	siteID, err := uuid.Parse(req.SiteID)
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid")
	}

	var unitID *uuid.UUID
	if req.UnitID != nil {
		parsed, err := uuid.Parse(*req.UnitID)
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unit_id must be a uuid")
		}
		unitID = &parsed
	}

	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be YYYY-MM-DD")
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.EndDate)
		if err != nil {
			return bookings.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be YYYY-MM-DD")
		}
		endDate = &parsed
	}

	price, err := decimal.NewFromString(req.MonthlyPrice)
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.New(pkgerrors.CodeValidation, "monthly_price must be a decimal amount")
	}

	return bookings.CreateInput{
		TenantID:          tenantID,
		SiteID:            siteID,
		UnitID:            unitID,
		CustomerFirstName: req.CustomerFirstName,
		CustomerLastName:  req.CustomerLastName,
		CustomerEmail:     req.CustomerEmail,
		CustomerPhone:     req.CustomerPhone,
		StartDate:         startDate,
		EndDate:           endDate,
		MonthlyPrice:      price,
		PromoCode:         req.PromoCode,
		Source:            enums.BookingSourceWebsite,
		Notes:             req.Notes,
	}, nil
}

// TransitionBooking moves a booking to a new lifecycle status.
func TransitionBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transitionBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.Transition(r.Context(), bookings.TransitionInput{
			BookingID: bookingID,
			TenantID:  tenantID,
			ToStatus:  enums.BookingStatus(strings.ToLower(strings.TrimSpace(req.Status))),
			Notes:     req.Notes,
			ActorID:   middleware.UserIDFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toBookingResponse(booking))
	}
}

// GetBooking returns one booking scoped to the authenticated tenant.
func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.FindByID(r.Context(), bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if booking.TenantID != tenantID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found"))
			return
		}
		responses.WriteSuccess(w, toBookingResponse(booking))
	}
}

// ListBookings returns the tenant's bookings with optional filters.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), tenantID, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]bookingResponse, 0, len(list))
		for i := range list {
			out = append(out, toBookingResponse(&list[i]))
		}
		responses.WriteSuccess(w, out)
	}
}

func buildListFilters(r *http.Request) (bookings.ListFilters, error) {
	filters := bookings.ListFilters{}

	limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
	if err != nil {
		return filters, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<20)
	if err != nil {
		return filters, err
	}
	filters.Limit = limit
	filters.Offset = offset

	if raw := strings.TrimSpace(r.URL.Query().Get("site_id")); raw != "" {
		siteID, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "site_id must be a uuid")
		}
		filters.SiteID = &siteID
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := enums.BookingStatus(strings.ToLower(raw))
		if !status.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking status")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("source")); raw != "" {
		source := enums.BookingSource(strings.ToLower(raw))
		if !source.IsValid() {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking source")
		}
		filters.Source = &source
	}

	from, err := validators.ParseQueryTime(r, "from")
	if err != nil {
		return filters, err
	}
	filters.FromDate = from

	to, err := validators.ParseQueryTime(r, "to")
	if err != nil {
		return filters, err
	}
	filters.ToDate = to

	return filters, nil
}
