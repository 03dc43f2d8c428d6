// Package partnerapi exposes the external booking bridge over HTTP in
// the partner's wire contract: bare JSON bodies, and booking failures
// reported inside a 200 response rather than as HTTP errors.
package partnerapi

import (
	"encoding/json"
	"net/http"

	"github.com/jvidal-dev/stokage-backend/api/middleware"
	"github.com/jvidal-dev/stokage-backend/api/responses"
	"github.com/jvidal-dev/stokage-backend/api/validators"
	"github.com/jvidal-dev/stokage-backend/internal/partner"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

func writePartnerJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodePartnerBody(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed request body")
	}
	return nil
}

// CheckAvailability reports remaining capacity for a single slot.
func CheckAvailability(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		var req partner.CheckAvailabilityRequest
		if err := decodePartnerBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Slot.MerchantID = merchantID

		resp, err := svc.CheckAvailability(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePartnerJSON(w, resp)
	}
}

// BatchAvailabilityLookup reports capacity for every slot in a range.
func BatchAvailabilityLookup(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		var req partner.BatchAvailabilityLookupRequest
		if err := decodePartnerBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.MerchantID = merchantID

		resp, err := svc.BatchAvailabilityLookup(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePartnerJSON(w, resp)
	}
}

// CreateBooking opens a booking. Domain failures are returned as a
// booking_failure payload with HTTP 200, which is what the partner's
// retry logic keys on.
func CreateBooking(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		var req partner.CreateBookingRequest
		if err := decodePartnerBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.Slot.MerchantID = merchantID

		booking, err := svc.CreateBooking(r.Context(), partner.CreateInput{
			MerchantID:       merchantID,
			IdempotencyToken: req.IdempotencyToken,
			Slot:             req.Slot,
			User:             req.UserInformation,
		})
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeValidation {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			logg.Warn(r.Context(), "partner booking failed: "+err.Error())
			writePartnerJSON(w, partner.CreateBookingResponse{BookingFailure: partner.FailureFor(err)})
			return
		}
		writePartnerJSON(w, partner.CreateBookingResponse{Booking: booking})
	}
}

// UpdateBooking replaces the partner-side status of a booking.
func UpdateBooking(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req partner.UpdateBookingRequest
		if err := decodePartnerBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.UpdateBooking(r.Context(), partner.UpdateInput{
			MerchantID:    merchantID,
			BookingID:     bookingID,
			PartnerStatus: req.Booking.Status,
		})
		if err != nil {
			logg.Warn(r.Context(), "partner booking update failed: "+err.Error())
			writePartnerJSON(w, partner.UpdateBookingResponse{BookingFailure: partner.FailureFor(err)})
			return
		}
		writePartnerJSON(w, partner.UpdateBookingResponse{Booking: booking})
	}
}

// GetBookingStatus returns the current partner-facing booking state.
func GetBookingStatus(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		booking, err := svc.GetBookingStatus(r.Context(), merchantID, bookingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePartnerJSON(w, booking)
	}
}

// ListBookings returns every booking for the merchant in a time range.
func ListBookings(svc partner.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		merchantID := middleware.MerchantIDFromContext(r.Context())

		var req partner.ListBookingsRequest
		if err := decodePartnerBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		req.MerchantID = merchantID

		resp, err := svc.ListBookings(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writePartnerJSON(w, resp)
	}
}
