package partner

import (
	"time"

	"github.com/google/uuid"
)

// FailureCause values follow the partner's reservation contract.
const (
	CauseSlotUnavailable    = "SLOT_UNAVAILABLE"
	CauseBookingSystemError = "BOOKING_SYSTEM_ERROR"
	CauseBookingNotFound    = "BOOKING_NOT_FOUND"
)

// Partner-side booking status vocabulary.
const (
	PartnerStatusPending   = "PENDING"
	PartnerStatusConfirmed = "CONFIRMED"
	PartnerStatusCanceled  = "CANCELED"
	PartnerStatusDeclined  = "DECLINED"
)

// SlotRef identifies one visit slot in partner terms.
type SlotRef struct {
	MerchantID string    `json:"merchant_id"`
	ServiceID  string    `json:"service_id,omitempty"`
	StartTime  time.Time `json:"start_time"`
	DurationSec int64    `json:"duration_sec,omitempty"`
}

// UserInformation is the visitor identity supplied by the partner.
type UserInformation struct {
	UserID     string `json:"user_id"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Telephone  string `json:"telephone,omitempty"`
}

// Booking is the partner-facing booking representation.
type Booking struct {
	BookingID       string          `json:"booking_id"`
	Slot            SlotRef         `json:"slot"`
	UserInformation UserInformation `json:"user_information"`
	Status          string          `json:"status"`
}

// BookingFailure is the structured failure the partner expects instead
// of a bare HTTP error.
type BookingFailure struct {
	Cause       string `json:"cause"`
	Description string `json:"description,omitempty"`
}

// CheckAvailabilityRequest asks for remaining capacity on one slot.
type CheckAvailabilityRequest struct {
	Slot SlotRef `json:"slot"`
}

// CheckAvailabilityResponse reports the remaining capacity.
type CheckAvailabilityResponse struct {
	Slot                  SlotRef    `json:"slot"`
	CountAvailable        int        `json:"count_available"`
	LastCancellableTime   *time.Time `json:"last_cancellable_time,omitempty"`
	DurationRequirement   string     `json:"duration_requirement,omitempty"`
}

// BatchAvailabilityLookupRequest asks for capacity over a time range.
type BatchAvailabilityLookupRequest struct {
	MerchantID string    `json:"merchant_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// SlotAvailability pairs a slot with its remaining capacity.
type SlotAvailability struct {
	Slot           SlotRef `json:"slot"`
	CountAvailable int     `json:"count_available"`
}

// BatchAvailabilityLookupResponse lists capacity per generated slot.
type BatchAvailabilityLookupResponse struct {
	SlotAvailability []SlotAvailability `json:"slot_time_availability"`
}

// CreateBookingRequest opens a visit booking for a slot.
type CreateBookingRequest struct {
	Slot             SlotRef         `json:"slot"`
	UserInformation  UserInformation `json:"user_information"`
	IdempotencyToken string          `json:"idempotency_token"`
}

// CreateBookingResponse returns either the booking or a failure.
type CreateBookingResponse struct {
	Booking        *Booking        `json:"booking,omitempty"`
	BookingFailure *BookingFailure `json:"booking_failure,omitempty"`
}

// UpdateBookingRequest replaces the booking status. The update mask is
// accepted for contract compatibility but the status is applied as a
// full replacement.
type UpdateBookingRequest struct {
	Booking    Booking `json:"booking"`
	UpdateMask string  `json:"update_mask,omitempty"`
}

// UpdateBookingResponse mirrors CreateBookingResponse.
type UpdateBookingResponse struct {
	Booking        *Booking        `json:"booking,omitempty"`
	BookingFailure *BookingFailure `json:"booking_failure,omitempty"`
}

// ListBookingsRequest asks for every booking in a time range.
type ListBookingsRequest struct {
	MerchantID string    `json:"merchant_id"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

// ListBookingsResponse lists partner-facing bookings.
type ListBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

// CreateInput is the service-level input assembled by the controller.
type CreateInput struct {
	MerchantID       string
	IdempotencyToken string
	Slot             SlotRef
	User             UserInformation
}

// UpdateInput carries a partner status replacement.
type UpdateInput struct {
	MerchantID    string
	BookingID     uuid.UUID
	PartnerStatus string
}
