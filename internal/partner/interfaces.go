package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Repository defines persistence operations for the booking bridge.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindSettingsByMerchant(ctx context.Context, merchantID string) (*models.PartnerSettings, error)
	FindSettingsByTenant(ctx context.Context, tenantID uuid.UUID) (*models.PartnerSettings, error)
	FindByToken(ctx context.Context, token string) (*models.ExternalBooking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ExternalBooking, error)
	Create(ctx context.Context, booking *models.ExternalBooking) (*models.ExternalBooking, error)
	ListByMerchantAndRange(ctx context.Context, merchantID string, from, to time.Time) ([]models.ExternalBooking, error)
	TouchSync(ctx context.Context, id uuid.UUID) error
	FindSlot(ctx context.Context, tenantID uuid.UUID, start time.Time) (*models.Slot, error)
	ListSlots(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Slot, error)
}

// Service is the external booking bridge.
type Service interface {
	CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResponse, error)
	BatchAvailabilityLookup(ctx context.Context, req BatchAvailabilityLookupRequest) (*BatchAvailabilityLookupResponse, error)
	CreateBooking(ctx context.Context, input CreateInput) (*Booking, error)
	UpdateBooking(ctx context.Context, input UpdateInput) (*Booking, error)
	GetBookingStatus(ctx context.Context, merchantID string, bookingID uuid.UUID) (*Booking, error)
	ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error)
}
