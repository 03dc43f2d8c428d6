package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// CreateInput carries everything needed to open a booking.
type CreateInput struct {
	TenantID uuid.UUID
	SiteID   uuid.UUID
	UnitID   *uuid.UUID

	CustomerFirstName string
	CustomerLastName  string
	CustomerEmail     string
	CustomerPhone     string

	StartDate    time.Time
	EndDate      *time.Time
	MonthlyPrice decimal.Decimal
	PromoCode    string
	Source       enums.BookingSource
	Notes        string
}

// TransitionInput moves a booking to a new status.
type TransitionInput struct {
	BookingID uuid.UUID
	TenantID  uuid.UUID
	ToStatus  enums.BookingStatus
	Notes     string
	ActorID   string
}
