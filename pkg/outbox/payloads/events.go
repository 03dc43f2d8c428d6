package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// BookingCreatedEvent signals a new booking entering the ledger.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	BookingNumber string              `json:"booking_number"`
	SiteID        uuid.UUID           `json:"site_id"`
	UnitID        *uuid.UUID          `json:"unit_id,omitempty"`
	Status        enums.BookingStatus `json:"status"`
	Source        enums.BookingSource `json:"source"`
	CustomerEmail string              `json:"customer_email"`
	StartDate     time.Time           `json:"start_date"`
	MonthlyPrice  decimal.Decimal     `json:"monthly_price"`
}

// BookingStatusChangedEvent is emitted on every accepted transition.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	BookingNumber string              `json:"booking_number"`
	FromStatus    enums.BookingStatus `json:"from_status"`
	ToStatus      enums.BookingStatus `json:"to_status"`
	ChangedAt     time.Time           `json:"changed_at"`
	Notes         string              `json:"notes,omitempty"`
}

// UnitOccupiedEvent reports a unit moving to occupied.
type UnitOccupiedEvent struct {
	UnitID    uuid.UUID `json:"unit_id"`
	SiteID    uuid.UUID `json:"site_id"`
	BookingID uuid.UUID `json:"booking_id"`
}

// UnitVacatedEvent reports a unit returning to the available pool.
type UnitVacatedEvent struct {
	UnitID    uuid.UUID `json:"unit_id"`
	SiteID    uuid.UUID `json:"site_id"`
	BookingID uuid.UUID `json:"booking_id"`
}
