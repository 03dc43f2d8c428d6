package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	OutboxAggregateBooking OutboxAggregateType = "booking"
	OutboxAggregateUnit    OutboxAggregateType = "unit"
	OutboxAggregateSlot    OutboxAggregateType = "slot"
)

var validAggregateTypes = []OutboxAggregateType{
	OutboxAggregateBooking,
	OutboxAggregateUnit,
	OutboxAggregateSlot,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres. These are the
// notification types tenants can subscribe outbound webhook endpoints to.
type OutboxEventType string

const (
	OutboxEventBookingCreated   OutboxEventType = "booking.created"
	OutboxEventBookingConfirmed OutboxEventType = "booking.confirmed"
	OutboxEventBookingRejected  OutboxEventType = "booking.rejected"
	OutboxEventBookingCancelled OutboxEventType = "booking.cancelled"
	OutboxEventBookingCompleted OutboxEventType = "booking.completed"
	OutboxEventUnitOccupied     OutboxEventType = "unit.occupied"
	OutboxEventUnitVacated      OutboxEventType = "unit.vacated"
)

var validOutboxEventTypes = []OutboxEventType{
	OutboxEventBookingCreated,
	OutboxEventBookingConfirmed,
	OutboxEventBookingRejected,
	OutboxEventBookingCancelled,
	OutboxEventBookingCompleted,
	OutboxEventUnitOccupied,
	OutboxEventUnitVacated,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
