package webhooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

// bookingEventData is the payload fragment booking-lifecycle providers
// send inside the event envelope.
type bookingEventData struct {
	BookingID uuid.UUID `json:"booking_id"`
}

// bookingTransitions maps provider event types onto booking statuses.
var bookingTransitions = map[string]enums.BookingStatus{
	"payment.succeeded":  enums.BookingStatusConfirmed,
	"payment.failed":     enums.BookingStatusRejected,
	"move_in.completed":  enums.BookingStatusActive,
	"move_out.completed": enums.BookingStatusCompleted,
	"booking.cancelled":  enums.BookingStatusCancelled,
}

// NewBookingEventHandler routes provider lifecycle events into booking
// transitions. Event types with no mapping are acknowledged untouched,
// and transitions the booking has already passed are treated as
// replays rather than failures.
func NewBookingEventHandler(svc bookings.Service, logg *logger.Logger) Handler {
	return func(ctx context.Context, event *models.WebhookEvent) error {
		target, ok := bookingTransitions[event.EventType]
		if !ok {
			if logg != nil {
				logCtx := logg.WithField(ctx, "event_type", event.EventType)
				logg.Info(logCtx, "ignoring unmapped webhook event type")
			}
			return nil
		}

		var envelope eventEnvelope
		if err := json.Unmarshal(event.Payload, &envelope); err != nil {
			return fmt.Errorf("decode event payload: %w", err)
		}
		var data bookingEventData
		if err := json.Unmarshal(envelope.Data, &data); err != nil || data.BookingID == uuid.Nil {
			return fmt.Errorf("event %s carries no booking id", event.ExternalID)
		}

		_, err := svc.Transition(ctx, bookings.TransitionInput{
			BookingID: data.BookingID,
			TenantID:  event.TenantID,
			ToStatus:  target,
			Notes:     fmt.Sprintf("%s webhook %s", event.Provider, event.EventType),
			ActorID:   "webhook:" + event.Provider,
		})
		if err != nil {
			// a replayed event lands after the booking already moved on
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				if logg != nil {
					logg.Info(logg.WithBookingID(ctx, data.BookingID.String()), "webhook transition already applied")
				}
				return nil
			}
			return err
		}
		return nil
	}
}
