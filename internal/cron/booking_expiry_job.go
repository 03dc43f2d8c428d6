package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const defaultPendingTTLHours = 48

type pendingBookingReader interface {
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
}

type bookingTransitioner interface {
	Transition(ctx context.Context, input bookings.TransitionInput) (*models.Booking, error)
}

// BookingExpiryJobParams configure the stale pending booking sweeper.
type BookingExpiryJobParams struct {
	Logger   *logger.Logger
	Reader   pendingBookingReader
	Bookings bookingTransitioner
	TTLHours int
}

// NewBookingExpiryJob builds the cron job that cancels pending bookings
// older than the configured TTL. Cancellation goes through the booking
// orchestrator so held units and slot capacity come back with it.
func NewBookingExpiryJob(params BookingExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("pending booking reader required")
	}
	if params.Bookings == nil {
		return nil, fmt.Errorf("booking service required")
	}
	ttl := params.TTLHours
	if ttl <= 0 {
		ttl = defaultPendingTTLHours
	}
	return &bookingExpiryJob{
		logg:     params.Logger,
		reader:   params.Reader,
		bookings: params.Bookings,
		ttl:      time.Duration(ttl) * time.Hour,
		now:      time.Now,
	}, nil
}

type bookingExpiryJob struct {
	logg     *logger.Logger
	reader   pendingBookingReader
	bookings bookingTransitioner
	ttl      time.Duration
	now      func() time.Time
}

func (j *bookingExpiryJob) Name() string { return "booking-expiry" }

func (j *bookingExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	stale, err := j.reader.FindPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("query stale pending bookings: %w", err)
	}

	var combined error
	cancelled := 0
	for _, booking := range stale {
		_, err := j.bookings.Transition(ctx, bookings.TransitionInput{
			BookingID: booking.ID,
			TenantID:  booking.TenantID,
			ToStatus:  enums.BookingStatusCancelled,
			Notes:     "pending booking expired",
			ActorID:   "cron:booking-expiry",
		})
		if err != nil {
			// the booking moved on between the query and the sweep
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				continue
			}
			combined = multierr.Append(combined, fmt.Errorf("expire booking %s: %w", booking.ID, err))
			continue
		}
		cancelled++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"found":     len(stale),
		"cancelled": cancelled,
	})
	j.logg.Info(logCtx, "pending booking expiry sweep complete")
	return combined
}
