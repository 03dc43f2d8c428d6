package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type fakePendingReader struct {
	bookings []models.Booking
	cutoff   time.Time
}

func (f *fakePendingReader) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	f.cutoff = cutoff
	return f.bookings, nil
}

type fakeTransitioner struct {
	inputs []bookings.TransitionInput
	errs   map[uuid.UUID]error
}

func (f *fakeTransitioner) Transition(ctx context.Context, input bookings.TransitionInput) (*models.Booking, error) {
	f.inputs = append(f.inputs, input)
	if err, ok := f.errs[input.BookingID]; ok {
		return nil, err
	}
	return &models.Booking{ID: input.BookingID, Status: input.ToStatus}, nil
}

func TestBookingExpiryCancelsStalePending(t *testing.T) {
	stale := models.Booking{ID: uuid.New(), TenantID: uuid.New(), Status: enums.BookingStatusPending}
	reader := &fakePendingReader{bookings: []models.Booking{stale}}
	transitioner := &fakeTransitioner{}

	job, err := NewBookingExpiryJob(BookingExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Reader:   reader,
		Bookings: transitioner,
		TTLHours: 48,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(transitioner.inputs) != 1 {
		t.Fatalf("expected one transition, got %d", len(transitioner.inputs))
	}
	input := transitioner.inputs[0]
	if input.BookingID != stale.ID || input.TenantID != stale.TenantID {
		t.Fatalf("transition targeted wrong booking")
	}
	if input.ToStatus != enums.BookingStatusCancelled {
		t.Fatalf("expected cancellation, got %s", input.ToStatus)
	}
	if until := time.Until(reader.cutoff); until > -47*time.Hour {
		t.Fatalf("cutoff not pushed back by TTL: %s", reader.cutoff)
	}
}

func TestBookingExpiryToleratesConcurrentTransition(t *testing.T) {
	moved := models.Booking{ID: uuid.New(), TenantID: uuid.New(), Status: enums.BookingStatusPending}
	reader := &fakePendingReader{bookings: []models.Booking{moved}}
	transitioner := &fakeTransitioner{errs: map[uuid.UUID]error{
		moved.ID: pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed concurrently"),
	}}

	job, err := NewBookingExpiryJob(BookingExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Reader:   reader,
		Bookings: transitioner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("expected concurrent transitions to be tolerated, got %v", err)
	}
}

func TestBookingExpiryReportsOtherErrors(t *testing.T) {
	broken := models.Booking{ID: uuid.New(), TenantID: uuid.New(), Status: enums.BookingStatusPending}
	reader := &fakePendingReader{bookings: []models.Booking{broken}}
	transitioner := &fakeTransitioner{errs: map[uuid.UUID]error{
		broken.ID: errors.New("database down"),
	}}

	job, err := NewBookingExpiryJob(BookingExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Reader:   reader,
		Bookings: transitioner,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error to surface")
	}
}
