package partner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/internal/slots"
	dbpkg "github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         Repository
	bookingsRepo bookings.Repository
	slotSvc      slots.Service
	tx           txRunner
	logg         *logger.Logger
}

// NewService builds the external booking bridge.
func NewService(
	repo Repository,
	bookingsRepo bookings.Repository,
	slotSvc slots.Service,
	tx txRunner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("partner repository required")
	}
	if bookingsRepo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if slotSvc == nil {
		return nil, fmt.Errorf("slots service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:         repo,
		bookingsRepo: bookingsRepo,
		slotSvc:      slotSvc,
		tx:           tx,
		logg:         logg,
	}, nil
}

func (s *service) settingsFor(ctx context.Context, merchantID string) (*models.PartnerSettings, error) {
	settings, err := s.repo.FindSettingsByMerchant(ctx, merchantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown merchant")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load partner settings")
	}
	if !settings.IsEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "partner channel disabled for merchant")
	}
	return settings, nil
}

func (s *service) CheckAvailability(ctx context.Context, req CheckAvailabilityRequest) (*CheckAvailabilityResponse, error) {
	settings, err := s.settingsFor(ctx, req.Slot.MerchantID)
	if err != nil {
		return nil, err
	}

	resp := &CheckAvailabilityResponse{Slot: req.Slot}
	slot, err := s.repo.FindSlot(ctx, settings.TenantID, req.Slot.StartTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup slot")
	}

	resp.CountAvailable = slot.Available()
	cancellable := slot.StartTime.Add(-time.Duration(settings.MinAdvanceHours) * time.Hour)
	resp.LastCancellableTime = &cancellable
	return resp, nil
}

func (s *service) BatchAvailabilityLookup(ctx context.Context, req BatchAvailabilityLookupRequest) (*BatchAvailabilityLookupResponse, error) {
	settings, err := s.settingsFor(ctx, req.MerchantID)
	if err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "time range end must be after start")
	}

	rows, err := s.repo.ListSlots(ctx, settings.TenantID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list slots")
	}

	resp := &BatchAvailabilityLookupResponse{
		SlotAvailability: make([]SlotAvailability, 0, len(rows)),
	}
	for _, slot := range rows {
		resp.SlotAvailability = append(resp.SlotAvailability, SlotAvailability{
			Slot: SlotRef{
				MerchantID:  req.MerchantID,
				ServiceID:   "visit",
				StartTime:   slot.StartTime,
				DurationSec: int64(slot.EndTime.Sub(slot.StartTime) / time.Second),
			},
			CountAvailable: slot.Available(),
		})
	}
	return resp, nil
}

// CreateBooking is idempotent on the caller's token: a replay returns
// the stored booking without touching slot capacity again.
func (s *service) CreateBooking(ctx context.Context, input CreateInput) (*Booking, error) {
	if input.IdempotencyToken == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "idempotency token is required")
	}

	settings, err := s.settingsFor(ctx, input.MerchantID)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.FindByToken(ctx, input.IdempotencyToken); err == nil {
		return s.toPartnerBooking(ctx, existing)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup external booking")
	}

	if input.Slot.StartTime.Before(time.Now().Add(time.Duration(settings.MinAdvanceHours) * time.Hour)) {
		return nil, pkgerrors.New(pkgerrors.CodeSlotUnavailable, "slot start is inside the minimum advance window")
	}

	var created *models.ExternalBooking
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		bookingsRepo := s.bookingsRepo.WithTx(tx)

		slot, err := repo.FindSlot(ctx, settings.TenantID, input.Slot.StartTime)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeSlotUnavailable, "no slot at requested start time")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup slot")
		}

		if err := s.slotSvc.Reserve(ctx, tx, slot.ID); err != nil {
			return err
		}

		status := enums.BookingStatusPending
		if settings.AutoConfirm {
			status = enums.BookingStatusConfirmed
		}

		number, err := s.nextNumber(ctx, bookingsRepo, settings.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next booking number")
		}

		booking := &models.Booking{
			Token:             uuid.New(),
			Number:            number,
			TenantID:          settings.TenantID,
			SiteID:            slot.SiteID,
			CustomerFirstName: input.User.GivenName,
			CustomerLastName:  input.User.FamilyName,
			CustomerEmail:     input.User.Email,
			CustomerPhone:     input.User.Telephone,
			StartDate:         slot.StartTime,
			MonthlyPrice:      decimal.Zero,
			Status:            status,
			Source:            enums.BookingSourcePartner,
		}
		if _, err := bookingsRepo.Create(ctx, booking); err != nil {
			return err
		}
		if err := bookingsRepo.AppendHistory(ctx, &models.BookingStatusHistory{
			BookingID: booking.ID,
			ToStatus:  status.String(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append booking history")
		}

		raw, _ := json.Marshal(input)
		external := &models.ExternalBooking{
			TenantID:   settings.TenantID,
			SiteID:     slot.SiteID,
			Token:      input.IdempotencyToken,
			MerchantID: input.MerchantID,
			BookingID:  booking.ID,
			SlotID:     &slot.ID,
			ServiceID:  "visit",
			StartTime:  slot.StartTime,
			EndTime:    slot.EndTime,
			RawPayload: raw,
		}
		if _, err := repo.Create(ctx, external); err != nil {
			return err
		}

		created = external
		return nil
	})
	if err != nil {
		// a concurrent replay with the same token won the insert; the
		// stored row is authoritative
		if dbpkg.IsUniqueViolation(err, "ux_external_bookings_token") {
			existing, lookupErr := s.repo.FindByToken(ctx, input.IdempotencyToken)
			if lookupErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lookupErr, "reload external booking")
			}
			return s.toPartnerBooking(ctx, existing)
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"external_booking_id": created.ID.String(),
			"merchant_id":         input.MerchantID,
		})
		s.logg.Info(logCtx, "external booking created")
	}
	return s.toPartnerBooking(ctx, created)
}

// UpdateBooking applies the partner's status as a full replacement.
// Unknown partner statuses are logged and leave state untouched, and a
// repeated cancellation never releases slot capacity twice.
func (s *service) UpdateBooking(ctx context.Context, input UpdateInput) (*Booking, error) {
	if _, err := s.settingsFor(ctx, input.MerchantID); err != nil {
		return nil, err
	}

	external, err := s.findForMerchant(ctx, input.MerchantID, input.BookingID)
	if err != nil {
		return nil, err
	}

	target, known := mapPartnerStatus(input.PartnerStatus)
	if !known {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"external_booking_id": external.ID.String(),
				"partner_status":      input.PartnerStatus,
			})
			s.logg.Warn(logCtx, "unknown partner status ignored")
		}
		return s.toPartnerBooking(ctx, external)
	}

	booking, err := s.bookingsRepo.FindByID(ctx, external.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load internal booking")
	}

	// already there, or already terminal: nothing to apply
	if booking.Status == target || booking.Status.IsTerminal() {
		return s.toPartnerBooking(ctx, external)
	}
	if !booking.Status.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "partner status transition disallowed").
			WithDetails(map[string]any{"from": booking.Status, "to": target})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		bookingsRepo := s.bookingsRepo.WithTx(tx)

		moved, err := bookingsRepo.UpdateStatus(ctx, booking.ID, booking.Status, target)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
		}
		if !moved {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed concurrently")
		}

		fromStr := booking.Status.String()
		if err := bookingsRepo.AppendHistory(ctx, &models.BookingStatusHistory{
			BookingID:  booking.ID,
			FromStatus: &fromStr,
			ToStatus:   target.String(),
			Notes:      "partner status update",
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append booking history")
		}

		if target.IsCancellation() && external.SlotID != nil {
			if err := s.slotSvc.Release(ctx, tx, *external.SlotID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchSync(ctx, external.ID); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "mark external booking synced failed")
	}
	return s.toPartnerBooking(ctx, external)
}

func (s *service) GetBookingStatus(ctx context.Context, merchantID string, bookingID uuid.UUID) (*Booking, error) {
	if _, err := s.settingsFor(ctx, merchantID); err != nil {
		return nil, err
	}
	external, err := s.findForMerchant(ctx, merchantID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.toPartnerBooking(ctx, external)
}

func (s *service) ListBookings(ctx context.Context, req ListBookingsRequest) (*ListBookingsResponse, error) {
	if _, err := s.settingsFor(ctx, req.MerchantID); err != nil {
		return nil, err
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "time range end must be after start")
	}

	rows, err := s.repo.ListByMerchantAndRange(ctx, req.MerchantID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list external bookings")
	}

	resp := &ListBookingsResponse{Bookings: make([]Booking, 0, len(rows))}
	for i := range rows {
		booking, err := s.toPartnerBooking(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		resp.Bookings = append(resp.Bookings, *booking)
	}
	return resp, nil
}

func (s *service) findForMerchant(ctx context.Context, merchantID string, id uuid.UUID) (*models.ExternalBooking, error) {
	external, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup external booking")
	}
	if external.MerchantID != merchantID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
	}
	return external, nil
}

func (s *service) toPartnerBooking(ctx context.Context, external *models.ExternalBooking) (*Booking, error) {
	booking, err := s.bookingsRepo.FindByID(ctx, external.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load internal booking")
	}

	var user UserInformation
	if len(external.RawPayload) > 0 {
		var stored CreateInput
		if err := json.Unmarshal(external.RawPayload, &stored); err == nil {
			user = stored.User
		}
	}

	return &Booking{
		BookingID: external.ID.String(),
		Slot: SlotRef{
			MerchantID:  external.MerchantID,
			ServiceID:   external.ServiceID,
			StartTime:   external.StartTime,
			DurationSec: int64(external.EndTime.Sub(external.StartTime) / time.Second),
		},
		UserInformation: user,
		Status:          toPartnerStatus(booking.Status),
	}, nil
}

// nextNumber mirrors the direct flow's numbering so partner bookings
// share the tenant sequence.
func (s *service) nextNumber(ctx context.Context, repo bookings.Repository, tenantID uuid.UUID) (string, error) {
	prefix := fmt.Sprintf("BK%d", time.Now().Year())
	count, err := repo.CountByTenantAndPrefix(ctx, tenantID, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func mapPartnerStatus(status string) (enums.BookingStatus, bool) {
	switch status {
	case PartnerStatusPending:
		return enums.BookingStatusPending, true
	case PartnerStatusConfirmed:
		return enums.BookingStatusConfirmed, true
	case PartnerStatusCanceled:
		return enums.BookingStatusCancelled, true
	case PartnerStatusDeclined:
		return enums.BookingStatusRejected, true
	default:
		return "", false
	}
}

func toPartnerStatus(status enums.BookingStatus) string {
	switch status {
	case enums.BookingStatusPending:
		return PartnerStatusPending
	case enums.BookingStatusConfirmed, enums.BookingStatusActive, enums.BookingStatusCompleted:
		return PartnerStatusConfirmed
	case enums.BookingStatusCancelled:
		return PartnerStatusCanceled
	case enums.BookingStatusRejected:
		return PartnerStatusDeclined
	default:
		return PartnerStatusPending
	}
}

// FailureFor converts a service error to the partner's structured
// failure contract.
func FailureFor(err error) *BookingFailure {
	typed := pkgerrors.As(err)
	if typed == nil {
		return &BookingFailure{Cause: CauseBookingSystemError, Description: "internal error"}
	}
	switch typed.Code() {
	case pkgerrors.CodeSlotUnavailable:
		return &BookingFailure{Cause: CauseSlotUnavailable, Description: typed.Message()}
	case pkgerrors.CodeNotFound:
		return &BookingFailure{Cause: CauseBookingNotFound, Description: typed.Message()}
	default:
		return &BookingFailure{Cause: CauseBookingSystemError, Description: typed.Message()}
	}
}
