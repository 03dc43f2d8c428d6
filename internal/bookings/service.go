package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/promo"
	"github.com/jvidal-dev/stokage-backend/internal/units"
	dbpkg "github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
	"github.com/jvidal-dev/stokage-backend/pkg/outbox"
	"github.com/jvidal-dev/stokage-backend/pkg/outbox/payloads"
)

const numberRetries = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type service struct {
	repo         Repository
	tx           txRunner
	unitLedger   units.Ledger
	promos       promo.Service
	outbox       outboxPublisher
	logg         *logger.Logger
	numberPrefix string
}

// NewService builds a bookings service with the required dependencies.
func NewService(
	repo Repository,
	tx txRunner,
	unitLedger units.Ledger,
	promos promo.Service,
	outboxSvc outboxPublisher,
	logg *logger.Logger,
	numberPrefix string,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("bookings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if unitLedger == nil {
		return nil, fmt.Errorf("unit ledger required")
	}
	if promos == nil {
		return nil, fmt.Errorf("promo service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if numberPrefix == "" {
		numberPrefix = "BK"
	}
	return &service{
		repo:         repo,
		tx:           tx,
		unitLedger:   unitLedger,
		promos:       promos,
		outbox:       outboxSvc,
		logg:         logg,
		numberPrefix: numberPrefix,
	}, nil
}

// Create opens a booking. Unit claim, promo redemption, booking row,
// history and outbox event all commit in one transaction, so a losing
// claim rolls everything back.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Booking, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	var booking *models.Booking
	var lastErr error
	for attempt := 0; attempt < numberRetries; attempt++ {
		booking, lastErr = s.createOnce(ctx, input)
		if lastErr == nil {
			return booking, nil
		}
		if !dbpkg.IsUniqueViolation(lastErr, "ux_bookings_tenant_number") {
			return nil, lastErr
		}
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, lastErr, "allocate booking number")
}

func (s *service) createOnce(ctx context.Context, input CreateInput) (*models.Booking, error) {
	now := time.Now()
	var created *models.Booking

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if input.UnitID != nil {
			if err := s.unitLedger.TryClaim(ctx, tx, *input.UnitID); err != nil {
				return err
			}
		}

		discount := decimal.Zero
		var promoCode *string
		if code := strings.TrimSpace(input.PromoCode); code != "" {
			found, err := s.promos.FindValid(ctx, promo.ValidateInput{
				TenantID:     input.TenantID,
				SiteID:       input.SiteID,
				Code:         code,
				RentalAmount: input.MonthlyPrice,
				Now:          now,
			})
			if err == nil {
				err = s.promos.Redeem(ctx, tx, found.ID)
			}
			switch {
			case err == nil:
				discount = s.promos.Discount(found, input.MonthlyPrice)
				promoCode = &found.Code
			case isPromoInvalid(err):
				// An invalid or exhausted code books at full price, it
				// never fails the booking.
				if s.logg != nil {
					s.logg.Warn(s.logg.WithField(ctx, "promo_code", code), "promo code not applied: "+err.Error())
				}
			default:
				return err
			}
		}

		settings, err := repo.FindSettings(ctx, input.TenantID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking settings")
		}

		deposit := decimal.Zero
		autoConfirm := false
		if settings != nil {
			deposit = settings.Deposit(input.MonthlyPrice)
			autoConfirm = settings.AutoConfirm
		}

		number, err := s.nextNumber(ctx, repo, input.TenantID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next booking number")
		}

		booking := &models.Booking{
			Token:             uuid.New(),
			Number:            number,
			TenantID:          input.TenantID,
			SiteID:            input.SiteID,
			UnitID:            input.UnitID,
			CustomerFirstName: input.CustomerFirstName,
			CustomerLastName:  input.CustomerLastName,
			CustomerEmail:     input.CustomerEmail,
			CustomerPhone:     input.CustomerPhone,
			StartDate:         input.StartDate,
			EndDate:           input.EndDate,
			MonthlyPrice:      input.MonthlyPrice,
			DiscountAmount:    discount,
			DepositAmount:     deposit,
			Status:            enums.BookingStatusPending,
			Source:            input.Source,
			PromoCode:         promoCode,
			Notes:             input.Notes,
		}
		if _, err := repo.Create(ctx, booking); err != nil {
			return err
		}

		if err := repo.AppendHistory(ctx, &models.BookingStatusHistory{
			BookingID: booking.ID,
			ToStatus:  enums.BookingStatusPending.String(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append booking history")
		}

		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			TenantID:      input.TenantID,
			EventType:     enums.OutboxEventBookingCreated,
			AggregateType: enums.OutboxAggregateBooking,
			AggregateID:   booking.ID,
			Version:       1,
			Data: payloads.BookingCreatedEvent{
				BookingID:     booking.ID,
				BookingNumber: booking.Number,
				SiteID:        booking.SiteID,
				UnitID:        booking.UnitID,
				Status:        booking.Status,
				Source:        booking.Source,
				CustomerEmail: booking.CustomerEmail,
				StartDate:     booking.StartDate,
				MonthlyPrice:  booking.MonthlyPrice,
			},
		}); err != nil {
			return err
		}

		if autoConfirm {
			if err := s.applyTransition(ctx, tx, repo, booking, enums.BookingStatusConfirmed, "auto-confirmed", ""); err != nil {
				return err
			}
		}

		created = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"booking_id":     created.ID.String(),
			"booking_number": created.Number,
			"status":         created.Status,
		})
		s.logg.Info(logCtx, "booking created")
	}
	return created, nil
}

// Transition moves a booking along the lifecycle graph and applies the
// unit side effects for the target status.
func (s *service) Transition(ctx context.Context, input TransitionInput) (*models.Booking, error) {
	if !input.ToStatus.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown booking status").
			WithDetails(map[string]any{"status": input.ToStatus})
	}

	var result *models.Booking
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		booking, err := repo.FindByID(ctx, input.BookingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if input.TenantID != uuid.Nil && booking.TenantID != input.TenantID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}

		if err := s.applyTransition(ctx, tx, repo, booking, input.ToStatus, input.Notes, input.ActorID); err != nil {
			return err
		}

		result = booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyTransition mutates booking in place on success.
func (s *service) applyTransition(
	ctx context.Context,
	tx *gorm.DB,
	repo Repository,
	booking *models.Booking,
	to enums.BookingStatus,
	notes string,
	actorID string,
) error {
	from := booking.Status
	if !from.CanTransitionTo(to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking transition disallowed").
			WithDetails(map[string]any{"from": from, "to": to})
	}

	moved, err := repo.UpdateStatus(ctx, booking.ID, from, to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update booking status")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "booking changed concurrently").
			WithDetails(map[string]any{"booking_id": booking.ID.String()})
	}

	if booking.UnitID != nil {
		switch {
		case to == enums.BookingStatusActive:
			if err := s.unitLedger.Occupy(ctx, tx, *booking.UnitID); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				TenantID:      booking.TenantID,
				EventType:     enums.OutboxEventUnitOccupied,
				AggregateType: enums.OutboxAggregateUnit,
				AggregateID:   *booking.UnitID,
				Version:       1,
				Data: payloads.UnitOccupiedEvent{
					UnitID:    *booking.UnitID,
					SiteID:    booking.SiteID,
					BookingID: booking.ID,
				},
			}); err != nil {
				return err
			}
		case to.IsCancellation() || to == enums.BookingStatusCompleted:
			if err := s.unitLedger.Release(ctx, tx, *booking.UnitID); err != nil {
				return err
			}
			if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				TenantID:      booking.TenantID,
				EventType:     enums.OutboxEventUnitVacated,
				AggregateType: enums.OutboxAggregateUnit,
				AggregateID:   *booking.UnitID,
				Version:       1,
				Data: payloads.UnitVacatedEvent{
					UnitID:    *booking.UnitID,
					SiteID:    booking.SiteID,
					BookingID: booking.ID,
				},
			}); err != nil {
				return err
			}
		}
	}

	fromStr := from.String()
	history := &models.BookingStatusHistory{
		BookingID:  booking.ID,
		FromStatus: &fromStr,
		ToStatus:   to.String(),
		Notes:      notes,
		ActorID:    actorID,
	}
	if err := repo.AppendHistory(ctx, history); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append booking history")
	}

	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		TenantID:      booking.TenantID,
		EventType:     statusEventType(to),
		AggregateType: enums.OutboxAggregateBooking,
		AggregateID:   booking.ID,
		Version:       1,
		Data: payloads.BookingStatusChangedEvent{
			BookingID:     booking.ID,
			BookingNumber: booking.Number,
			FromStatus:    from,
			ToStatus:      to,
			ChangedAt:     time.Now(),
			Notes:         notes,
		},
	}); err != nil {
		return err
	}

	booking.Status = to
	return nil
}

func statusEventType(status enums.BookingStatus) enums.OutboxEventType {
	switch status {
	case enums.BookingStatusConfirmed:
		return enums.OutboxEventBookingConfirmed
	case enums.BookingStatusRejected:
		return enums.OutboxEventBookingRejected
	case enums.BookingStatusCancelled:
		return enums.OutboxEventBookingCancelled
	case enums.BookingStatusCompleted:
		return enums.OutboxEventBookingCompleted
	default:
		return enums.OutboxEventBookingConfirmed
	}
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "booking not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	return booking, nil
}

func (s *service) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]models.Booking, error) {
	bookings, err := s.repo.List(ctx, tenantID, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list bookings")
	}
	return bookings, nil
}

func validateCreate(input CreateInput) error {
	if input.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if input.SiteID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "site id is required")
	}
	if strings.TrimSpace(input.CustomerFirstName) == "" || strings.TrimSpace(input.CustomerLastName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if input.StartDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start date is required")
	}
	// Compared at date granularity, booking for today is allowed.
	if today := time.Now().UTC().Truncate(24 * time.Hour); input.StartDate.Before(today) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start date cannot be in the past")
	}
	if input.EndDate != nil && !input.EndDate.After(input.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date must be after start date")
	}
	if input.MonthlyPrice.LessThan(decimal.Zero) {
		return pkgerrors.New(pkgerrors.CodeValidation, "monthly price cannot be negative")
	}
	if !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown booking source").
			WithDetails(map[string]any{"source": input.Source})
	}
	return nil
}

func isPromoInvalid(err error) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodePromoInvalid
}
