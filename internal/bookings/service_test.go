package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/promo"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/outbox"
)

type stubBookingsRepo struct {
	bookings map[uuid.UUID]*models.Booking
	history  []models.BookingStatusHistory
	settings *models.BookingSettings
	count    int64
}

func newStubBookingsRepo() *stubBookingsRepo {
	return &stubBookingsRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *stubBookingsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubBookingsRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.bookings[booking.ID] = booking
	s.count++
	return booking, nil
}

func (s *stubBookingsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	booking, ok := s.bookings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (s *stubBookingsRepo) FindByToken(ctx context.Context, token uuid.UUID) (*models.Booking, error) {
	for _, b := range s.bookings {
		if b.Token == token {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBookingsRepo) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Booking, error) {
	for _, b := range s.bookings {
		if b.TenantID == tenantID && b.Number == number {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBookingsRepo) List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s.bookings {
		if b.TenantID == tenantID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubBookingsRepo) CountByTenantAndPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int64, error) {
	return s.count, nil
}

func (s *stubBookingsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus) (bool, error) {
	booking, ok := s.bookings[id]
	if !ok || booking.Status != from {
		return false, nil
	}
	booking.Status = to
	return true, nil
}

func (s *stubBookingsRepo) AppendHistory(ctx context.Context, entry *models.BookingStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubBookingsRepo) FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error) {
	return nil, nil
}

func (s *stubBookingsRepo) FindSettings(ctx context.Context, tenantID uuid.UUID) (*models.BookingSettings, error) {
	return s.settings, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubUnitLedger struct {
	claimed  []uuid.UUID
	released []uuid.UUID
	occupied []uuid.UUID
	claimErr error
}

func (s *stubUnitLedger) TryClaim(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	if s.claimErr != nil {
		return s.claimErr
	}
	s.claimed = append(s.claimed, unitID)
	return nil
}

func (s *stubUnitLedger) Release(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	s.released = append(s.released, unitID)
	return nil
}

func (s *stubUnitLedger) Occupy(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error {
	s.occupied = append(s.occupied, unitID)
	return nil
}

type stubPromoService struct {
	promo     *models.PromoCode
	findErr   error
	redeemed  []uuid.UUID
	redeemErr error
}

func (s *stubPromoService) FindValid(ctx context.Context, input promo.ValidateInput) (*models.PromoCode, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.promo, nil
}

func (s *stubPromoService) Discount(p *models.PromoCode, price decimal.Decimal) decimal.Decimal {
	if p == nil {
		return decimal.Zero
	}
	return decimal.NewFromInt(10)
}

func (s *stubPromoService) Redeem(ctx context.Context, tx *gorm.DB, promoID uuid.UUID) error {
	if s.redeemErr != nil {
		return s.redeemErr
	}
	s.redeemed = append(s.redeemed, promoID)
	return nil
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func newTestService(t *testing.T, repo Repository, ledger *stubUnitLedger, promos *stubPromoService, ob *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{}, ledger, promos, ob, nil, "BK")
	require.NoError(t, err)
	return svc
}

func validCreateInput() CreateInput {
	return CreateInput{
		TenantID:          uuid.New(),
		SiteID:            uuid.New(),
		CustomerFirstName: "Lea",
		CustomerLastName:  "Martin",
		CustomerEmail:     "lea@example.com",
		StartDate:         time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 1, 0),
		MonthlyPrice:      decimal.NewFromInt(90),
		Source:            enums.BookingSourceWebsite,
	}
}

func TestCreateBookingPendingWithHistoryAndEvent(t *testing.T) {
	repo := newStubBookingsRepo()
	ledger := &stubUnitLedger{}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, ob)

	booking, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, enums.BookingStatusPending, booking.Status)
	assert.Contains(t, booking.Number, "BK")
	require.Len(t, repo.history, 1)
	assert.Equal(t, "pending", repo.history[0].ToStatus)
	assert.Nil(t, repo.history[0].FromStatus)
	require.Len(t, ob.events, 1)
	assert.Equal(t, enums.OutboxEventBookingCreated, ob.events[0].EventType)
	assert.Empty(t, ledger.claimed)
}

func TestCreateBookingClaimsUnit(t *testing.T) {
	repo := newStubBookingsRepo()
	ledger := &stubUnitLedger{}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, &stubOutbox{})

	unitID := uuid.New()
	input := validCreateInput()
	input.UnitID = &unitID

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{unitID}, ledger.claimed)
}

func TestCreateBookingFailsWhenUnitClaimLoses(t *testing.T) {
	repo := newStubBookingsRepo()
	ledger := &stubUnitLedger{
		claimErr: pkgerrors.New(pkgerrors.CodeUnitUnavailable, "unit is not available"),
	}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, &stubOutbox{})

	unitID := uuid.New()
	input := validCreateInput()
	input.UnitID = &unitID

	_, err := svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnitUnavailable, pkgerrors.As(err).Code())
	assert.Empty(t, repo.bookings)
}

func TestCreateBookingAppliesPromo(t *testing.T) {
	repo := newStubBookingsRepo()
	promoID := uuid.New()
	promos := &stubPromoService{
		promo: &models.PromoCode{ID: promoID, Code: "TEN"},
	}
	svc := newTestService(t, repo, &stubUnitLedger{}, promos, &stubOutbox{})

	input := validCreateInput()
	input.PromoCode = "TEN"

	booking, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, booking.DiscountAmount.Equal(decimal.NewFromInt(10)))
	require.NotNil(t, booking.PromoCode)
	assert.Equal(t, "TEN", *booking.PromoCode)
	assert.Equal(t, []uuid.UUID{promoID}, promos.redeemed)
}

func TestCreateBookingInvalidPromoBooksAtFullPrice(t *testing.T) {
	repo := newStubBookingsRepo()
	promos := &stubPromoService{
		findErr: pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code expired"),
	}
	svc := newTestService(t, repo, &stubUnitLedger{}, promos, &stubOutbox{})

	input := validCreateInput()
	input.PromoCode = "DEAD"

	booking, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, booking.DiscountAmount.IsZero())
	assert.Nil(t, booking.PromoCode)
}

func TestCreateBookingExhaustedPromoBooksAtFullPrice(t *testing.T) {
	// The code resolves but a concurrent redemption takes the last use
	// before ours lands.
	repo := newStubBookingsRepo()
	promos := &stubPromoService{
		promo:     &models.PromoCode{ID: uuid.New(), Code: "LAST"},
		redeemErr: pkgerrors.New(pkgerrors.CodePromoInvalid, "promo code can no longer be redeemed"),
	}
	svc := newTestService(t, repo, &stubUnitLedger{}, promos, &stubOutbox{})

	input := validCreateInput()
	input.PromoCode = "LAST"

	booking, err := svc.Create(context.Background(), input)
	require.NoError(t, err)
	assert.True(t, booking.DiscountAmount.IsZero())
	assert.Nil(t, booking.PromoCode)
	assert.Empty(t, promos.redeemed)
}

func TestCreateBookingAutoConfirmAndDeposit(t *testing.T) {
	repo := newStubBookingsRepo()
	repo.settings = &models.BookingSettings{
		AutoConfirm:    true,
		RequireDeposit: true,
		DepositMonths:  2,
	}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, &stubUnitLedger{}, &stubPromoService{}, ob)

	booking, err := svc.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, enums.BookingStatusConfirmed, booking.Status)
	assert.True(t, booking.DepositAmount.Equal(decimal.NewFromInt(180)))
	// pending then confirmed
	require.Len(t, repo.history, 2)
	assert.Equal(t, "confirmed", repo.history[1].ToStatus)
	require.Len(t, ob.events, 2)
	assert.Equal(t, enums.OutboxEventBookingConfirmed, ob.events[1].EventType)
}

func TestCreateBookingValidation(t *testing.T) {
	svc := newTestService(t, newStubBookingsRepo(), &stubUnitLedger{}, &stubPromoService{}, &stubOutbox{})

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"missing tenant", func(i *CreateInput) { i.TenantID = uuid.Nil }},
		{"missing site", func(i *CreateInput) { i.SiteID = uuid.Nil }},
		{"missing name", func(i *CreateInput) { i.CustomerFirstName = " " }},
		{"missing email", func(i *CreateInput) { i.CustomerEmail = "" }},
		{"zero start date", func(i *CreateInput) { i.StartDate = time.Time{} }},
		{"past start date", func(i *CreateInput) {
			i.StartDate = time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -7)
			i.EndDate = nil
		}},
		{"negative price", func(i *CreateInput) { i.MonthlyPrice = decimal.NewFromInt(-1) }},
		{"bad source", func(i *CreateInput) { i.Source = enums.BookingSource("fax") }},
		{"end before start", func(i *CreateInput) {
			end := i.StartDate.AddDate(0, 0, -1)
			i.EndDate = &end
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.Create(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func seedBooking(repo *stubBookingsRepo, status enums.BookingStatus, unitID *uuid.UUID) *models.Booking {
	booking := &models.Booking{
		ID:       uuid.New(),
		Token:    uuid.New(),
		Number:   "BK202600001",
		TenantID: uuid.New(),
		SiteID:   uuid.New(),
		UnitID:   unitID,
		Status:   status,
	}
	repo.bookings[booking.ID] = booking
	return booking
}

func TestTransitionConfirmToActiveOccupiesUnit(t *testing.T) {
	repo := newStubBookingsRepo()
	unitID := uuid.New()
	booking := seedBooking(repo, enums.BookingStatusConfirmed, &unitID)
	ledger := &stubUnitLedger{}
	ob := &stubOutbox{}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, ob)

	updated, err := svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		TenantID:  booking.TenantID,
		ToStatus:  enums.BookingStatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.BookingStatusActive, updated.Status)
	assert.Equal(t, []uuid.UUID{unitID}, ledger.occupied)

	// unit.occupied plus status change event
	require.Len(t, ob.events, 2)
	assert.Equal(t, enums.OutboxEventUnitOccupied, ob.events[0].EventType)
}

func TestTransitionCancelReleasesUnit(t *testing.T) {
	repo := newStubBookingsRepo()
	unitID := uuid.New()
	booking := seedBooking(repo, enums.BookingStatusPending, &unitID)
	ledger := &stubUnitLedger{}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, &stubOutbox{})

	_, err := svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		TenantID:  booking.TenantID,
		ToStatus:  enums.BookingStatusCancelled,
		Notes:     "customer changed plans",
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{unitID}, ledger.released)
	require.Len(t, repo.history, 1)
	assert.Equal(t, "customer changed plans", repo.history[0].Notes)
}

func TestTransitionCompleteReleasesUnit(t *testing.T) {
	repo := newStubBookingsRepo()
	unitID := uuid.New()
	booking := seedBooking(repo, enums.BookingStatusActive, &unitID)
	ledger := &stubUnitLedger{}
	svc := newTestService(t, repo, ledger, &stubPromoService{}, &stubOutbox{})

	_, err := svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		TenantID:  booking.TenantID,
		ToStatus:  enums.BookingStatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{unitID}, ledger.released)
}

func TestTransitionRejectsIllegalMove(t *testing.T) {
	repo := newStubBookingsRepo()
	booking := seedBooking(repo, enums.BookingStatusCompleted, nil)
	svc := newTestService(t, repo, &stubUnitLedger{}, &stubPromoService{}, &stubOutbox{})

	_, err := svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		TenantID:  booking.TenantID,
		ToStatus:  enums.BookingStatusActive,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestTransitionScopesToTenant(t *testing.T) {
	repo := newStubBookingsRepo()
	booking := seedBooking(repo, enums.BookingStatusPending, nil)
	svc := newTestService(t, repo, &stubUnitLedger{}, &stubPromoService{}, &stubOutbox{})

	_, err := svc.Transition(context.Background(), TransitionInput{
		BookingID: booking.ID,
		TenantID:  uuid.New(),
		ToStatus:  enums.BookingStatusConfirmed,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
