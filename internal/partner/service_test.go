package partner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/bookings"
	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
)

type stubPartnerRepo struct {
	settings *models.PartnerSettings
	byToken  map[string]*models.ExternalBooking
	byID     map[uuid.UUID]*models.ExternalBooking
	slots    map[uuid.UUID]*models.Slot
	synced   []uuid.UUID
}

func newStubPartnerRepo() *stubPartnerRepo {
	return &stubPartnerRepo{
		byToken: make(map[string]*models.ExternalBooking),
		byID:    make(map[uuid.UUID]*models.ExternalBooking),
		slots:   make(map[uuid.UUID]*models.Slot),
	}
}

func (s *stubPartnerRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubPartnerRepo) FindSettingsByMerchant(ctx context.Context, merchantID string) (*models.PartnerSettings, error) {
	if s.settings == nil || s.settings.MerchantID != merchantID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.settings, nil
}

func (s *stubPartnerRepo) FindSettingsByTenant(ctx context.Context, tenantID uuid.UUID) (*models.PartnerSettings, error) {
	if s.settings == nil || s.settings.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.settings, nil
}

func (s *stubPartnerRepo) FindByToken(ctx context.Context, token string) (*models.ExternalBooking, error) {
	booking, ok := s.byToken[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (s *stubPartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ExternalBooking, error) {
	booking, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return booking, nil
}

func (s *stubPartnerRepo) Create(ctx context.Context, booking *models.ExternalBooking) (*models.ExternalBooking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.byToken[booking.Token] = booking
	s.byID[booking.ID] = booking
	return booking, nil
}

func (s *stubPartnerRepo) ListByMerchantAndRange(ctx context.Context, merchantID string, from, to time.Time) ([]models.ExternalBooking, error) {
	var out []models.ExternalBooking
	for _, b := range s.byID {
		if b.MerchantID == merchantID && !b.StartTime.Before(from) && b.StartTime.Before(to) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *stubPartnerRepo) TouchSync(ctx context.Context, id uuid.UUID) error {
	s.synced = append(s.synced, id)
	return nil
}

func (s *stubPartnerRepo) FindSlot(ctx context.Context, tenantID uuid.UUID, start time.Time) (*models.Slot, error) {
	for _, slot := range s.slots {
		if slot.TenantID == tenantID && slot.StartTime.Equal(start) {
			return slot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPartnerRepo) ListSlots(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	var out []models.Slot
	for _, slot := range s.slots {
		if slot.TenantID == tenantID && !slot.StartTime.Before(from) && slot.StartTime.Before(to) {
			out = append(out, *slot)
		}
	}
	return out, nil
}

type stubSlotService struct {
	repo       *stubPartnerRepo
	reserved   []uuid.UUID
	released   []uuid.UUID
	reserveErr error
}

func (s *stubSlotService) Availability(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	return nil, nil
}

func (s *stubSlotService) Reserve(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	if s.reserveErr != nil {
		return s.reserveErr
	}
	if slot, ok := s.repo.slots[slotID]; ok {
		if slot.CurrentBookings >= slot.MaxBookings {
			return pkgerrors.New(pkgerrors.CodeSlotUnavailable, "slot has no remaining capacity")
		}
		slot.CurrentBookings++
	}
	s.reserved = append(s.reserved, slotID)
	return nil
}

func (s *stubSlotService) Release(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error {
	if slot, ok := s.repo.slots[slotID]; ok && slot.CurrentBookings > 0 {
		slot.CurrentBookings--
	}
	s.released = append(s.released, slotID)
	return nil
}

func (s *stubSlotService) Generate(ctx context.Context, input slots.GenerateInput) (int, error) {
	return 0, nil
}

type stubBookingsRepo struct {
	bookings map[uuid.UUID]*models.Booking
	history  []models.BookingStatusHistory
}

func newStubBookingsRepo() *stubBookingsRepo {
	return &stubBookingsRepo{bookings: make(map[uuid.UUID]*models.Booking)}
}

func (s *stubBookingsRepo) WithTx(tx *gorm.DB) bookings.Repository { return s }

func (s *stubBookingsRepo) Create(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	s.bookings[booking.ID] = booking
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
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBookingsRepo) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Booking, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubBookingsRepo) List(ctx context.Context, tenantID uuid.UUID, filters bookings.ListFilters) ([]models.Booking, error) {
	return nil, nil
}

func (s *stubBookingsRepo) CountByTenantAndPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int64, error) {
	return int64(len(s.bookings)), nil
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
	return nil, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type partnerFixture struct {
	repo     *stubPartnerRepo
	bookings *stubBookingsRepo
	slots    *stubSlotService
	svc      Service
	tenantID uuid.UUID
	slotID   uuid.UUID
	start    time.Time
}

func newPartnerFixture(t *testing.T) *partnerFixture {
	t.Helper()

	repo := newStubPartnerRepo()
	bookingsRepo := newStubBookingsRepo()
	slotSvc := &stubSlotService{repo: repo}

	tenantID := uuid.New()
	repo.settings = &models.PartnerSettings{
		TenantID:        tenantID,
		MerchantID:      "merchant-1",
		IsEnabled:       true,
		MinAdvanceHours: 1,
	}

	start := time.Now().Add(48 * time.Hour).Truncate(time.Hour)
	slotID := uuid.New()
	repo.slots[slotID] = &models.Slot{
		ID:          slotID,
		TenantID:    tenantID,
		SiteID:      uuid.New(),
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		MaxBookings: 1,
		IsAvailable: true,
	}

	svc, err := NewService(repo, bookingsRepo, slotSvc, stubTxRunner{}, nil)
	require.NoError(t, err)

	return &partnerFixture{
		repo:     repo,
		bookings: bookingsRepo,
		slots:    slotSvc,
		svc:      svc,
		tenantID: tenantID,
		slotID:   slotID,
		start:    start,
	}
}

func createRequest(f *partnerFixture, token string) CreateInput {
	return CreateInput{
		MerchantID:       "merchant-1",
		IdempotencyToken: token,
		Slot: SlotRef{
			MerchantID: "merchant-1",
			StartTime:  f.start,
		},
		User: UserInformation{
			UserID:     "user-7",
			GivenName:  "Nora",
			FamilyName: "Blanc",
			Email:      "nora@example.com",
		},
	}
}

func TestCreateBookingReservesSlotAndCreatesBooking(t *testing.T) {
	f := newPartnerFixture(t)

	booking, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)

	assert.Equal(t, PartnerStatusPending, booking.Status)
	assert.Equal(t, "Nora", booking.UserInformation.GivenName)
	assert.Equal(t, []uuid.UUID{f.slotID}, f.slots.reserved)
	assert.Len(t, f.bookings.bookings, 1)
	for _, b := range f.bookings.bookings {
		assert.Equal(t, enums.BookingSourcePartner, b.Source)
	}
}

func TestCreateBookingIdempotentOnToken(t *testing.T) {
	f := newPartnerFixture(t)

	first, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)

	second, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)

	assert.Equal(t, first.BookingID, second.BookingID)
	// slot reserved exactly once
	assert.Len(t, f.slots.reserved, 1)
	assert.Len(t, f.bookings.bookings, 1)
}

func TestCreateBookingFailsWhenSlotFull(t *testing.T) {
	f := newPartnerFixture(t)
	f.repo.slots[f.slotID].CurrentBookings = 1

	_, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeSlotUnavailable, pkgerrors.As(err).Code())

	failure := FailureFor(err)
	assert.Equal(t, CauseSlotUnavailable, failure.Cause)
}

func TestCreateBookingRequiresToken(t *testing.T) {
	f := newPartnerFixture(t)

	input := createRequest(f, "")
	_, err := f.svc.CreateBooking(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateBookingRespectsMinAdvanceWindow(t *testing.T) {
	f := newPartnerFixture(t)

	input := createRequest(f, "tok-1")
	input.Slot.StartTime = time.Now().Add(10 * time.Minute)
	_, err := f.svc.CreateBooking(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeSlotUnavailable, pkgerrors.As(err).Code())
}

func TestCreateBookingAutoConfirm(t *testing.T) {
	f := newPartnerFixture(t)
	f.repo.settings.AutoConfirm = true

	booking, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)
	assert.Equal(t, PartnerStatusConfirmed, booking.Status)
}

func TestUpdateBookingCancelReleasesSlotOnce(t *testing.T) {
	f := newPartnerFixture(t)

	created, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)
	externalID := uuid.MustParse(created.BookingID)

	updated, err := f.svc.UpdateBooking(context.Background(), UpdateInput{
		MerchantID:    "merchant-1",
		BookingID:     externalID,
		PartnerStatus: PartnerStatusCanceled,
	})
	require.NoError(t, err)
	assert.Equal(t, PartnerStatusCanceled, updated.Status)
	assert.Len(t, f.slots.released, 1)

	// duplicate cancellation is a no-op
	again, err := f.svc.UpdateBooking(context.Background(), UpdateInput{
		MerchantID:    "merchant-1",
		BookingID:     externalID,
		PartnerStatus: PartnerStatusCanceled,
	})
	require.NoError(t, err)
	assert.Equal(t, PartnerStatusCanceled, again.Status)
	assert.Len(t, f.slots.released, 1)
}

func TestUpdateBookingUnknownStatusIsNoOp(t *testing.T) {
	f := newPartnerFixture(t)

	created, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.NoError(t, err)
	externalID := uuid.MustParse(created.BookingID)

	updated, err := f.svc.UpdateBooking(context.Background(), UpdateInput{
		MerchantID:    "merchant-1",
		BookingID:     externalID,
		PartnerStatus: "TELEPORTED",
	})
	require.NoError(t, err)
	assert.Equal(t, PartnerStatusPending, updated.Status)
	assert.Empty(t, f.slots.released)
}

func TestUpdateBookingNotFound(t *testing.T) {
	f := newPartnerFixture(t)

	_, err := f.svc.UpdateBooking(context.Background(), UpdateInput{
		MerchantID:    "merchant-1",
		BookingID:     uuid.New(),
		PartnerStatus: PartnerStatusCanceled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	assert.Equal(t, CauseBookingNotFound, FailureFor(err).Cause)
}

func TestCheckAvailabilityCountsRemaining(t *testing.T) {
	f := newPartnerFixture(t)

	resp, err := f.svc.CheckAvailability(context.Background(), CheckAvailabilityRequest{
		Slot: SlotRef{MerchantID: "merchant-1", StartTime: f.start},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CountAvailable)

	f.repo.slots[f.slotID].CurrentBookings = 1
	resp, err = f.svc.CheckAvailability(context.Background(), CheckAvailabilityRequest{
		Slot: SlotRef{MerchantID: "merchant-1", StartTime: f.start},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.CountAvailable)
}

func TestCheckAvailabilityUnknownSlotIsZero(t *testing.T) {
	f := newPartnerFixture(t)

	resp, err := f.svc.CheckAvailability(context.Background(), CheckAvailabilityRequest{
		Slot: SlotRef{MerchantID: "merchant-1", StartTime: f.start.Add(6 * time.Hour)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.CountAvailable)
}

func TestBatchAvailabilityLookup(t *testing.T) {
	f := newPartnerFixture(t)

	resp, err := f.svc.BatchAvailabilityLookup(context.Background(), BatchAvailabilityLookupRequest{
		MerchantID: "merchant-1",
		StartTime:  f.start.Add(-time.Hour),
		EndTime:    f.start.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, resp.SlotAvailability, 1)
	assert.Equal(t, 1, resp.SlotAvailability[0].CountAvailable)
}

func TestDisabledMerchantIsRejected(t *testing.T) {
	f := newPartnerFixture(t)
	f.repo.settings.IsEnabled = false

	_, err := f.svc.CreateBooking(context.Background(), createRequest(f, "tok-1"))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
