package promo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
)

func setupPromoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:promo_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS promo_codes (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  site_id TEXT,
  code TEXT NOT NULL,
  description TEXT,
  discount_type TEXT NOT NULL,
  discount_value NUMERIC NOT NULL,
  min_rental_amount NUMERIC,
  max_uses INTEGER,
  uses_count INTEGER NOT NULL DEFAULT 0,
  valid_from DATETIME,
  valid_until DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

type promoSeed struct {
	tenantID  uuid.UUID
	siteID    *uuid.UUID
	code      string
	dtype     enums.DiscountType
	value     string
	minRental *string
	maxUses   *int
	usesCount int
	validFrom *time.Time
	validTo   *time.Time
	active    bool
}

func seedPromo(t *testing.T, db *gorm.DB, seed promoSeed) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := db.Exec(`
		INSERT INTO promo_codes
			(id, tenant_id, site_id, code, discount_type, discount_value, min_rental_amount,
			 max_uses, uses_count, valid_from, valid_until, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, seed.tenantID, seed.siteID, seed.code, seed.dtype, seed.value, seed.minRental,
		seed.maxUses, seed.usesCount, seed.validFrom, seed.validTo, seed.active).Error
	require.NoError(t, err)
	return id
}

func newPromoService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestFindValidAcceptsTenantWideActiveCode(t *testing.T) {
	db := setupPromoTestDB(t)
	tenantID := uuid.New()
	seedPromo(t, db, promoSeed{
		tenantID: tenantID,
		code:     "WELCOME10",
		dtype:    enums.DiscountTypePercentage,
		value:    "10",
		active:   true,
	})

	svc := newPromoService(t, db)
	promo, err := svc.FindValid(context.Background(), ValidateInput{
		TenantID:     tenantID,
		SiteID:       uuid.New(),
		Code:         "welcome10",
		RentalAmount: decimal.NewFromInt(100),
		Now:          time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", promo.Code)
}

func TestFindValidRejectsWrongSite(t *testing.T) {
	db := setupPromoTestDB(t)
	tenantID := uuid.New()
	siteID := uuid.New()
	seedPromo(t, db, promoSeed{
		tenantID: tenantID,
		siteID:   &siteID,
		code:     "SITEONLY",
		dtype:    enums.DiscountTypeFixed,
		value:    "5",
		active:   true,
	})

	svc := newPromoService(t, db)
	_, err := svc.FindValid(context.Background(), ValidateInput{
		TenantID:     tenantID,
		SiteID:       uuid.New(),
		Code:         "SITEONLY",
		RentalAmount: decimal.NewFromInt(100),
		Now:          time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePromoInvalid, pkgerrors.As(err).Code())
}

func TestFindValidRejectsOutsideWindowAndExhausted(t *testing.T) {
	db := setupPromoTestDB(t)
	tenantID := uuid.New()
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)
	maxUses := 5

	cases := []struct {
		name string
		seed promoSeed
	}{
		{"inactive", promoSeed{tenantID: tenantID, code: "P1", dtype: enums.DiscountTypeFixed, value: "5", active: false}},
		{"not_yet_active", promoSeed{tenantID: tenantID, code: "P2", dtype: enums.DiscountTypeFixed, value: "5", active: true, validFrom: &future}},
		{"expired", promoSeed{tenantID: tenantID, code: "P3", dtype: enums.DiscountTypeFixed, value: "5", active: true, validTo: &past}},
		{"exhausted", promoSeed{tenantID: tenantID, code: "P4", dtype: enums.DiscountTypeFixed, value: "5", active: true, maxUses: &maxUses, usesCount: 5}},
	}

	svc := newPromoService(t, db)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seedPromo(t, db, tc.seed)
			_, err := svc.FindValid(context.Background(), ValidateInput{
				TenantID:     tenantID,
				SiteID:       uuid.New(),
				Code:         tc.seed.code,
				RentalAmount: decimal.NewFromInt(100),
				Now:          now,
			})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodePromoInvalid, pkgerrors.As(err).Code())
		})
	}
}

func TestFindValidEnforcesMinRentalAmount(t *testing.T) {
	db := setupPromoTestDB(t)
	tenantID := uuid.New()
	minRental := "50"
	seedPromo(t, db, promoSeed{
		tenantID:  tenantID,
		code:      "BIG10",
		dtype:     enums.DiscountTypePercentage,
		value:     "10",
		minRental: &minRental,
		active:    true,
	})

	svc := newPromoService(t, db)
	_, err := svc.FindValid(context.Background(), ValidateInput{
		TenantID:     tenantID,
		SiteID:       uuid.New(),
		Code:         "BIG10",
		RentalAmount: decimal.NewFromInt(30),
		Now:          time.Now(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePromoInvalid, pkgerrors.As(err).Code())
}

func TestDiscountPercentageAndFixed(t *testing.T) {
	svc := newPromoService(t, setupPromoTestDB(t))
	price := decimal.NewFromInt(80)

	percent := &models.PromoCode{
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(25),
	}
	assert.True(t, svc.Discount(percent, price).Equal(decimal.NewFromInt(20)))

	fixed := &models.PromoCode{
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(15),
	}
	assert.True(t, svc.Discount(fixed, price).Equal(decimal.NewFromInt(15)))

	// fixed discount larger than the price is clamped
	bigFixed := &models.PromoCode{
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(500),
	}
	assert.True(t, svc.Discount(bigFixed, price).Equal(price))
}

func TestRedeemIncrementsUntilCapThenFails(t *testing.T) {
	db := setupPromoTestDB(t)
	tenantID := uuid.New()
	maxUses := 2
	id := seedPromo(t, db, promoSeed{
		tenantID: tenantID,
		code:     "CAP2",
		dtype:    enums.DiscountTypeFixed,
		value:    "5",
		maxUses:  &maxUses,
		active:   true,
	})

	svc := newPromoService(t, db)
	require.NoError(t, svc.Redeem(context.Background(), db, id))
	require.NoError(t, svc.Redeem(context.Background(), db, id))

	err := svc.Redeem(context.Background(), db, id)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodePromoInvalid, pkgerrors.As(err).Code())

	var uses int
	require.NoError(t, db.Raw(`SELECT uses_count FROM promo_codes WHERE id = ?`, id).Scan(&uses).Error)
	assert.Equal(t, 2, uses)
}

func TestRedeemConcurrentNeverExceedsLimit(t *testing.T) {
	db := setupPromoTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	maxUses := 3
	id := seedPromo(t, db, promoSeed{
		tenantID: uuid.New(),
		code:     "RACE3",
		dtype:    enums.DiscountTypeFixed,
		value:    "5",
		maxUses:  &maxUses,
		active:   true,
	})

	svc := newPromoService(t, db)

	const redeemers = 12
	errs := make(chan error, redeemers)
	var wg sync.WaitGroup
	wg.Add(redeemers)
	for i := 0; i < redeemers; i++ {
		go func() {
			defer wg.Done()
			errs <- svc.Redeem(context.Background(), db, id)
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, pkgerrors.CodePromoInvalid, pkgerrors.As(err).Code())
	}
	assert.Equal(t, maxUses, wins)

	var uses int
	require.NoError(t, db.Raw(`SELECT uses_count FROM promo_codes WHERE id = ?`, id).Scan(&uses).Error)
	assert.Equal(t, maxUses, uses)
}

func TestRedeemUnlimitedUses(t *testing.T) {
	db := setupPromoTestDB(t)
	id := seedPromo(t, db, promoSeed{
		tenantID: uuid.New(),
		code:     "NOCAP",
		dtype:    enums.DiscountTypeFixed,
		value:    "5",
		active:   true,
	})

	svc := newPromoService(t, db)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Redeem(context.Background(), db, id))
	}
}
