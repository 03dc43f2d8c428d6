package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a partner repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindSettingsByMerchant(ctx context.Context, merchantID string) (*models.PartnerSettings, error) {
	var settings models.PartnerSettings
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) FindSettingsByTenant(ctx context.Context, tenantID uuid.UUID) (*models.PartnerSettings, error) {
	var settings models.PartnerSettings
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) FindByToken(ctx context.Context, token string) (*models.ExternalBooking, error) {
	var booking models.ExternalBooking
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ExternalBooking, error) {
	var booking models.ExternalBooking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *repository) Create(ctx context.Context, booking *models.ExternalBooking) (*models.ExternalBooking, error) {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return nil, err
	}
	return booking, nil
}

func (r *repository) ListByMerchantAndRange(ctx context.Context, merchantID string, from, to time.Time) ([]models.ExternalBooking, error) {
	var bookings []models.ExternalBooking
	err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND start_time >= ? AND start_time < ?", merchantID, from, to).
		Order("start_time ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) TouchSync(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.ExternalBooking{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_synced_at": time.Now(),
		}).Error
}

func (r *repository) FindSlot(ctx context.Context, tenantID uuid.UUID, start time.Time) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND start_time = ?", tenantID, start).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *repository) ListSlots(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	var slots []models.Slot
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND start_time >= ? AND start_time < ?", tenantID, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
