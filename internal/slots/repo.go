package slots

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a slots repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *repository) FindBySiteAndStart(ctx context.Context, siteID uuid.UUID, start time.Time) (*models.Slot, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND start_time = ?", siteID, start).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *repository) ListBySiteAndRange(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error) {
	var slots []models.Slot
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND start_time >= ? AND start_time < ?", siteID, from, to).
		Order("start_time ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *repository) Create(ctx context.Context, slot *models.Slot) (*models.Slot, error) {
	if err := r.db.WithContext(ctx).Create(slot).Error; err != nil {
		return nil, err
	}
	return slot, nil
}

func (r *repository) LastSlotDate(ctx context.Context, siteID uuid.UUID) (*time.Time, error) {
	var slot models.Slot
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("date DESC").
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot.Date, nil
}
