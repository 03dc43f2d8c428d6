package slots

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Repository defines persistence operations for visit slots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Slot, error)
	FindBySiteAndStart(ctx context.Context, siteID uuid.UUID, start time.Time) (*models.Slot, error)
	ListBySiteAndRange(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error)
	Create(ctx context.Context, slot *models.Slot) (*models.Slot, error)
	LastSlotDate(ctx context.Context, siteID uuid.UUID) (*time.Time, error)
}

// Service owns slot capacity accounting and horizon generation.
type Service interface {
	Availability(ctx context.Context, siteID uuid.UUID, from, to time.Time) ([]models.Slot, error)
	Reserve(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, slotID uuid.UUID) error
	Generate(ctx context.Context, input GenerateInput) (int, error)
}

// GenerateInput describes a slot generation run for one site.
type GenerateInput struct {
	TenantID uuid.UUID
	SiteID   uuid.UUID
	Settings *models.PartnerSettings
	From     time.Time
	Days     int
}
