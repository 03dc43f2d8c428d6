package units

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Repository defines persistence operations for storage units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	FindBySiteAndNumber(ctx context.Context, siteID uuid.UUID, number string) (*models.Unit, error)
	ListAvailableBySite(ctx context.Context, siteID uuid.UUID) ([]models.Unit, error)
	Create(ctx context.Context, unit *models.Unit) (*models.Unit, error)
}

// Ledger moves units through their lifecycle with conditional updates,
// so two concurrent claims on the same unit can never both succeed.
type Ledger interface {
	TryClaim(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error
	Occupy(ctx context.Context, tx *gorm.DB, unitID uuid.UUID) error
}
