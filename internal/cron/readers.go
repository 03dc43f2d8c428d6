package cron

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/repo"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Readers bundles the read-only queries the cron jobs need.
type Readers struct {
	repo.Base
}

// NewReaders builds the cron read layer on the provided DB.
func NewReaders(db *gorm.DB) *Readers {
	return &Readers{Base: repo.NewBase(db)}
}

func (r *Readers) ListEnabledPartnerSettings(ctx context.Context) ([]models.PartnerSettings, error) {
	var rows []models.PartnerSettings
	err := r.DB(ctx).
		Where("is_enabled = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Readers) ListActiveSites(ctx context.Context, tenantID uuid.UUID) ([]models.Site, error) {
	var sites []models.Site
	err := r.DB(ctx).
		Where("tenant_id = ? AND is_active = ? AND deleted_at IS NULL", tenantID, true).
		Find(&sites).Error
	if err != nil {
		return nil, err
	}
	return sites, nil
}
