package webhooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/internal/repo"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// EndpointRepository reads the outbound delivery targets a tenant has
// registered.
type EndpointRepository struct {
	repo.Base
}

func NewEndpointRepository(db *gorm.DB) *EndpointRepository {
	return &EndpointRepository{Base: repo.NewBase(db)}
}

func (r *EndpointRepository) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.WebhookEndpoint, error) {
	var rows []models.WebhookEndpoint
	err := r.DB(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Find(&rows).Error
	return rows, err
}
