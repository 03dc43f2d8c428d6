package bookings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByToken(ctx context.Context, token uuid.UUID) (*models.Booking, error)
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*models.Booking, error)
	List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]models.Booking, error)
	CountByTenantAndPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.BookingStatus) (bool, error)
	AppendHistory(ctx context.Context, entry *models.BookingStatusHistory) error
	FindPendingBefore(ctx context.Context, cutoff time.Time) ([]models.Booking, error)
	FindSettings(ctx context.Context, tenantID uuid.UUID) (*models.BookingSettings, error)
}

// Service orchestrates booking creation and lifecycle transitions.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Booking, error)
	Transition(ctx context.Context, input TransitionInput) (*models.Booking, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	List(ctx context.Context, tenantID uuid.UUID, filters ListFilters) ([]models.Booking, error)
}

// ListFilters narrows booking listings.
type ListFilters struct {
	SiteID   *uuid.UUID
	Status   *enums.BookingStatus
	Source   *enums.BookingSource
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
