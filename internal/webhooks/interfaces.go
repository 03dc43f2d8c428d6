package webhooks

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
)

// Repository defines persistence for inbound webhook events and the
// per-tenant provider configurations that route them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindConfigByToken(ctx context.Context, token string) (*models.ProviderConfig, error)
	CreateEvent(ctx context.Context, event *models.WebhookEvent) (*models.WebhookEvent, error)
	FindEvent(ctx context.Context, provider, externalID string) (*models.WebhookEvent, error)
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, reason string) error
	ListUnprocessed(ctx context.Context, limit int) ([]models.WebhookEvent, error)
}

// Handler processes one stored webhook event. A returned error leaves
// the event unprocessed so a later retry pass can pick it up.
type Handler func(ctx context.Context, event *models.WebhookEvent) error

// IngestInput is the raw material of one inbound delivery.
type IngestInput struct {
	Token     string
	Signature string
	Body      []byte
}

// Gate is the single entry point for inbound provider webhooks. It
// authenticates, deduplicates, stores, and dispatches each delivery.
type Gate interface {
	Register(provider string, handler Handler)
	Ingest(ctx context.Context, input IngestInput) error
	ProcessPending(ctx context.Context, limit int) (int, error)
}
