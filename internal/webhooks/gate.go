package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/jvidal-dev/stokage-backend/pkg/config"
	dbpkg "github.com/jvidal-dev/stokage-backend/pkg/db"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	pkgerrors "github.com/jvidal-dev/stokage-backend/pkg/errors"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
	"github.com/jvidal-dev/stokage-backend/pkg/metrics"
)

// dedupStore is the redis surface used for the fast-path duplicate
// check ahead of the durable unique index.
type dedupStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DedupKey(provider, eventID string) string
}

// eventEnvelope is the minimal shape every provider delivery must
// carry: a stable event id and a type.
type eventEnvelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gate struct {
	repo    Repository
	dedup   dedupStore
	cfg     config.WebhooksConfig
	isProd  bool
	logg    *logger.Logger
	metrics *metrics.WebhookMetrics

	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewGate builds the webhook ingestion gate. The dedup store and
// metrics are optional; without them ingestion relies on the database
// unique index alone.
func NewGate(
	repo Repository,
	dedup dedupStore,
	cfg config.WebhooksConfig,
	isProd bool,
	logg *logger.Logger,
	m *metrics.WebhookMetrics,
) (Gate, error) {
	if repo == nil {
		return nil, fmt.Errorf("webhook repository required")
	}
	return &gate{
		repo:     repo,
		dedup:    dedup,
		cfg:      cfg,
		isProd:   isProd,
		logg:     logg,
		metrics:  m,
		handlers: make(map[string]Handler),
	}, nil
}

func (g *gate) Register(provider string, handler Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[provider] = handler
}

func (g *gate) handlerFor(provider string) (Handler, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	h, ok := g.handlers[provider]
	return h, ok
}

// Ingest authenticates one delivery, stores it exactly once, and hands
// it to the provider's handler. Redeliveries of an already-seen event
// id return without error and without side effects.
func (g *gate) Ingest(ctx context.Context, input IngestInput) error {
	providerCfg, err := g.repo.FindConfigByToken(ctx, input.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			g.metrics.IncRejected("unknown", "token")
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown webhook token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup provider config")
	}

	if g.logg != nil {
		ctx = g.logg.WithProvider(ctx, providerCfg.Provider)
		ctx = g.logg.WithTenantID(ctx, providerCfg.TenantID.String())
	}

	if err := g.verify(ctx, providerCfg, input); err != nil {
		g.metrics.IncRejected(providerCfg.Provider, "signature")
		return err
	}

	var envelope eventEnvelope
	if err := json.Unmarshal(input.Body, &envelope); err != nil || envelope.ID == "" || envelope.Type == "" {
		g.metrics.IncRejected(providerCfg.Provider, "payload")
		return pkgerrors.New(pkgerrors.CodeValidation, "webhook payload must carry an event id and type")
	}

	var dedupKey string
	if g.dedup != nil {
		// Read-only fast path. Any cache error falls through to the
		// unique index.
		dedupKey = g.dedup.DedupKey(providerCfg.Provider, envelope.ID)
		if _, err := g.dedup.Get(ctx, dedupKey); err == nil {
			g.metrics.IncDuplicate(providerCfg.Provider)
			return nil
		}
	}

	event := &models.WebhookEvent{
		TenantID:   providerCfg.TenantID,
		Provider:   providerCfg.Provider,
		ExternalID: envelope.ID,
		EventType:  envelope.Type,
		Payload:    input.Body,
	}
	if _, err := g.repo.CreateEvent(ctx, event); err != nil {
		if dbpkg.IsUniqueViolation(err, "ux_webhook_events_provider_external") {
			g.metrics.IncDuplicate(providerCfg.Provider)
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store webhook event")
	}
	g.metrics.IncReceived(providerCfg.Provider)

	if g.dedup != nil {
		// Marked only once the row is durable. A failed insert leaves
		// the cache clean so the provider's retry lands in storage.
		if _, err := g.dedup.SetNX(ctx, dedupKey, 1, g.cfg.DedupTTL); err != nil && g.logg != nil {
			g.logg.Warn(ctx, "webhook dedup cache unavailable")
		}
	}

	g.process(ctx, event)
	return nil
}

// verify enforces the provider's HMAC signature. Unsigned deliveries
// pass only outside production and only when explicitly allowed.
func (g *gate) verify(ctx context.Context, providerCfg *models.ProviderConfig, input IngestInput) error {
	unsigned := input.Signature == "" || providerCfg.Secret == ""
	if unsigned {
		if g.cfg.AllowUnsigned && !g.isProd {
			if g.logg != nil {
				g.logg.Warn(ctx, "accepting unsigned webhook delivery")
			}
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeSignature, "webhook delivery is not signed")
	}
	return NewHMACVerifier(providerCfg.Secret, EncodingHex).Verify(input.Body, input.Signature)
}

// process dispatches a stored event. Handler failures never bubble to
// the provider: the row stays unprocessed for the retry pass.
func (g *gate) process(ctx context.Context, event *models.WebhookEvent) {
	handler, ok := g.handlerFor(event.Provider)
	if !ok {
		if g.logg != nil {
			g.logg.Warn(ctx, "no handler registered for provider")
		}
		if err := g.repo.MarkProcessed(ctx, event.ID.String(), time.Now().UTC()); err != nil && g.logg != nil {
			g.logg.Error(ctx, "mark webhook event processed failed", err)
		}
		return
	}

	if err := handler(ctx, event); err != nil {
		g.metrics.IncFailed(event.Provider)
		if g.logg != nil {
			logCtx := g.logg.WithFields(ctx, map[string]any{
				"event_id":   event.ExternalID,
				"event_type": event.EventType,
			})
			g.logg.Error(logCtx, "webhook handler failed", err)
		}
		if markErr := g.repo.MarkFailed(ctx, event.ID.String(), err.Error()); markErr != nil && g.logg != nil {
			g.logg.Error(ctx, "mark webhook event failed errored", markErr)
		}
		return
	}

	if err := g.repo.MarkProcessed(ctx, event.ID.String(), time.Now().UTC()); err != nil && g.logg != nil {
		g.logg.Error(ctx, "mark webhook event processed failed", err)
	}
}

// ProcessPending re-runs handlers for stored events whose processing
// previously failed. It returns how many events were processed and the
// combined handler errors.
func (g *gate) ProcessPending(ctx context.Context, limit int) (int, error) {
	events, err := g.repo.ListUnprocessed(ctx, limit)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unprocessed webhook events")
	}

	var processed int
	var combined error
	for i := range events {
		event := &events[i]
		handler, ok := g.handlerFor(event.Provider)
		if !ok {
			continue
		}
		if err := handler(ctx, event); err != nil {
			g.metrics.IncFailed(event.Provider)
			combined = multierr.Append(combined, fmt.Errorf("event %s/%s: %w", event.Provider, event.ExternalID, err))
			if markErr := g.repo.MarkFailed(ctx, event.ID.String(), err.Error()); markErr != nil {
				combined = multierr.Append(combined, markErr)
			}
			continue
		}
		if err := g.repo.MarkProcessed(ctx, event.ID.String(), time.Now().UTC()); err != nil {
			combined = multierr.Append(combined, err)
			continue
		}
		processed++
	}
	return processed, combined
}
