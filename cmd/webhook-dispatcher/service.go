package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/config"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultMaxAttempts    = 10
	defaultDeliverTimeout = 15 * time.Second
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type outboxRepository interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type endpointSource interface {
	ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.WebhookEndpoint, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Repository outboxRepository
	Endpoints  endpointSource
	HTTPClient httpDoer
}

// Service drains the outbox and delivers each event to every tenant
// endpoint subscribed to its type, signing the payload per endpoint.
type Service struct {
	logg         *logger.Logger
	repo         outboxRepository
	endpoints    endpointSource
	client       httpDoer
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}
	if params.Endpoints == nil {
		return nil, errors.New("endpoint source is required")
	}

	client := params.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultDeliverTimeout}
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		repo:         params.Repository,
		endpoints:    params.Endpoints,
		client:       client,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "webhook dispatcher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "webhook dispatcher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}

		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	events, err := s.repo.FetchUnpublished(s.batchSize, s.maxAttempts)
	if err != nil {
		return false, err
	}
	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		fields := map[string]any{
			"event_id":   event.ID.String(),
			"event_type": event.EventType,
			"tenant_id":  event.TenantID.String(),
			"attempts":   event.Attempts,
		}

		if err := s.deliver(ctx, event); err != nil {
			ctxWithFields := s.logg.WithFields(ctx, fields)
			ctxWithFields = s.logg.WithField(ctxWithFields, "error", err.Error())
			s.logg.Warn(ctxWithFields, "webhook delivery failed")
			if markErr := s.repo.MarkFailed(event.ID, err); markErr != nil {
				return true, fmt.Errorf("mark failure %s: %w", event.ID, markErr)
			}
			continue
		}

		if markErr := s.repo.MarkPublished(event.ID); markErr != nil {
			return true, fmt.Errorf("mark published %s: %w", event.ID, markErr)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "webhook event delivered")
	}
	return true, nil
}

// deliver fans one event out to every subscribed endpoint. Any endpoint
// failure fails the whole event so the next attempt retries all of
// them; endpoints must tolerate redelivery.
func (s *Service) deliver(ctx context.Context, event models.OutboxEvent) error {
	endpoints, err := s.endpoints.ListActiveByTenant(ctx, event.TenantID)
	if err != nil {
		return fmt.Errorf("list endpoints: %w", err)
	}

	eventType := string(event.EventType)
	for i := range endpoints {
		endpoint := &endpoints[i]
		if !endpoint.WantsEvent(eventType) {
			continue
		}
		if err := s.deliverOne(ctx, endpoint, event); err != nil {
			return fmt.Errorf("endpoint %s: %w", endpoint.ID, err)
		}
	}
	return nil
}

func (s *Service) deliverOne(ctx context.Context, endpoint *models.WebhookEndpoint, event models.OutboxEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(event.Payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Stokage-Event", string(event.EventType))
	req.Header.Set("X-Stokage-Event-Id", event.ID.String())
	req.Header.Set("X-Stokage-Signature", webhooks.Sign(endpoint.Secret, event.Payload))

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	next := current * 2
	if next < base {
		next = base
	}
	if next > max {
		next = max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}
