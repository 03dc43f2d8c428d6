package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/internal/webhooks"
	"github.com/jvidal-dev/stokage-backend/pkg/config"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/enums"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if limit > len(f.events) {
		limit = len(f.events)
	}
	return f.events[:limit], nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeEndpoints struct {
	endpoints []models.WebhookEndpoint
	err       error
}

func (f *fakeEndpoints) ListActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]models.WebhookEndpoint, error) {
	return f.endpoints, f.err
}

type capturedRequest struct {
	url       string
	signature string
	eventType string
	body      []byte
}

type fakeHTTPClient struct {
	requests []capturedRequest
	statuses []int
	err      error
}

func (f *fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	body, _ := io.ReadAll(req.Body)
	f.requests = append(f.requests, capturedRequest{
		url:       req.URL.String(),
		signature: req.Header.Get("X-Stokage-Signature"),
		eventType: req.Header.Get("X-Stokage-Event"),
		body:      body,
	})
	if f.err != nil {
		return nil, f.err
	}
	status := http.StatusOK
	if len(f.statuses) >= len(f.requests) {
		status = f.statuses[len(f.requests)-1]
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader("")),
	}, nil
}

func testService(t *testing.T, repo *fakeRepo, endpoints *fakeEndpoints, client *fakeHTTPClient) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "dispatcher-test", Output: io.Discard})
	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logg,
		Repository: repo,
		Endpoints:  endpoints,
		HTTPClient: client,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testEvent(t *testing.T, eventType enums.OutboxEventType) models.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"booking_id": uuid.NewString()})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		AggregateType: enums.OutboxAggregateBooking,
		AggregateID:   uuid.New(),
		EventType:     eventType,
		Payload:       payload,
	}
}

func TestProcessBatchDeliversAndSignsPerEndpoint(t *testing.T) {
	event := testEvent(t, enums.OutboxEventBookingConfirmed)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	endpoints := &fakeEndpoints{endpoints: []models.WebhookEndpoint{
		{ID: uuid.New(), URL: "https://tenant.example/hooks", Secret: "whsec_one", IsActive: true},
		{ID: uuid.New(), URL: "https://other.example/hooks", Secret: "whsec_two", IsActive: true},
	}}
	client := &fakeHTTPClient{}

	svc := testService(t, repo, endpoints, client)
	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}

	if len(client.requests) != 2 {
		t.Fatalf("delivered %d requests, want 2", len(client.requests))
	}
	for i, secret := range []string{"whsec_one", "whsec_two"} {
		want := webhooks.Sign(secret, event.Payload)
		if client.requests[i].signature != want {
			t.Fatalf("request %d signature = %q, want %q", i, client.requests[i].signature, want)
		}
		if client.requests[i].eventType != string(enums.OutboxEventBookingConfirmed) {
			t.Fatalf("request %d event type = %q", i, client.requests[i].eventType)
		}
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("published = %v, want [%s]", repo.published, event.ID)
	}
	if len(repo.failed) != 0 {
		t.Fatalf("failed = %v, want none", repo.failed)
	}
}

func TestProcessBatchSkipsUnsubscribedEndpoints(t *testing.T) {
	event := testEvent(t, enums.OutboxEventUnitVacated)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	endpoints := &fakeEndpoints{endpoints: []models.WebhookEndpoint{
		{ID: uuid.New(), URL: "https://bookings-only.example/hooks", Secret: "s", Events: "booking.created,booking.confirmed", IsActive: true},
	}}
	client := &fakeHTTPClient{}

	svc := testService(t, repo, endpoints, client)
	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	if len(client.requests) != 0 {
		t.Fatalf("delivered %d requests, want 0", len(client.requests))
	}
	if len(repo.published) != 1 {
		t.Fatalf("event without subscribers should still be marked delivered, published=%v", repo.published)
	}
}

func TestProcessBatchMarksFailedOnEndpointError(t *testing.T) {
	event := testEvent(t, enums.OutboxEventBookingCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	endpoints := &fakeEndpoints{endpoints: []models.WebhookEndpoint{
		{ID: uuid.New(), URL: "https://tenant.example/hooks", Secret: "s", IsActive: true},
	}}
	client := &fakeHTTPClient{statuses: []int{http.StatusBadGateway}}

	svc := testService(t, repo, endpoints, client)
	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("failed = %v, want [%s]", repo.failed, event.ID)
	}
	if len(repo.published) != 0 {
		t.Fatalf("published = %v, want none", repo.published)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := testEvent(t, enums.OutboxEventBookingCreated)
	second := testEvent(t, enums.OutboxEventBookingCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	endpoints := &fakeEndpoints{endpoints: []models.WebhookEndpoint{
		{ID: uuid.New(), URL: "https://tenant.example/hooks", Secret: "s", IsActive: true},
	}}
	client := &fakeHTTPClient{statuses: []int{http.StatusInternalServerError, http.StatusOK}}

	svc := testService(t, repo, endpoints, client)
	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("failed = %v, want [%s]", repo.failed, first.ID)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("published = %v, want [%s]", repo.published, second.ID)
	}
}

func TestProcessBatchReturnsErrorWhenEndpointLookupFails(t *testing.T) {
	event := testEvent(t, enums.OutboxEventBookingCreated)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	endpoints := &fakeEndpoints{err: errors.New("db down")}

	svc := testService(t, repo, endpoints, &fakeHTTPClient{})
	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}

	// a lookup failure counts as a delivery failure for that event
	if len(repo.failed) != 1 {
		t.Fatalf("failed = %v, want one entry", repo.failed)
	}
}
