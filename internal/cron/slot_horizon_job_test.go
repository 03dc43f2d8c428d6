package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jvidal-dev/stokage-backend/internal/slots"
	"github.com/jvidal-dev/stokage-backend/pkg/db/models"
	"github.com/jvidal-dev/stokage-backend/pkg/logger"
)

type fakeSettingsReader struct {
	rows []models.PartnerSettings
}

func (f *fakeSettingsReader) ListEnabledPartnerSettings(ctx context.Context) ([]models.PartnerSettings, error) {
	return f.rows, nil
}

type fakeSiteReader struct {
	sites map[uuid.UUID][]models.Site
}

func (f *fakeSiteReader) ListActiveSites(ctx context.Context, tenantID uuid.UUID) ([]models.Site, error) {
	return f.sites[tenantID], nil
}

type fakeGenerator struct {
	inputs []slots.GenerateInput
	err    error
}

func (f *fakeGenerator) Generate(ctx context.Context, input slots.GenerateInput) (int, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return 0, f.err
	}
	return 4, nil
}

func TestSlotHorizonGeneratesPerSite(t *testing.T) {
	tenantID := uuid.New()
	siteA := models.Site{ID: uuid.New(), TenantID: tenantID}
	siteB := models.Site{ID: uuid.New(), TenantID: tenantID}

	generator := &fakeGenerator{}
	job, err := NewSlotHorizonJob(SlotHorizonJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test"}),
		Settings:    &fakeSettingsReader{rows: []models.PartnerSettings{{TenantID: tenantID, MerchantID: "m1"}}},
		Sites:       &fakeSiteReader{sites: map[uuid.UUID][]models.Site{tenantID: {siteA, siteB}}},
		Slots:       generator,
		HorizonDays: 14,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run job: %v", err)
	}
	if len(generator.inputs) != 2 {
		t.Fatalf("expected generation for 2 sites, got %d", len(generator.inputs))
	}
	for _, input := range generator.inputs {
		if input.TenantID != tenantID {
			t.Fatalf("wrong tenant in generation input")
		}
		if input.Days != 14 {
			t.Fatalf("expected 14 day horizon, got %d", input.Days)
		}
		if input.Settings == nil {
			t.Fatalf("settings not forwarded")
		}
	}
}

func TestSlotHorizonAggregatesGenerationErrors(t *testing.T) {
	tenantID := uuid.New()
	generator := &fakeGenerator{err: errors.New("bad opening time")}
	job, err := NewSlotHorizonJob(SlotHorizonJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "cron-test"}),
		Settings: &fakeSettingsReader{rows: []models.PartnerSettings{{TenantID: tenantID, MerchantID: "m1"}}},
		Sites:    &fakeSiteReader{sites: map[uuid.UUID][]models.Site{tenantID: {{ID: uuid.New()}}}},
		Slots:    generator,
	})
	if err != nil {
		t.Fatalf("construct job: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected generation error to surface")
	}
}
